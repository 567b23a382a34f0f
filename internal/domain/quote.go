package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceUnavailable is stored and sent when the upstream payload has no usable close price.
const PriceUnavailable = "N/A"

// TimestampLayout renders observation times in messages and stored records.
const TimestampLayout = "2006-01-02 15:04:05 UTC"

type Quote struct {
	Pair       Pair
	Price      string
	ObservedAt time.Time
}

func NewQuote(pair Pair, price string, at time.Time) Quote {
	return Quote{Pair: pair, Price: price, ObservedAt: at.UTC().Truncate(time.Second)}
}

// Decimal parses the exchange-native price text.
func (q Quote) Decimal() (decimal.Decimal, bool) {
	if q.Price == "" || q.Price == PriceUnavailable {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(q.Price)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func (q Quote) Timestamp() string {
	return q.ObservedAt.UTC().Format(TimestampLayout)
}
