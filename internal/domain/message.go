package domain

import "fmt"

func LiveMessage(q Quote) string {
	return fmt.Sprintf("🔔 Price Update\n\nPair: %s\nPrice: $%s\nTime: %s", q.Pair, q.Price, q.Timestamp())
}

func HistoricalMessage(pair Pair, r Record) string {
	return fmt.Sprintf("🔄 Historical Price\n\nPair: %s\nPrice: $%s\nTime: %s", pair, r.Price, r.Timestamp)
}
