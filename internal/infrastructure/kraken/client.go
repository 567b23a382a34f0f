package kraken

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/lodygens/cryptobot/internal/application"
	"github.com/lodygens/cryptobot/internal/domain"
	"github.com/lodygens/cryptobot/internal/infrastructure/httpx"
)

const tickerPath = "/0/public/Ticker"

// Client reads last-trade prices from the Kraken public Ticker endpoint.
type Client struct {
	BaseURL string
	HTTP    *httpx.Client
	Now     func() time.Time
}

var _ application.QuoteSource = (*Client)(nil)

func New(baseURL string, hc *http.Client) *Client {
	return &Client{BaseURL: baseURL, HTTP: &httpx.Client{HTTP: hc}}
}

// Both fields are required. A null result still decodes and falls back to
// domain.PriceUnavailable; a missing or null error list does not.
type tickerResp struct {
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

func (c *Client) Get(ctx context.Context, pair string) (domain.Quote, error) {
	p := domain.Pair(pair)
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return domain.Quote{}, &domain.FetchError{Kind: domain.FetchTransport, Pair: p, Err: fmt.Errorf("invalid base url: %w", err)}
	}
	u = u.JoinPath(tickerPath)
	q := u.Query()
	q.Set("pair", pair)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.Quote{}, &domain.FetchError{Kind: domain.FetchTransport, Pair: p, Err: err}
	}

	hc := c.HTTP
	if hc == nil {
		hc = &httpx.Client{}
	}
	var body tickerResp
	if err := hc.DoJSON(ctx, req, &body); err != nil {
		kind := domain.FetchTransport
		if errors.Is(err, httpx.ErrDecode) {
			kind = domain.FetchDecode
		}
		return domain.Quote{}, &domain.FetchError{Kind: kind, Pair: p, Err: err}
	}
	var remote []string
	if len(body.Error) == 0 || bytes.Equal(body.Error, []byte("null")) {
		return domain.Quote{}, &domain.FetchError{Kind: domain.FetchDecode, Pair: p, Err: errors.New("missing error list")}
	}
	if err := json.Unmarshal(body.Error, &remote); err != nil {
		return domain.Quote{}, &domain.FetchError{Kind: domain.FetchDecode, Pair: p, Err: fmt.Errorf("error list: %w", err)}
	}
	if len(remote) > 0 {
		return domain.Quote{}, &domain.FetchError{Kind: domain.FetchRemote, Pair: p, Remote: remote}
	}
	if len(body.Result) == 0 {
		return domain.Quote{}, &domain.FetchError{Kind: domain.FetchDecode, Pair: p, Err: errors.New("missing result")}
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return domain.NewQuote(p, extractPrice(body.Result), now()), nil
}

// extractPrice walks result -> first ticker -> "c" -> [0]. Any missing or
// mistyped step yields domain.PriceUnavailable instead of an error. An empty
// string is a string and is returned as is.
func extractPrice(result json.RawMessage) string {
	var tickers map[string]json.RawMessage
	if err := json.Unmarshal(result, &tickers); err != nil || len(tickers) == 0 {
		return domain.PriceUnavailable
	}
	keys := make([]string, 0, len(tickers))
	for k := range tickers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var ticker map[string]json.RawMessage
	if err := json.Unmarshal(tickers[keys[0]], &ticker); err != nil {
		return domain.PriceUnavailable
	}
	var closes []json.RawMessage
	if err := json.Unmarshal(ticker["c"], &closes); err != nil || len(closes) == 0 {
		return domain.PriceUnavailable
	}
	var price string
	if bytes.Equal(closes[0], []byte("null")) {
		return domain.PriceUnavailable
	}
	if err := json.Unmarshal(closes[0], &price); err != nil {
		return domain.PriceUnavailable
	}
	return price
}
