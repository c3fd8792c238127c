// Package iex fetches stock quotes from an IEX Cloud compatible API.
package iex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/papertrader/market"
)

// DefaultBaseURL is the IEX Cloud production endpoint.
const DefaultBaseURL = "https://cloud.iexapis.com"

// DefaultTimeout bounds one quote request.
const DefaultTimeout = 8 * time.Second

var _ market.QuoteSource = (*Client)(nil)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient returns a client for baseURL. An empty baseURL selects
// DefaultBaseURL and a zero timeout selects DefaultTimeout.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// quoteResponse is the subset of the quote payload we use. latestPrice is
// decoded straight into a decimal so no float rounding creeps in.
type quoteResponse struct {
	Symbol      string          `json:"symbol"`
	CompanyName string          `json:"companyName"`
	LatestPrice decimal.Decimal `json:"latestPrice"`
}

// Quote returns the latest price of symbol. Unknown symbols yield
// market.ErrSymbolNotFound.
func (c *Client) Quote(ctx context.Context, symbol string) (market.Quote, error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return market.Quote{}, err
	}

	params := url.Values{}
	params.Set("token", c.token)
	apiURL := fmt.Sprintf("%s/stable/stock/%s/quote?%s", c.baseURL, url.PathEscape(sym), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return market.Quote{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return market.Quote{}, fmt.Errorf("quote %s: %w", sym, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return market.Quote{}, fmt.Errorf("%s: %w", sym, market.ErrSymbolNotFound)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return market.Quote{}, fmt.Errorf("quote %s: API error (status %d): %s", sym, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var qr quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return market.Quote{}, fmt.Errorf("decode quote %s: %w", sym, err)
	}
	if qr.Symbol == "" {
		return market.Quote{}, fmt.Errorf("%s: %w", sym, market.ErrSymbolNotFound)
	}
	if !qr.LatestPrice.IsPositive() {
		return market.Quote{}, fmt.Errorf("quote %s: no price in response", sym)
	}

	return market.Quote{
		Symbol: strings.ToUpper(qr.Symbol),
		Name:   qr.CompanyName,
		Price:  qr.LatestPrice,
	}, nil
}
