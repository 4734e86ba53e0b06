package oanda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rustyeddy/brokerage/broker"
	"github.com/rustyeddy/brokerage/pricing"
	"github.com/shopspring/decimal"
)

const (
	// PracticeURL is the URL for OANDA's practice/demo environment
	PracticeURL = "https://api-fxpractice.oanda.com"
	// LiveURL is the URL for OANDA's live trading environment
	LiveURL = "https://api-fxtrade.oanda.com"
)

// Client is the forex venue adapter. Market data is account-scoped:
// every request carries the session token and account id.
type Client struct {
	baseURL    string
	token      string
	accountID  string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a new OANDA API client.
func NewClient(token, accountID string, practice bool) *Client {
	baseURL := LiveURL
	if practice {
		baseURL = PracticeURL
	}

	return &Client{
		baseURL:   baseURL,
		token:     token,
		accountID: accountID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: slog.Default(),
	}
}

// SetBaseURL overrides the venue endpoint. Used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

type priceBucket struct {
	Price string `json:"price"`
}

type apiPrice struct {
	Instrument string        `json:"instrument"`
	Time       string        `json:"time"`
	Bids       []priceBucket `json:"bids"`
	Asks       []priceBucket `json:"asks"`
}

type pricingResponse struct {
	Prices []apiPrice `json:"prices"`
}

// GetQuote fetches a single symbol's current bid/ask.
func (c *Client) GetQuote(ctx context.Context, symbol string) (pricing.Quote, error) {
	quotes, err := c.GetQuotes(ctx, []string{symbol})
	if err != nil {
		return pricing.Quote{}, err
	}
	q, ok := quotes[symbol]
	if !ok {
		return pricing.Quote{}, fmt.Errorf("no price returned for %s: %w", symbol, broker.ErrQuoteUnavailable)
	}
	return q, nil
}

// GetQuotes fetches current pricing for a batch of symbols in one
// request; the venue accepts a comma-separated instrument list.
func (c *Client) GetQuotes(ctx context.Context, symbols []string) (map[string]pricing.Quote, error) {
	if len(symbols) == 0 {
		return map[string]pricing.Quote{}, nil
	}

	params := url.Values{}
	params.Set("instruments", strings.Join(symbols, ","))

	apiURL := fmt.Sprintf("%s/v3/accounts/%s/pricing?%s", c.baseURL, c.accountID, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("pricing request: %v: %w", err, broker.ErrQuoteUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s: %w", resp.StatusCode, string(body), broker.ErrQuoteUnavailable)
	}

	var apiResp pricingResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode pricing response: %v: %w", err, broker.ErrQuoteUnavailable)
	}

	quotes := make(map[string]pricing.Quote, len(apiResp.Prices))
	for _, p := range apiResp.Prices {
		// One halted or unpriced instrument must not fail the batch:
		// omit it and let callers treat the missing symbol as
		// quote-unavailable.
		if len(p.Bids) == 0 || len(p.Asks) == 0 {
			continue
		}

		bid, err := decimal.NewFromString(p.Bids[0].Price)
		if err != nil {
			continue
		}
		ask, err := decimal.NewFromString(p.Asks[0].Price)
		if err != nil {
			continue
		}

		ts, err := time.Parse(time.RFC3339, p.Time)
		if err != nil {
			ts = time.Now().UTC()
		}

		q := pricing.Quote{
			Symbol: p.Instrument,
			Bid:    bid,
			Ask:    ask,
			Time:   ts,
			Source: "oanda",
		}
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("invalid quote for %s: %w", p.Instrument, err)
		}
		quotes[p.Instrument] = q
	}

	return quotes, nil
}
