package bitunix

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

// DefaultURL is the Bitunix futures API endpoint.
const DefaultURL = "https://fapi.bitunix.com"

// The venue throttles market data at roughly 10 requests/second per
// client address.
const requestsPerSecond = 10

// The venue reports a single mark/last price; bid and ask are
// synthesized with a 0.01% half-spread.
var spreadRatio = decimal.New(1, -4)

// Client is the crypto-futures venue adapter. Market data endpoints
// are public; no credentials are sent.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *pricing.RateLimiter
	log        *slog.Logger
}

func NewClient() *Client {
	return &Client{
		baseURL: DefaultURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: pricing.NewRateLimiter(5, requestsPerSecond),
		log:     slog.Default(),
	}
}

// SetBaseURL overrides the venue endpoint. Used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// venueSymbol converts registry form to venue form: BTC_USDT -> BTCUSDT.
func venueSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, "_", "")
}

type apiTicker struct {
	Symbol    string `json:"symbol"`
	MarkPrice string `json:"markPrice"`
	LastPrice string `json:"lastPrice"`
	High      string `json:"high"`
	Low       string `json:"low"`
	QuoteVol  string `json:"quoteVol"`
	BaseVol   string `json:"baseVol"`
}

type tickersResponse struct {
	Code int         `json:"code"`
	Data []apiTicker `json:"data"`
	Msg  string      `json:"msg"`
}

// GetQuote fetches the current ticker for one symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (pricing.Quote, error) {
	quotes, err := c.GetQuotes(ctx, []string{symbol})
	if err != nil {
		return pricing.Quote{}, err
	}
	q, ok := quotes[symbol]
	if !ok {
		return pricing.Quote{}, fmt.Errorf("no ticker returned for %s: %w", symbol, broker.ErrQuoteUnavailable)
	}
	return q, nil
}

// GetQuotes fetches tickers for a batch of symbols in one request.
// Symbols absent from the venue response are absent from the result.
func (c *Client) GetQuotes(ctx context.Context, symbols []string) (map[string]pricing.Quote, error) {
	if len(symbols) == 0 {
		return map[string]pricing.Quote{}, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %v: %w", err, broker.ErrQuoteUnavailable)
	}

	// Map venue symbols back to the registry form they were asked in.
	requested := make(map[string]string, len(symbols))
	venueSyms := make([]string, 0, len(symbols))
	for _, s := range symbols {
		vs := venueSymbol(s)
		requested[vs] = s
		venueSyms = append(venueSyms, vs)
	}

	params := url.Values{}
	params.Set("symbols", strings.Join(venueSyms, ","))

	apiURL := fmt.Sprintf("%s/api/v1/futures/market/tickers?%s", c.baseURL, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tickers request: %v: %w", err, broker.ErrQuoteUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s: %w", resp.StatusCode, string(body), broker.ErrQuoteUnavailable)
	}

	var apiResp tickersResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode tickers response: %v: %w", err, broker.ErrQuoteUnavailable)
	}
	if apiResp.Code != 0 {
		return nil, fmt.Errorf("venue error code %d: %s: %w", apiResp.Code, apiResp.Msg, broker.ErrQuoteUnavailable)
	}

	now := time.Now().UTC()
	quotes := make(map[string]pricing.Quote, len(apiResp.Data))
	for _, t := range apiResp.Data {
		sym, ok := requested[t.Symbol]
		if !ok {
			continue
		}

		q, err := tickerQuote(sym, t, now)
		if err != nil {
			return nil, fmt.Errorf("ticker for %s: %w", sym, err)
		}
		quotes[sym] = q
	}

	return quotes, nil
}

// tickerQuote normalizes a venue ticker. Mark price is primary, last
// price the fallback; neither usable is a quote-unavailable condition.
func tickerQuote(symbol string, t apiTicker, now time.Time) (pricing.Quote, error) {
	mark, err := optDecimal(t.MarkPrice)
	if err != nil {
		return pricing.Quote{}, fmt.Errorf("parse markPrice: %v: %w", err, broker.ErrQuoteUnavailable)
	}
	last, err := optDecimal(t.LastPrice)
	if err != nil {
		return pricing.Quote{}, fmt.Errorf("parse lastPrice: %v: %w", err, broker.ErrQuoteUnavailable)
	}

	price := mark
	if price.Sign() <= 0 {
		price = last
	}
	if price.Sign() <= 0 {
		return pricing.Quote{}, fmt.Errorf("no usable price: %w", broker.ErrQuoteUnavailable)
	}

	high, _ := optDecimal(t.High)
	low, _ := optDecimal(t.Low)
	quoteVol, _ := optDecimal(t.QuoteVol)
	baseVol, _ := optDecimal(t.BaseVol)

	spread := price.Mul(spreadRatio)
	q := pricing.Quote{
		Symbol:   symbol,
		Bid:      price.Sub(spread),
		Ask:      price.Add(spread),
		Mark:     mark,
		Last:     last,
		High:     high,
		Low:      low,
		QuoteVol: quoteVol,
		BaseVol:  baseVol,
		Time:     now,
		Source:   "bitunix",
	}
	if err := q.Validate(); err != nil {
		return pricing.Quote{}, err
	}
	return q, nil
}

// optDecimal parses a possibly-empty venue string field.
func optDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
