package bitunix

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// MaxKlines is the venue-side ceiling per kline request.
const MaxKlines = 200

// Kline is one completed OHLCV bar.
type Kline struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

type apiKline struct {
	Time    int64  `json:"time"` // epoch millis
	Open    string `json:"open"`
	High    string `json:"high"`
	Low     string `json:"low"`
	Close   string `json:"close"`
	BaseVol string `json:"baseVol"`
}

type klineResponse struct {
	Code int        `json:"code"`
	Data []apiKline `json:"data"`
	Msg  string     `json:"msg"`
}

// KlinesRequest are the venue kline query parameters. Interval uses
// venue notation: 1m, 5m, 15m, 30m, 1h, 4h, 1d.
type KlinesRequest struct {
	Symbol   string
	Interval string
	Limit    int
	Start    *time.Time
	End      *time.Time
}

// GetKlines fetches historical candles for one symbol.
func (c *Client) GetKlines(ctx context.Context, req KlinesRequest) ([]Kline, error) {
	if req.Symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if req.Limit <= 0 || req.Limit > MaxKlines {
		req.Limit = MaxKlines
	}
	if req.Interval == "" {
		req.Interval = "1m"
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("symbol", venueSymbol(req.Symbol))
	params.Set("interval", req.Interval)
	params.Set("limit", strconv.Itoa(req.Limit))
	if req.Start != nil {
		params.Set("startTime", strconv.FormatInt(req.Start.UnixMilli(), 10))
	}
	if req.End != nil {
		params.Set("endTime", strconv.FormatInt(req.End.UnixMilli(), 10))
	}

	apiURL := fmt.Sprintf("%s/api/v1/futures/market/kline?%s", c.baseURL, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("kline request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp klineResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode kline response: %w", err)
	}
	if apiResp.Code != 0 {
		return nil, fmt.Errorf("venue error code %d: %s", apiResp.Code, apiResp.Msg)
	}

	klines := make([]Kline, 0, len(apiResp.Data))
	for _, k := range apiResp.Data {
		open, err := strconv.ParseFloat(k.Open, 64)
		if err != nil {
			return nil, fmt.Errorf("parse open price: %w", err)
		}
		high, err := strconv.ParseFloat(k.High, 64)
		if err != nil {
			return nil, fmt.Errorf("parse high price: %w", err)
		}
		low, err := strconv.ParseFloat(k.Low, 64)
		if err != nil {
			return nil, fmt.Errorf("parse low price: %w", err)
		}
		cl, err := strconv.ParseFloat(k.Close, 64)
		if err != nil {
			return nil, fmt.Errorf("parse close price: %w", err)
		}

		var vol float64
		if k.BaseVol != "" {
			vol, err = strconv.ParseFloat(k.BaseVol, 64)
			if err != nil {
				return nil, fmt.Errorf("parse baseVol: %w", err)
			}
		}

		klines = append(klines, Kline{
			Time:   time.UnixMilli(k.Time).UTC(),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  cl,
			Volume: vol,
		})
	}

	return klines, nil
}

// GetSymbols lists all tradable venue symbols via the unfiltered
// tickers endpoint. Used by the catalog sync collaborator.
func (c *Client) GetSymbols(ctx context.Context) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	apiURL := fmt.Sprintf("%s/api/v1/futures/market/tickers", c.baseURL)

	httpReq, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tickers request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp tickersResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode tickers response: %w", err)
	}
	if apiResp.Code != 0 {
		return nil, fmt.Errorf("venue error code %d: %s", apiResp.Code, apiResp.Msg)
	}

	symbols := make([]string, 0, len(apiResp.Data))
	for _, t := range apiResp.Data {
		symbols = append(symbols, t.Symbol)
	}
	return symbols, nil
}
