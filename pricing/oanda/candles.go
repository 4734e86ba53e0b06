package oanda

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

// Granularity represents the time frame for candles
type Granularity string

const (
	M1 Granularity = "M1" // 1 minute
	M5 Granularity = "M5" // 5 minutes
	M15 Granularity = "M15" // 15 minutes
	M30 Granularity = "M30" // 30 minutes
	H1 Granularity = "H1" // 1 hour
	H4 Granularity = "H4" // 4 hours
	D  Granularity = "D"  // 1 day
)

// MaxCandles is the venue-side ceiling per candles request.
const MaxCandles = 5000

// Candle is one completed OHLCV bar.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// CandlesRequest represents parameters for fetching historical candles
type CandlesRequest struct {
	Instrument  string      // Required: e.g. "EUR_USD"
	Granularity Granularity // Candle granularity (default: M1)
	Count       int         // Number of candles (max 5000, mutually exclusive with From/To)
	From        *time.Time  // Start time (ISO 8601)
	To          *time.Time  // End time (ISO 8601)
}

type candleData struct {
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
}

type apiCandle struct {
	Complete bool       `json:"complete"`
	Volume   int        `json:"volume"`
	Time     string     `json:"time"`
	Mid      candleData `json:"mid"`
}

type candlesResponse struct {
	Instrument  string      `json:"instrument"`
	Granularity string      `json:"granularity"`
	Candles     []apiCandle `json:"candles"`
}

// GetCandles fetches historical midpoint candles. Incomplete candles
// are skipped.
func (c *Client) GetCandles(ctx context.Context, req CandlesRequest) ([]Candle, error) {
	if req.Instrument == "" {
		return nil, fmt.Errorf("instrument is required")
	}

	params := url.Values{}
	params.Set("price", "M")

	if req.Granularity == "" {
		req.Granularity = M1
	}
	params.Set("granularity", string(req.Granularity))

	if req.Count > 0 {
		if req.Count > MaxCandles {
			return nil, fmt.Errorf("count cannot exceed %d", MaxCandles)
		}
		params.Set("count", strconv.Itoa(req.Count))
	} else {
		if req.From != nil {
			params.Set("from", req.From.Format(time.RFC3339))
		}
		if req.To != nil {
			params.Set("to", req.To.Format(time.RFC3339))
		}
	}

	apiURL := fmt.Sprintf("%s/v3/instruments/%s/candles?%s", c.baseURL, req.Instrument, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp candlesResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	candles := make([]Candle, 0, len(apiResp.Candles))
	for _, ac := range apiResp.Candles {
		if !ac.Complete {
			continue
		}

		t, err := time.Parse(time.RFC3339, ac.Time)
		if err != nil {
			return nil, fmt.Errorf("parse time %s: %w", ac.Time, err)
		}

		open, err := strconv.ParseFloat(ac.Mid.O, 64)
		if err != nil {
			return nil, fmt.Errorf("parse open price: %w", err)
		}
		high, err := strconv.ParseFloat(ac.Mid.H, 64)
		if err != nil {
			return nil, fmt.Errorf("parse high price: %w", err)
		}
		low, err := strconv.ParseFloat(ac.Mid.L, 64)
		if err != nil {
			return nil, fmt.Errorf("parse low price: %w", err)
		}
		cl, err := strconv.ParseFloat(ac.Mid.C, 64)
		if err != nil {
			return nil, fmt.Errorf("parse close price: %w", err)
		}

		candles = append(candles, Candle{
			Time:   t,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  cl,
			Volume: float64(ac.Volume),
		})
	}

	return candles, nil
}
