package oanda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Instrument is the venue's catalog entry for a tradable pair.
type Instrument struct {
	Name              string `json:"name"`        // e.g. "EUR_USD"
	Type              string `json:"type"`        // e.g. "CURRENCY"
	DisplayName       string `json:"displayName"` // e.g. "EUR/USD"
	PipLocation       int    `json:"pipLocation"`
	MinimumTradeSize  string `json:"minimumTradeSize"`
	MaximumOrderUnits string `json:"maximumOrderUnits"`
}

type instrumentsResponse struct {
	Instruments []Instrument `json:"instruments"`
}

// GetInstruments fetches the account's tradable instrument catalog.
// Pass nil to fetch all instruments.
func (c *Client) GetInstruments(ctx context.Context, names []string) ([]Instrument, error) {
	params := url.Values{}
	if len(names) > 0 {
		params.Set("instruments", strings.Join(names, ","))
	}

	apiURL := fmt.Sprintf("%s/v3/accounts/%s/instruments", c.baseURL, c.accountID)
	if enc := params.Encode(); enc != "" {
		apiURL += "?" + enc
	}

	httpReq, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("instruments request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp instrumentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode instruments response: %w", err)
	}

	return apiResp.Instruments, nil
}
