package oanda

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rustyeddy/brokerage/broker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("practice mode", func(t *testing.T) {
		client := NewClient("test-token", "acct-1", true)
		assert.Equal(t, PracticeURL, client.baseURL)
		assert.Equal(t, "test-token", client.token)
		assert.NotNil(t, client.httpClient)
	})

	t.Run("live mode", func(t *testing.T) {
		client := NewClient("test-token", "acct-1", false)
		assert.Equal(t, LiveURL, client.baseURL)
	})
}

func TestGetQuotes_Success(t *testing.T) {
	mockResponse := pricingResponse{
		Prices: []apiPrice{
			{
				Instrument: "EUR_USD",
				Time:       "2024-01-01T10:00:00Z",
				Bids:       []priceBucket{{Price: "1.1000"}},
				Asks:       []priceBucket{{Price: "1.1002"}},
			},
			{
				Instrument: "USD_JPY",
				Time:       "2024-01-01T10:00:00Z",
				Bids:       []priceBucket{{Price: "150.00"}},
				Asks:       []priceBucket{{Price: "150.02"}},
			},
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/v3/accounts/acct-1/pricing", r.URL.Path)
		assert.Equal(t, "EUR_USD,USD_JPY", r.URL.Query().Get("instruments"))

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(mockResponse)
	}))
	defer server.Close()

	client := NewClient("test-token", "acct-1", true)
	client.SetBaseURL(server.URL)

	quotes, err := client.GetQuotes(context.Background(), []string{"EUR_USD", "USD_JPY"})
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	assert.Equal(t, "1.1", quotes["EUR_USD"].Bid.String())
	assert.Equal(t, "1.1002", quotes["EUR_USD"].Ask.String())
	assert.Equal(t, "oanda", quotes["EUR_USD"].Source)
	assert.Equal(t, "150", quotes["USD_JPY"].Bid.String())
}

func TestGetQuote_MissingSymbol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(pricingResponse{})
	}))
	defer server.Close()

	client := NewClient("test-token", "acct-1", true)
	client.SetBaseURL(server.URL)

	_, err := client.GetQuote(context.Background(), "EUR_USD")
	assert.ErrorIs(t, err, broker.ErrQuoteUnavailable)
}

func TestGetQuotes_VenueError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errorMessage":"Insufficient authorization"}`))
	}))
	defer server.Close()

	client := NewClient("bad-token", "acct-1", true)
	client.SetBaseURL(server.URL)

	_, err := client.GetQuotes(context.Background(), []string{"EUR_USD"})
	assert.ErrorIs(t, err, broker.ErrQuoteUnavailable)
}

func TestGetQuotes_EmptyBookSkipsInstrument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(pricingResponse{
			Prices: []apiPrice{
				{Instrument: "EUR_USD", Time: "2024-01-01T10:00:00Z"},
				{
					Instrument: "USD_JPY",
					Time:       "2024-01-01T10:00:00Z",
					Bids:       []priceBucket{{Price: "150.00"}},
					Asks:       []priceBucket{{Price: "150.02"}},
				},
			},
		})
	}))
	defer server.Close()

	client := NewClient("test-token", "acct-1", true)
	client.SetBaseURL(server.URL)

	// A halted instrument is omitted from the batch, not an error.
	quotes, err := client.GetQuotes(context.Background(), []string{"EUR_USD", "USD_JPY"})
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Contains(t, quotes, "USD_JPY")

	// The single-symbol path still surfaces the missing quote.
	_, err = client.GetQuote(context.Background(), "EUR_USD")
	assert.ErrorIs(t, err, broker.ErrQuoteUnavailable)
}

func TestGetQuotes_EmptyRequest(t *testing.T) {
	client := NewClient("test-token", "acct-1", true)

	quotes, err := client.GetQuotes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, quotes)
}
