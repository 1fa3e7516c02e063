package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradecrest/quantagent/internal/config"
	"github.com/tradecrest/quantagent/internal/logging"
)

func newTestClient(t *testing.T, baseURL string, withCreds bool) *Client {
	t.Helper()
	cfg := config.ExchangeConfig{BaseURL: baseURL}
	if withCreds {
		cfg.APIKey = "test-key"
		cfg.APISecret = "test-secret"
	}
	c := NewClient(cfg, logging.New(nil, "silent"))
	c.now = func() time.Time { return time.Unix(1700000000, 0) }
	return c
}

func TestTickerPublicRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/BTC-USD/ticker", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Empty(t, r.Header.Get("CB-ACCESS-KEY"))

		json.NewEncoder(w).Encode(Ticker{
			TradeID: 42,
			Price:   "50000.00",
			Bid:     "49999.00",
			Ask:     "50001.00",
			Volume:  "1234.5",
			Time:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, false)
	ticker, err := c.Ticker(context.Background(), "BTC-USD")
	require.NoError(t, err)

	assert.Equal(t, int64(42), ticker.TradeID)
	assert.Equal(t, "50000.00", ticker.Price)
}

func TestPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Ticker{Price: "50000.25"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, false)
	price, err := c.Price(context.Background(), "BTC-USD")
	require.NoError(t, err)
	assert.Equal(t, 50000.25, price)
}

func TestPriceUnparseable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Ticker{Price: "not-a-number"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, false)
	_, err := c.Price(context.Background(), "BTC-USD")
	assert.ErrorContains(t, err, "parse ticker price")
}

func TestCandlesOrderedAscending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/BTC-USD/candles", r.URL.Path)
		assert.Equal(t, "60", r.URL.Query().Get("granularity"))
		assert.NotEmpty(t, r.URL.Query().Get("start"))

		// rows come back newest first: [time, low, high, open, close, volume]
		io.WriteString(w, `[
			[1700000120, 98, 102, 100, 101, 10],
			[1700000060, 97, 101, 99, 100, 12]
		]`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, false)
	series, err := c.Candles(context.Background(), "BTC-USD", 60,
		time.Unix(1700000000, 0), time.Time{})
	require.NoError(t, err)

	require.Len(t, series, 2)
	assert.True(t, series[0].Time.Before(series[1].Time))
	assert.Equal(t, 97.0, series[0].Low)
	assert.Equal(t, 101.0, series[0].High)
	assert.Equal(t, 99.0, series[0].Open)
	assert.Equal(t, 100.0, series[0].Close)
	assert.Equal(t, 12.0, series[0].Volume)
}

func TestCandlesMalformedRow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[[1700000060, 97, 101]]`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, false)
	_, err := c.Candles(context.Background(), "BTC-USD", 60, time.Time{}, time.Time{})
	assert.ErrorContains(t, err, "malformed candle row")
}

func TestPrivateEndpointsRequireCredentials(t *testing.T) {
	c := newTestClient(t, "http://unused", false)

	_, err := c.Accounts(context.Background())
	assert.ErrorIs(t, err, ErrNoCredentials)

	_, err = c.PlaceMarketOrder(context.Background(), "BTC-USD", "buy", "0.01")
	assert.ErrorIs(t, err, ErrNoCredentials)

	_, err = c.Fills(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestPlaceMarketOrderSignsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("CB-ACCESS-KEY"))
		assert.Equal(t, "1700000000", r.Header.Get("CB-ACCESS-TIMESTAMP"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req marketOrderRequest
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "BTC-USD", req.ProductID)
		assert.Equal(t, "buy", req.Side)
		assert.Equal(t, "0.01", req.Size)
		assert.Equal(t, "market", req.Type)

		mac := hmac.New(sha256.New, []byte("test-secret"))
		mac.Write([]byte("1700000000" + "POST" + "/orders" + string(body)))
		assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), r.Header.Get("CB-ACCESS-SIGN"))

		json.NewEncoder(w).Encode(Order{ID: "order-1", Status: "pending"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, true)
	order, err := c.PlaceMarketOrder(context.Background(), "BTC-USD", "buy", "0.01")
	require.NoError(t, err)
	assert.Equal(t, "order-1", order.ID)
}

func TestFillsFiltersByProduct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fills", r.URL.Path)
		assert.Equal(t, "BTC-USD", r.URL.Query().Get("product_id"))
		io.WriteString(w, `[{"trade_id": 7, "product_id": "BTC-USD", "side": "buy"}]`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, true)
	fills, err := c.Fills(context.Background(), "BTC-USD")
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, int64(7), fills[0].TradeID)
}

func TestErrorStatusSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"message":"NotFound"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, false)
	_, err := c.Ticker(context.Background(), "NOPE-USD")
	assert.ErrorContains(t, err, "status 404")
}
