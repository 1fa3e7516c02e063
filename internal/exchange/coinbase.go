// Package exchange provides a Coinbase Exchange REST client for market data
// and, when credentials are configured, account and order endpoints.
package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tradecrest/quantagent/internal/config"
	"github.com/tradecrest/quantagent/internal/domain"
	"github.com/tradecrest/quantagent/internal/logging"
)

// ErrNoCredentials is returned by private endpoints when the client was
// built without an API key and secret.
var ErrNoCredentials = errors.New("exchange: API credentials required")

const requestTimeout = 15 * time.Second

// Ticker is the current market snapshot for a product.
type Ticker struct {
	TradeID int64     `json:"trade_id"`
	Price   string    `json:"price"`
	Size    string    `json:"size"`
	Bid     string    `json:"bid"`
	Ask     string    `json:"ask"`
	Volume  string    `json:"volume"`
	Time    time.Time `json:"time"`
}

// Account is a single currency account balance.
type Account struct {
	ID        string `json:"id"`
	Currency  string `json:"currency"`
	Balance   string `json:"balance"`
	Available string `json:"available"`
	Hold      string `json:"hold"`
}

// Order is the exchange's view of a placed order.
type Order struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Side      string `json:"side"`
	Size      string `json:"size"`
	Type      string `json:"type"`
	Status    string `json:"status"`
}

// Fill records a single execution against one of our orders.
type Fill struct {
	TradeID   int64     `json:"trade_id"`
	ProductID string    `json:"product_id"`
	OrderID   string    `json:"order_id"`
	Price     string    `json:"price"`
	Size      string    `json:"size"`
	Side      string    `json:"side"`
	CreatedAt time.Time `json:"created_at"`
}

type marketOrderRequest struct {
	ProductID string `json:"product_id"`
	Side      string `json:"side"`
	Size      string `json:"size"`
	Type      string `json:"type"`
}

// Client talks to the Coinbase Exchange REST API. Public market data works
// without credentials; account and order calls require them.
type Client struct {
	cfg  config.ExchangeConfig
	http *retryablehttp.Client
	log  *logging.Logger
	now  func() time.Time
}

// NewClient builds a client from config. A missing key/secret pair is not an
// error, but restricts the client to public endpoints.
func NewClient(cfg config.ExchangeConfig, log *logging.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.HTTPClient.Timeout = requestTimeout
	rc.Logger = nil

	c := &Client{
		cfg:  cfg,
		http: rc,
		log:  log.Sub("exchange"),
		now:  time.Now,
	}
	if !c.hasCredentials() {
		c.log.Warn().Msg("using public API endpoints only, credentials not configured")
	}
	return c
}

func (c *Client) hasCredentials() bool {
	return c.cfg.APIKey != "" && c.cfg.APISecret != ""
}

// sign produces the CB-ACCESS-SIGN value: hex-encoded HMAC-SHA256 of
// timestamp + method + requestPath + body.
func (c *Client) sign(timestamp, method, requestPath, body string) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.APISecret))
	mac.Write([]byte(timestamp + method + requestPath + body))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	requestPath := path
	if len(query) > 0 {
		requestPath += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.cfg.BaseURL+requestPath, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	if c.hasCredentials() {
		timestamp := strconv.FormatInt(c.now().Unix(), 10)
		req.Header.Set("CB-ACCESS-KEY", c.cfg.APIKey)
		req.Header.Set("CB-ACCESS-TIMESTAMP", timestamp)
		req.Header.Set("CB-ACCESS-SIGN", c.sign(timestamp, method, requestPath, string(payload)))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("path", path).Msg("API request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error().Int("status", resp.StatusCode).Str("path", path).Msg("API error response")
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Ticker fetches the current ticker for a product.
func (c *Client) Ticker(ctx context.Context, productID string) (*Ticker, error) {
	var t Ticker
	if err := c.do(ctx, http.MethodGet, "/products/"+productID+"/ticker", nil, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Price fetches the current ticker price as a float.
func (c *Client) Price(ctx context.Context, productID string) (float64, error) {
	t, err := c.Ticker(ctx, productID)
	if err != nil {
		return 0, err
	}
	price, err := strconv.ParseFloat(t.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse ticker price %q: %w", t.Price, err)
	}
	return price, nil
}

// Candles fetches historical candles for a product, returned in ascending
// time order. Granularity is in seconds; zero start/end are omitted.
func (c *Client) Candles(ctx context.Context, productID string, granularity int, start, end time.Time) (domain.Series, error) {
	query := url.Values{}
	query.Set("granularity", strconv.Itoa(granularity))
	if !start.IsZero() {
		query.Set("start", start.UTC().Format(time.RFC3339))
	}
	if !end.IsZero() {
		query.Set("end", end.UTC().Format(time.RFC3339))
	}

	// the API returns rows of [time, low, high, open, close, volume]
	var rows [][]float64
	if err := c.do(ctx, http.MethodGet, "/products/"+productID+"/candles", query, nil, &rows); err != nil {
		return nil, err
	}

	series := make(domain.Series, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("malformed candle row with %d fields", len(row))
		}
		series = append(series, domain.Candle{
			Time:   time.Unix(int64(row[0]), 0).UTC(),
			Low:    row[1],
			High:   row[2],
			Open:   row[3],
			Close:  row[4],
			Volume: row[5],
		})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Time.Before(series[j].Time) })
	return series, nil
}

// Accounts lists the account balances. Requires credentials.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	if !c.hasCredentials() {
		return nil, ErrNoCredentials
	}
	var accounts []Account
	if err := c.do(ctx, http.MethodGet, "/accounts", nil, nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// PlaceMarketOrder submits a market order. Requires credentials.
func (c *Client) PlaceMarketOrder(ctx context.Context, productID, side, size string) (*Order, error) {
	if !c.hasCredentials() {
		return nil, ErrNoCredentials
	}
	body := marketOrderRequest{
		ProductID: productID,
		Side:      side,
		Size:      size,
		Type:      "market",
	}
	var order Order
	if err := c.do(ctx, http.MethodPost, "/orders", nil, body, &order); err != nil {
		return nil, err
	}
	c.log.Info().Str("product", productID).Str("side", side).Str("size", size).Msg("placed market order")
	return &order, nil
}

// Fills lists executions, optionally filtered by product. Requires
// credentials.
func (c *Client) Fills(ctx context.Context, productID string) ([]Fill, error) {
	if !c.hasCredentials() {
		return nil, ErrNoCredentials
	}
	query := url.Values{}
	if productID != "" {
		query.Set("product_id", productID)
	}
	var fills []Fill
	if err := c.do(ctx, http.MethodGet, "/fills", query, nil, &fills); err != nil {
		return nil, err
	}
	return fills, nil
}
