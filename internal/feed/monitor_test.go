package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradecrest/quantagent/internal/config"
	"github.com/tradecrest/quantagent/internal/domain"
	"github.com/tradecrest/quantagent/internal/logging"
	"github.com/tradecrest/quantagent/internal/notify"
)

type capturePublisher struct {
	mu     sync.Mutex
	ticks  []domain.Tick
	alerts []notify.Alert
}

func (c *capturePublisher) Tick(t domain.Tick) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = append(c.ticks, t)
}

func (c *capturePublisher) Alert(a notify.Alert) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = append(c.alerts, a)
}

func (c *capturePublisher) snapshot() ([]domain.Tick, []notify.Alert) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Tick(nil), c.ticks...), append([]notify.Alert(nil), c.alerts...)
}

func testMonitor(cfg config.FeedConfig) (*Monitor, *capturePublisher) {
	pub := &capturePublisher{}
	return NewMonitor(cfg, pub, logging.New(nil, "silent")), pub
}

func tickerJSON(price string) []byte {
	return []byte(fmt.Sprintf(
		`{"type":"ticker","product_id":"BTC-USD","price":%q,"last_size":"0.5","time":"2024-01-01T00:00:00Z"}`,
		price))
}

func TestProcessMessageTicker(t *testing.T) {
	m, pub := testMonitor(config.FeedConfig{Product: "BTC-USD", MaxHistory: 1000, AlertThreshold: 0.5})

	m.processMessage(tickerJSON("50000"))

	ticks, alerts := pub.snapshot()
	require.Len(t, ticks, 1)
	assert.Equal(t, "BTC-USD", ticks[0].ProductID)
	assert.Equal(t, 50000.0, ticks[0].Price)
	assert.Equal(t, 0.5, ticks[0].Size)
	assert.Zero(t, ticks[0].ChangePct) // first tick has no reference price
	assert.Empty(t, alerts)

	price, ok := m.LastPrice()
	require.True(t, ok)
	assert.Equal(t, 50000.0, price)
}

func TestProcessMessageComputesChange(t *testing.T) {
	m, pub := testMonitor(config.FeedConfig{Product: "BTC-USD", MaxHistory: 1000, AlertThreshold: 0.5})

	m.processMessage(tickerJSON("50000"))
	m.processMessage(tickerJSON("50100"))

	ticks, alerts := pub.snapshot()
	require.Len(t, ticks, 2)
	assert.InDelta(t, 0.2, ticks[1].ChangePct, 1e-9)
	assert.Empty(t, alerts)
}

func TestProcessMessageRaisesAlert(t *testing.T) {
	m, pub := testMonitor(config.FeedConfig{Product: "BTC-USD", MaxHistory: 1000, AlertThreshold: 0.5})

	m.processMessage(tickerJSON("50000"))
	m.processMessage(tickerJSON("49600")) // -0.8%

	_, alerts := pub.snapshot()
	require.Len(t, alerts, 1)
	assert.InDelta(t, -0.8, alerts[0].ChangePct, 1e-9)
	assert.Equal(t, 49600.0, alerts[0].Price)
}

func TestProcessMessageIgnoresNonTicker(t *testing.T) {
	m, pub := testMonitor(config.FeedConfig{Product: "BTC-USD", MaxHistory: 1000})

	m.processMessage([]byte(`{"type":"subscriptions","channels":[]}`))
	m.processMessage([]byte(`{"type":"heartbeat"}`))

	ticks, _ := pub.snapshot()
	assert.Empty(t, ticks)
	assert.Empty(t, m.History())
}

func TestProcessMessageMalformed(t *testing.T) {
	m, pub := testMonitor(config.FeedConfig{Product: "BTC-USD", MaxHistory: 1000})

	m.processMessage([]byte(`{not json`))
	m.processMessage([]byte(`{"type":"ticker","price":"oops"}`))

	ticks, _ := pub.snapshot()
	assert.Empty(t, ticks)
}

func TestHistoryBounded(t *testing.T) {
	m, _ := testMonitor(config.FeedConfig{Product: "BTC-USD", MaxHistory: 5})

	for i := 0; i < 12; i++ {
		m.processMessage(tickerJSON(fmt.Sprintf("%d", 50000+i)))
	}

	history := m.History()
	require.Len(t, history, 5)
	assert.Equal(t, 50007.0, history[0].Price)
	assert.Equal(t, 50011.0, history[4].Price)
}

func TestRunOnceSubscribesAndStreams(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var sub subscribeRequest
		require.NoError(t, conn.ReadJSON(&sub))
		assert.Equal(t, "subscribe", sub.Type)
		assert.Equal(t, []string{"BTC-USD"}, sub.ProductIDs)
		assert.Equal(t, []string{"ticker"}, sub.Channels)

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, tickerJSON("50000")))
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, tickerJSON("50200")))
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	m, pub := testMonitor(config.FeedConfig{
		Product:        "BTC-USD",
		WSURL:          wsURL,
		MaxHistory:     1000,
		AlertThreshold: 0.3,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// server closes after two ticks, runOnce returns the read error
	err := m.runOnce(ctx)
	assert.Error(t, err)

	ticks, alerts := pub.snapshot()
	require.Len(t, ticks, 2)
	assert.InDelta(t, 0.4, ticks[1].ChangePct, 1e-9)
	require.Len(t, alerts, 1)

	var decoded tickerMessage
	require.NoError(t, json.Unmarshal(tickerJSON("50000"), &decoded))
	assert.Equal(t, ticks[0].Time, decoded.Time)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	m, _ := testMonitor(config.FeedConfig{Product: "BTC-USD", WSURL: "ws://127.0.0.1:1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
