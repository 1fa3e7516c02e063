// Package feed streams live ticker data from the Coinbase websocket feed
// and raises alerts on sharp price moves.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tradecrest/quantagent/internal/config"
	"github.com/tradecrest/quantagent/internal/domain"
	"github.com/tradecrest/quantagent/internal/logging"
	"github.com/tradecrest/quantagent/internal/notify"
)

const (
	reconnectMin = time.Second
	reconnectMax = 30 * time.Second
)

// Publisher receives every processed tick and any alerts the monitor
// raises. *notify.Fanout satisfies it.
type Publisher interface {
	Tick(t domain.Tick)
	Alert(a notify.Alert)
}

type subscribeRequest struct {
	Type       string   `json:"type"`
	ProductIDs []string `json:"product_ids"`
	Channels   []string `json:"channels"`
}

// tickerMessage is the feed's ticker channel payload. Numeric fields come
// over the wire as strings.
type tickerMessage struct {
	Type      string    `json:"type"`
	ProductID string    `json:"product_id"`
	Price     string    `json:"price"`
	LastSize  string    `json:"last_size"`
	Time      time.Time `json:"time"`
}

// Monitor maintains a websocket subscription to a product's ticker channel,
// keeps a rolling price history, and publishes ticks and alerts.
type Monitor struct {
	cfg config.FeedConfig
	pub Publisher
	log *logging.Logger

	mu      sync.RWMutex
	history []domain.Tick
}

// NewMonitor creates a monitor for the configured product.
func NewMonitor(cfg config.FeedConfig, pub Publisher, log *logging.Logger) *Monitor {
	return &Monitor{
		cfg: cfg,
		pub: pub,
		log: log.Sub("feed"),
	}
}

// Run connects to the feed and processes messages until ctx is cancelled,
// reconnecting with exponential backoff on connection loss.
func (m *Monitor) Run(ctx context.Context) error {
	backoff := reconnectMin
	for {
		err := m.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.log.Warn().Err(err).Dur("retryIn", backoff).Msg("feed connection lost, reconnecting")

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
		if backoff > reconnectMax {
			backoff = reconnectMax
		}
	}
}

func (m *Monitor) runOnce(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, m.cfg.WSURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", m.cfg.WSURL, err)
	}
	defer conn.Close()

	// unblock ReadMessage when ctx is cancelled
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	sub := subscribeRequest{
		Type:       "subscribe",
		ProductIDs: []string{m.cfg.Product},
		Channels:   []string{"ticker"},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	m.log.Info().Str("product", m.cfg.Product).Str("url", m.cfg.WSURL).Msg("subscribed to ticker feed")

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		m.processMessage(raw)
	}
}

// processMessage handles one raw feed message. Non-ticker messages and
// malformed payloads are logged and skipped.
func (m *Monitor) processMessage(raw []byte) {
	var msg tickerMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		m.log.Warn().Err(err).Msg("malformed feed message")
		return
	}
	if msg.Type != "ticker" {
		return
	}

	price, err := strconv.ParseFloat(msg.Price, 64)
	if err != nil {
		m.log.Warn().Str("price", msg.Price).Msg("unparseable ticker price")
		return
	}
	size, _ := strconv.ParseFloat(msg.LastSize, 64)

	tick := domain.Tick{
		ProductID: msg.ProductID,
		Price:     price,
		Size:      size,
		Time:      msg.Time,
	}

	m.mu.Lock()
	if last, ok := m.lastLocked(); ok && last.Price != 0 {
		tick.ChangePct = (price - last.Price) / last.Price * 100
	}
	m.history = append(m.history, tick)
	if max := m.cfg.MaxHistory; max > 0 && len(m.history) > max {
		m.history = m.history[len(m.history)-max:]
	}
	m.mu.Unlock()

	if m.pub != nil {
		m.pub.Tick(tick)
		if abs(tick.ChangePct) > m.cfg.AlertThreshold {
			m.pub.Alert(notify.Alert{
				ProductID: tick.ProductID,
				Price:     tick.Price,
				ChangePct: tick.ChangePct,
				Time:      tick.Time,
			})
		}
	}
}

func (m *Monitor) lastLocked() (domain.Tick, bool) {
	if len(m.history) == 0 {
		return domain.Tick{}, false
	}
	return m.history[len(m.history)-1], true
}

// LastPrice returns the most recent price seen, if any.
func (m *Monitor) LastPrice() (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	last, ok := m.lastLocked()
	return last.Price, ok
}

// History returns a copy of the rolling tick history.
func (m *Monitor) History() []domain.Tick {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Tick, len(m.history))
	copy(out, m.history)
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
