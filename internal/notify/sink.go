// Package notify fans out price ticks and alerts to delivery sinks.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/tradecrest/quantagent/internal/domain"
	"github.com/tradecrest/quantagent/internal/logging"
)

// Alert is raised when a product's price moves beyond the configured
// threshold between consecutive ticks.
type Alert struct {
	ProductID string    `json:"productId"`
	Price     float64   `json:"price"`
	ChangePct float64   `json:"changePct"`
	Time      time.Time `json:"time"`
}

func (a Alert) String() string {
	return fmt.Sprintf("ALERT %s moved %+.2f%% to $%.2f", a.ProductID, a.ChangePct, a.Price)
}

// Sink receives ticks and alerts. Implementations must be safe for
// concurrent use.
type Sink interface {
	ID() string
	Tick(t domain.Tick)
	Alert(a Alert)
}

// Fanout broadcasts to a set of sinks.
type Fanout struct {
	mu    sync.RWMutex
	sinks []Sink
	log   *logging.Logger
}

// NewFanout creates a fanout over the given sinks.
func NewFanout(log *logging.Logger, sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks, log: log.Sub("notify")}
}

// Add registers another sink.
func (f *Fanout) Add(s Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks = append(f.sinks, s)
	f.log.Info().Str("sink", s.ID()).Msg("sink registered")
}

// Tick delivers a tick to every sink.
func (f *Fanout) Tick(t domain.Tick) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, s := range f.sinks {
		s.Tick(t)
	}
}

// Alert delivers an alert to every sink.
func (f *Fanout) Alert(a Alert) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, s := range f.sinks {
		s.Alert(a)
	}
}
