package notify

import (
	"github.com/tradecrest/quantagent/internal/domain"
	"github.com/tradecrest/quantagent/internal/logging"
)

// LogSink writes ticks and alerts to the structured log.
type LogSink struct {
	log *logging.Logger
}

// NewLogSink creates a sink that logs ticks at debug and alerts at warn.
func NewLogSink(log *logging.Logger) *LogSink {
	return &LogSink{log: log.Sub("ticker")}
}

func (s *LogSink) ID() string { return "log" }

func (s *LogSink) Tick(t domain.Tick) {
	s.log.Debug().
		Str("product", t.ProductID).
		Float64("price", t.Price).
		Float64("changePct", t.ChangePct).
		Float64("size", t.Size).
		Msg("tick")
}

func (s *LogSink) Alert(a Alert) {
	s.log.Warn().
		Str("product", a.ProductID).
		Float64("price", a.Price).
		Float64("changePct", a.ChangePct).
		Msg("price alert")
}
