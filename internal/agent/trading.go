package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/tradecrest/quantagent/internal/logging"
	"github.com/tradecrest/quantagent/internal/risk"
)

const (
	tradeShortWindow = 5
	tradeLongWindow  = 20
	tradeMABand      = 0.02
)

// Trade actions produced by the trading agent.
const (
	ActionBuy  = "buy"
	ActionSell = "sell"
	ActionHold = "hold"
)

// TradeAdvice is the result of a trade opportunity analysis.
type TradeAdvice struct {
	Symbol     string    `json:"symbol"`
	Action     string    `json:"action"`
	Confidence float64   `json:"confidence"`
	Reason     string    `json:"reason,omitempty"`
	Price      float64   `json:"price"`
	ShortMA    float64   `json:"shortMA,omitempty"`
	LongMA     float64   `json:"longMA,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Trading looks for moving average crossovers in recent price history.
type Trading struct {
	name string
	risk *risk.Manager
	log  *logging.Logger
}

// NewTrading creates a trading agent with its own risk manager.
func NewTrading(name string, rm *risk.Manager, log *logging.Logger) *Trading {
	return &Trading{
		name: name,
		risk: rm,
		log:  log.Sub("trading"),
	}
}

func (t *Trading) Name() string { return t.name }

func (t *Trading) Kind() string { return KindTrading }

func (t *Trading) Tasks() []string { return []string{TaskAnalyzeTrade} }

// Risk exposes the agent's risk manager.
func (t *Trading) Risk() *risk.Manager { return t.risk }

func (t *Trading) Execute(ctx context.Context, task string, params Params) (any, error) {
	if task != TaskAnalyzeTrade {
		return nil, fmt.Errorf("agent %q does not support task %q", t.name, task)
	}
	symbol, err := params.symbol()
	if err != nil {
		return nil, err
	}
	price, _ := params.float("price")
	history := params.floats("history")
	return t.AnalyzeTradeOpportunity(ctx, symbol, price, history), nil
}

// AnalyzeTradeOpportunity compares a short and a long moving average over
// the price history. A short MA more than 2% above the long MA buys, more
// than 2% below sells, otherwise hold. Confidence scales with the gap.
func (t *Trading) AnalyzeTradeOpportunity(_ context.Context, symbol string, price float64, history []float64) TradeAdvice {
	t.log.Info().Str("symbol", symbol).Msg("analyzing trading opportunity")

	advice := TradeAdvice{
		Symbol:    symbol,
		Action:    ActionHold,
		Price:     price,
		Timestamp: time.Now(),
	}
	if price <= 0 {
		advice.Reason = "invalid price data"
		return advice
	}
	if len(history) < 2 {
		advice.Reason = "insufficient price history"
		return advice
	}

	shortMA := tailMean(history, tradeShortWindow)
	longMA := tailMean(history, tradeLongWindow)
	advice.ShortMA = shortMA
	advice.LongMA = longMA

	ratio := shortMA / longMA
	switch {
	case ratio > 1+tradeMABand:
		advice.Action = ActionBuy
		advice.Confidence = clamp((ratio-1)*5, 0, 1)
	case ratio < 1-tradeMABand:
		advice.Action = ActionSell
		advice.Confidence = clamp((1-ratio)*5, 0, 1)
	}
	return advice
}

func tailMean(values []float64, n int) float64 {
	if len(values) < n {
		n = len(values)
	}
	tail := values[len(values)-n:]
	var sum float64
	for _, v := range tail {
		sum += v
	}
	return sum / float64(n)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
