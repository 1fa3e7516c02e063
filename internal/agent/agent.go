// Package agent implements the research and trading agents and the master
// registry that creates them and dispatches their tasks.
package agent

import (
	"context"
	"fmt"
)

// Task names dispatched through the master.
const (
	TaskAnalyzeSentiment = "analyze_market_sentiment"
	TaskAnalyzeTrade     = "analyze_trade_opportunity"
)

// Agent kinds accepted by Master.Create.
const (
	KindResearch = "research"
	KindTrading  = "trading"
)

// Params carries task arguments by name.
type Params map[string]any

// Agent is a named worker that executes a fixed set of tasks.
type Agent interface {
	Name() string
	Kind() string
	Tasks() []string
	Execute(ctx context.Context, task string, params Params) (any, error)
}

func (p Params) symbol() (string, error) {
	s, ok := p["symbol"].(string)
	if !ok || s == "" {
		return "", fmt.Errorf("missing required parameter %q", "symbol")
	}
	return s, nil
}

func (p Params) float(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func (p Params) floats(key string) []float64 {
	switch v := p[key].(type) {
	case []float64:
		return v
	case []any:
		out := make([]float64, 0, len(v))
		for _, e := range v {
			if f, ok := e.(float64); ok {
				out = append(out, f)
			}
		}
		return out
	}
	return nil
}
