package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradecrest/quantagent/internal/config"
	"github.com/tradecrest/quantagent/internal/logging"
	"github.com/tradecrest/quantagent/internal/risk"
)

func testTrading(t *testing.T) *Trading {
	t.Helper()
	log := logging.New(nil, "silent")
	rm := risk.NewManager(config.RiskConfig{
		MaxDailyLoss:    2.0,
		MaxDrawdown:     15.0,
		PositionSizing:  1.0,
		MaxPositionSize: 1000,
		InitialBalance:  500,
	}, log)
	return NewTrading("trader", rm, log)
}

func TestAnalyzeTradeOpportunity(t *testing.T) {
	a := testTrading(t)
	ctx := context.Background()

	advice := a.AnalyzeTradeOpportunity(ctx, "BTC-USD", 54000,
		[]float64{50000, 51000, 52000, 53000, 54000})

	assert.Equal(t, "BTC-USD", advice.Symbol)
	assert.Contains(t, []string{ActionBuy, ActionSell, ActionHold}, advice.Action)
	assert.GreaterOrEqual(t, advice.Confidence, 0.0)
	assert.LessOrEqual(t, advice.Confidence, 1.0)
	assert.False(t, advice.Timestamp.IsZero())
}

func TestAnalyzeTradeCrossover(t *testing.T) {
	a := testTrading(t)
	ctx := context.Background()

	// 15 flat bars then 5 sharply higher: short MA well above long MA
	rising := append(constant(100, 15), 120, 125, 130, 135, 140)
	advice := a.AnalyzeTradeOpportunity(ctx, "BTC-USD", 140, rising)
	assert.Equal(t, ActionBuy, advice.Action)
	assert.Greater(t, advice.Confidence, 0.0)
	assert.Greater(t, advice.ShortMA, advice.LongMA)

	falling := append(constant(100, 15), 80, 75, 70, 65, 60)
	advice = a.AnalyzeTradeOpportunity(ctx, "BTC-USD", 60, falling)
	assert.Equal(t, ActionSell, advice.Action)
	assert.Greater(t, advice.Confidence, 0.0)

	flat := constant(100, 20)
	advice = a.AnalyzeTradeOpportunity(ctx, "BTC-USD", 100, flat)
	assert.Equal(t, ActionHold, advice.Action)
	assert.Zero(t, advice.Confidence)
}

func TestAnalyzeTradeInvalidPrice(t *testing.T) {
	a := testTrading(t)

	advice := a.AnalyzeTradeOpportunity(context.Background(), "BTC-USD", 0, []float64{1, 2, 3})
	assert.Equal(t, ActionHold, advice.Action)
	assert.Zero(t, advice.Confidence)
	assert.Equal(t, "invalid price data", advice.Reason)
}

func TestAnalyzeTradeInsufficientHistory(t *testing.T) {
	a := testTrading(t)

	advice := a.AnalyzeTradeOpportunity(context.Background(), "BTC-USD", 50000, []float64{50000})
	assert.Equal(t, ActionHold, advice.Action)
	assert.Zero(t, advice.Confidence)
	assert.Equal(t, "insufficient price history", advice.Reason)
}

func TestTradingExecuteParams(t *testing.T) {
	a := testTrading(t)
	ctx := context.Background()

	result, err := a.Execute(ctx, TaskAnalyzeTrade, Params{
		"symbol":  "BTC-USD",
		"price":   50000.0,
		"history": []float64{50000, 50100},
	})
	require.NoError(t, err)
	advice, ok := result.(TradeAdvice)
	require.True(t, ok)
	assert.Equal(t, "BTC-USD", advice.Symbol)

	_, err = a.Execute(ctx, "bogus", Params{"symbol": "BTC-USD"})
	assert.ErrorContains(t, err, "does not support task")
}

func constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
