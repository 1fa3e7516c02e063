package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradecrest/quantagent/internal/config"
	"github.com/tradecrest/quantagent/internal/domain"
	"github.com/tradecrest/quantagent/internal/logging"
	"github.com/tradecrest/quantagent/internal/market"
	"github.com/tradecrest/quantagent/internal/risk"
)

func testBacktester(t *testing.T, cfg config.BacktestConfig) *Backtester {
	t.Helper()
	log := logging.New(nil, "silent")
	rm := risk.NewManager(config.RiskConfig{
		MaxDailyLoss:    2.0,
		MaxDrawdown:     15.0,
		PositionSizing:  1.0,
		MaxPositionSize: 1000,
		InitialBalance:  cfg.InitialCapital,
	}, log)
	analyzer := market.NewAnalyzer(config.AnalyzerConfig{
		MinDataPoints: 20,
		RSIPeriod:     14,
		ShortMAPeriod: 9,
		LongMAPeriod:  21,
	}, rm, log)
	return New(cfg, analyzer, rm, log)
}

func defaultBacktestConfig() config.BacktestConfig {
	return config.BacktestConfig{
		InitialCapital: 500,
		StopLossPct:    0.02,
		TakeProfitPct:  0.03,
		MaxPositions:   5,
		MinConfidence:  0.7,
	}
}

// trendSeries builds a zigzag candle series with a net upward drift.
func trendSeries(base float64, steps []float64, n int) domain.Series {
	series := make(domain.Series, n)
	price := base
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		price += steps[i%len(steps)]
		series[i] = domain.Candle{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 1000,
		}
	}
	return series
}

func TestRunEmptySeries(t *testing.T) {
	b := testBacktester(t, defaultBacktestConfig())

	report, err := b.Run(nil)
	require.NoError(t, err)

	assert.Equal(t, 500.0, report.Overview.InitialCapital)
	assert.Equal(t, 500.0, report.Overview.FinalCapital)
	assert.Zero(t, report.Overview.TotalTrades)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, []float64{500}, report.EquityCurve)
}

func TestRunSingleCandle(t *testing.T) {
	b := testBacktester(t, defaultBacktestConfig())

	report, err := b.Run(trendSeries(100, []float64{1}, 1))
	require.NoError(t, err)

	assert.Zero(t, report.Overview.TotalTrades)
	assert.Equal(t, 500.0, report.Overview.FinalCapital)
}

func TestRunRequiresCollaborators(t *testing.T) {
	b := &Backtester{cfg: defaultBacktestConfig(), log: logging.New(nil, "silent")}

	_, err := b.Run(trendSeries(100, []float64{1}, 10))
	assert.Error(t, err)
}

func TestOpenPosition(t *testing.T) {
	b := testBacktester(t, defaultBacktestConfig())
	b.reset()

	bar := domain.Candle{Time: time.Now(), Close: 100, High: 101, Low: 99}
	b.openPosition(market.Analysis{Signal: domain.SignalBuy, Confidence: 0.9}, bar)

	require.Len(t, b.positions, 1)
	pos := b.positions[0]
	assert.Equal(t, domain.SideLong, pos.Side)
	assert.Equal(t, 100.0, pos.EntryPrice)
	assert.InDelta(t, 98.0, pos.StopLoss, 1e-9)
	assert.InDelta(t, 103.0, pos.TakeProfit, 1e-9)
	assert.Greater(t, pos.Size, 0.0)
	assert.NotEmpty(t, pos.ID)
}

func TestOpenPositionShort(t *testing.T) {
	b := testBacktester(t, defaultBacktestConfig())
	b.reset()

	bar := domain.Candle{Time: time.Now(), Close: 100}
	b.openPosition(market.Analysis{Signal: domain.SignalSell, Confidence: 0.9}, bar)

	require.Len(t, b.positions, 1)
	pos := b.positions[0]
	assert.Equal(t, domain.SideShort, pos.Side)
	assert.InDelta(t, 102.0, pos.StopLoss, 1e-9)
	assert.InDelta(t, 97.0, pos.TakeProfit, 1e-9)
}

func TestOpenPositionIgnoresNeutral(t *testing.T) {
	b := testBacktester(t, defaultBacktestConfig())
	b.reset()

	b.openPosition(market.Analysis{Signal: domain.SignalNeutral}, domain.Candle{Close: 100})
	assert.Empty(t, b.positions)
}

func TestClosePositionProfit(t *testing.T) {
	b := testBacktester(t, defaultBacktestConfig())
	b.reset()

	pos := domain.Position{
		ID:           "t-1",
		Side:         domain.SideLong,
		EntryPrice:   100,
		Size:         2,
		EntryCapital: 500,
		EntryTime:    time.Now(),
	}
	b.closePosition(pos, 103, "Take Profit", time.Now())

	assert.InDelta(t, 506.0, b.capital, 1e-9)
	require.Len(t, b.history, 1)
	tr := b.history[0]
	assert.InDelta(t, 6.0, tr.PnL, 1e-9)
	assert.InDelta(t, 1.2, tr.ReturnPct, 1e-9)
	assert.Equal(t, "Take Profit", tr.ExitReason)
}

func TestClosePositionShortProfit(t *testing.T) {
	b := testBacktester(t, defaultBacktestConfig())
	b.reset()

	pos := domain.Position{
		Side:         domain.SideShort,
		EntryPrice:   100,
		Size:         2,
		EntryCapital: 500,
	}
	b.closePosition(pos, 97, "Take Profit", time.Now())

	assert.InDelta(t, 506.0, b.capital, 1e-9)
}

func TestSettlePositionsStopLoss(t *testing.T) {
	b := testBacktester(t, defaultBacktestConfig())
	b.reset()

	b.positions = []domain.Position{{
		Side:         domain.SideLong,
		EntryPrice:   100,
		StopLoss:     98,
		TakeProfit:   103,
		Size:         2,
		EntryCapital: 500,
	}}
	b.settlePositions(domain.Candle{High: 99, Low: 97, Close: 97.5, Time: time.Now()})

	assert.Empty(t, b.positions)
	require.Len(t, b.history, 1)
	assert.Equal(t, "Stop Loss", b.history[0].ExitReason)
	assert.InDelta(t, -4.0, b.history[0].PnL, 1e-9)
}

func TestSettlePositionsTakeProfit(t *testing.T) {
	b := testBacktester(t, defaultBacktestConfig())
	b.reset()

	b.positions = []domain.Position{{
		Side:         domain.SideLong,
		EntryPrice:   100,
		StopLoss:     98,
		TakeProfit:   103,
		Size:         2,
		EntryCapital: 500,
	}}
	b.settlePositions(domain.Candle{High: 104, Low: 99, Close: 103.5, Time: time.Now()})

	assert.Empty(t, b.positions)
	require.Len(t, b.history, 1)
	assert.Equal(t, "Take Profit", b.history[0].ExitReason)
	assert.InDelta(t, 6.0, b.history[0].PnL, 1e-9)
}

func TestSettlePositionsKeepsUntouched(t *testing.T) {
	b := testBacktester(t, defaultBacktestConfig())
	b.reset()

	b.positions = []domain.Position{{
		Side:       domain.SideLong,
		EntryPrice: 100,
		StopLoss:   98,
		TakeProfit: 103,
		Size:       2,
	}}
	b.settlePositions(domain.Candle{High: 101, Low: 99, Close: 100.5})

	assert.Len(t, b.positions, 1)
	assert.Empty(t, b.history)
}

func TestShouldTradeMaxPositions(t *testing.T) {
	cfg := defaultBacktestConfig()
	cfg.MaxPositions = 2
	b := testBacktester(t, cfg)
	b.reset()

	analysis := market.Analysis{Signal: domain.SignalBuy, Confidence: 0.9}
	assert.True(t, b.shouldTrade(analysis))

	b.positions = []domain.Position{{}, {}}
	assert.False(t, b.shouldTrade(analysis))
}

func TestShouldTradeConfidenceGate(t *testing.T) {
	b := testBacktester(t, defaultBacktestConfig())
	b.reset()

	assert.False(t, b.shouldTrade(market.Analysis{Signal: domain.SignalBuy, Confidence: 0.5}))
	assert.False(t, b.shouldTrade(market.Analysis{Signal: domain.SignalNeutral, Confidence: 0.9}))
	assert.True(t, b.shouldTrade(market.Analysis{Signal: domain.SignalSell, Confidence: 0.8}))
}

func TestRunTrendingSeries(t *testing.T) {
	cfg := defaultBacktestConfig()
	cfg.MinConfidence = 0 // take every signal so the run exercises the full cycle
	b := testBacktester(t, cfg)

	series := trendSeries(100, []float64{1.5, -1}, 160)
	report, err := b.Run(series)
	require.NoError(t, err)

	assert.Greater(t, report.Overview.TotalTrades, 0)
	assert.Len(t, report.EquityCurve, len(series))
	assert.Len(t, report.Drawdowns, len(series)-1)

	// final capital reconciles with the sum of closed trade PnL
	sum := cfg.InitialCapital
	for _, tr := range report.History {
		sum += tr.PnL
	}
	assert.InDelta(t, sum, report.Overview.FinalCapital, 1e-9)

	winning := 0
	for _, tr := range report.History {
		if tr.PnL > 0 {
			winning++
		}
	}
	assert.Equal(t, winning, report.Overview.WinningTrades)
}

func TestTradeMetrics(t *testing.T) {
	history := []domain.TradeRecord{
		{PnL: 5},
		{PnL: -2},
		{PnL: 5},
		{PnL: -2},
	}

	m := tradeMetrics(history)
	assert.InDelta(t, 0.5, m.WinRate, 1e-9)
	assert.InDelta(t, 5.0, m.AvgWin, 1e-9)
	assert.InDelta(t, -2.0, m.AvgLoss, 1e-9)
	assert.InDelta(t, 5.0, m.LargestWin, 1e-9)
	assert.InDelta(t, -2.0, m.LargestLoss, 1e-9)
}

func TestTradeMetricsEmpty(t *testing.T) {
	assert.Equal(t, TradeMetrics{}, tradeMetrics(nil))
}
