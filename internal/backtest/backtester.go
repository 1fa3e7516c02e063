// Package backtest replays candle history through the market analyzer and
// simulates risk-sized trades with stops and targets.
package backtest

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tradecrest/quantagent/internal/config"
	"github.com/tradecrest/quantagent/internal/domain"
	"github.com/tradecrest/quantagent/internal/logging"
	"github.com/tradecrest/quantagent/internal/market"
	"github.com/tradecrest/quantagent/internal/risk"
)

const progressInterval = 100

// Overview summarizes capital movement over a run.
type Overview struct {
	InitialCapital float64 `json:"initialCapital"`
	FinalCapital   float64 `json:"finalCapital"`
	TotalReturnPct float64 `json:"totalReturnPct"`
	TotalTrades    int     `json:"totalTrades"`
	WinningTrades  int     `json:"winningTrades"`
}

// RiskMetrics holds risk-adjusted performance figures.
type RiskMetrics struct {
	SharpeRatio       float64 `json:"sharpeRatio"`
	SortinoRatio      float64 `json:"sortinoRatio"`
	MaxDrawdown       float64 `json:"maxDrawdown"`
	ValueAtRisk       float64 `json:"valueAtRisk"`
	ExpectedShortfall float64 `json:"expectedShortfall"`
}

// TradeMetrics summarizes the closed trade distribution.
type TradeMetrics struct {
	WinRate     float64 `json:"winRate"`
	AvgWin      float64 `json:"avgWin"`
	AvgLoss     float64 `json:"avgLoss"`
	LargestWin  float64 `json:"largestWin"`
	LargestLoss float64 `json:"largestLoss"`
}

// Report is the full result of a backtest run.
type Report struct {
	RunID       string               `json:"runId"`
	StartedAt   time.Time            `json:"startedAt"`
	Overview    Overview             `json:"overview"`
	Risk        RiskMetrics          `json:"riskMetrics"`
	Trades      TradeMetrics         `json:"tradeMetrics"`
	EquityCurve []float64            `json:"equityCurve"`
	Drawdowns   []float64            `json:"drawdowns"`
	History     []domain.TradeRecord `json:"trades"`
}

// Backtester simulates a strategy over historical candles.
type Backtester struct {
	cfg      config.BacktestConfig
	analyzer *market.Analyzer
	risk     *risk.Manager
	log      *logging.Logger

	capital   float64
	positions []domain.Position
	history   []domain.TradeRecord
	equity    []float64
	drawdowns []float64
}

// New creates a backtester using the given analyzer and risk manager for
// signals and position sizing.
func New(cfg config.BacktestConfig, analyzer *market.Analyzer, rm *risk.Manager, log *logging.Logger) *Backtester {
	return &Backtester{
		cfg:      cfg,
		analyzer: analyzer,
		risk:     rm,
		log:      log.Sub("backtest"),
	}
}

// Run replays the candle series bar by bar and returns the report.
// Each bar's open positions are settled against the next bar's range before
// new entries are considered.
func (b *Backtester) Run(series domain.Series) (*Report, error) {
	if b.analyzer == nil || b.risk == nil {
		return nil, fmt.Errorf("backtester requires an analyzer and a risk manager")
	}

	b.reset()
	b.log.Info().Int("bars", len(series)).Msg("starting backtest")

	for i := 0; i+1 < len(series); i++ {
		window := series[:i+1]
		nextBar := series[i+1]

		b.settlePositions(nextBar)

		analysis := b.analyzer.Analyze(window)
		if b.shouldTrade(analysis) {
			b.openPosition(analysis, nextBar)
		}

		b.updateEquity()
		if i%progressInterval == 0 && i > 0 {
			b.log.Debug().
				Float64("progressPct", float64(i)/float64(len(series))*100).
				Float64("capital", b.capital).
				Msg("backtest progress")
		}
	}

	return b.report(), nil
}

func (b *Backtester) reset() {
	b.capital = b.cfg.InitialCapital
	b.positions = nil
	b.history = nil
	b.equity = []float64{b.cfg.InitialCapital}
	b.drawdowns = nil
}

func (b *Backtester) shouldTrade(analysis market.Analysis) bool {
	if len(b.positions) >= b.cfg.MaxPositions {
		return false
	}
	_, opens := domain.SideForSignal(analysis.Signal)
	return opens && analysis.Confidence > b.cfg.MinConfidence
}

func (b *Backtester) openPosition(analysis market.Analysis, bar domain.Candle) {
	side, ok := domain.SideForSignal(analysis.Signal)
	if !ok {
		return
	}

	entry := bar.Close
	stop := b.stopLoss(side, entry)
	target := b.takeProfit(side, entry)
	size := b.risk.PositionSize(b.capital, entry, stop)
	if size <= 0 {
		return
	}

	pos := domain.Position{
		ID:           uuid.New().String(),
		Side:         side,
		EntryPrice:   entry,
		Size:         size,
		StopLoss:     stop,
		TakeProfit:   target,
		EntryTime:    bar.Time,
		EntryCapital: b.capital,
	}
	b.positions = append(b.positions, pos)

	b.log.Debug().
		Str("side", string(side)).
		Float64("entry", entry).
		Float64("size", size).
		Msg("opened position")
}

// settlePositions closes any position whose stop or target is touched by the
// bar's range. Stops are checked first.
func (b *Backtester) settlePositions(bar domain.Candle) {
	remaining := b.positions[:0]
	for _, pos := range b.positions {
		switch {
		case b.hitStopLoss(pos, bar):
			b.closePosition(pos, pos.StopLoss, "Stop Loss", bar.Time)
		case b.hitTakeProfit(pos, bar):
			b.closePosition(pos, pos.TakeProfit, "Take Profit", bar.Time)
		default:
			remaining = append(remaining, pos)
		}
	}
	b.positions = remaining
}

func (b *Backtester) closePosition(pos domain.Position, exitPrice float64, reason string, at time.Time) {
	var pnl float64
	if pos.Side == domain.SideLong {
		pnl = (exitPrice - pos.EntryPrice) * pos.Size
	} else {
		pnl = (pos.EntryPrice - exitPrice) * pos.Size
	}
	b.capital += pnl

	returnPct := 0.0
	if pos.EntryCapital != 0 {
		returnPct = pnl / pos.EntryCapital * 100
	}

	b.history = append(b.history, domain.TradeRecord{
		ID:         pos.ID,
		Side:       pos.Side,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  exitPrice,
		Size:       pos.Size,
		PnL:        pnl,
		ReturnPct:  returnPct,
		EntryTime:  pos.EntryTime,
		ExitTime:   at,
		ExitReason: reason,
	})

	b.log.Debug().
		Str("side", string(pos.Side)).
		Float64("pnl", pnl).
		Str("reason", reason).
		Msg("closed position")
}

func (b *Backtester) hitStopLoss(pos domain.Position, bar domain.Candle) bool {
	if pos.Side == domain.SideLong {
		return bar.Low <= pos.StopLoss
	}
	return bar.High >= pos.StopLoss
}

func (b *Backtester) hitTakeProfit(pos domain.Position, bar domain.Candle) bool {
	if pos.Side == domain.SideLong {
		return bar.High >= pos.TakeProfit
	}
	return bar.Low <= pos.TakeProfit
}

func (b *Backtester) stopLoss(side domain.Side, entry float64) float64 {
	if side == domain.SideLong {
		return entry * (1 - b.cfg.StopLossPct)
	}
	return entry * (1 + b.cfg.StopLossPct)
}

func (b *Backtester) takeProfit(side domain.Side, entry float64) float64 {
	if side == domain.SideLong {
		return entry * (1 + b.cfg.TakeProfitPct)
	}
	return entry * (1 - b.cfg.TakeProfitPct)
}

func (b *Backtester) updateEquity() {
	b.equity = append(b.equity, b.capital)
	peak := b.equity[0]
	for _, v := range b.equity {
		if v > peak {
			peak = v
		}
	}
	drawdown := 0.0
	if peak > 0 {
		drawdown = (peak - b.capital) / peak
	}
	b.drawdowns = append(b.drawdowns, drawdown)
}

func (b *Backtester) report() *Report {
	returns := make([]float64, len(b.history))
	winning := 0
	for i, tr := range b.history {
		returns[i] = tr.ReturnPct
		if tr.PnL > 0 {
			winning++
		}
	}

	maxDrawdown := 0.0
	for _, d := range b.drawdowns {
		if d > maxDrawdown {
			maxDrawdown = d
		}
	}

	totalReturn := 0.0
	if b.cfg.InitialCapital != 0 {
		totalReturn = (b.capital/b.cfg.InitialCapital - 1) * 100
	}

	return &Report{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
		Overview: Overview{
			InitialCapital: b.cfg.InitialCapital,
			FinalCapital:   b.capital,
			TotalReturnPct: totalReturn,
			TotalTrades:    len(b.history),
			WinningTrades:  winning,
		},
		Risk: RiskMetrics{
			SharpeRatio:       sharpeRatio(returns),
			SortinoRatio:      sortinoRatio(returns),
			MaxDrawdown:       maxDrawdown,
			ValueAtRisk:       valueAtRisk(returns, 0.95),
			ExpectedShortfall: expectedShortfall(returns, 0.95),
		},
		Trades:      tradeMetrics(b.history),
		EquityCurve: b.equity,
		Drawdowns:   b.drawdowns,
		History:     b.history,
	}
}

func tradeMetrics(history []domain.TradeRecord) TradeMetrics {
	if len(history) == 0 {
		return TradeMetrics{}
	}

	var wins, losses []float64
	largestWin := history[0].PnL
	largestLoss := history[0].PnL
	for _, tr := range history {
		if tr.PnL > 0 {
			wins = append(wins, tr.PnL)
		} else if tr.PnL < 0 {
			losses = append(losses, tr.PnL)
		}
		if tr.PnL > largestWin {
			largestWin = tr.PnL
		}
		if tr.PnL < largestLoss {
			largestLoss = tr.PnL
		}
	}

	return TradeMetrics{
		WinRate:     float64(len(wins)) / float64(len(history)),
		AvgWin:      mean(wins),
		AvgLoss:     mean(losses),
		LargestWin:  largestWin,
		LargestLoss: largestLoss,
	}
}
