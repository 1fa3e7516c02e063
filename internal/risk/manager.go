// Package risk enforces account-level risk limits and position sizing.
package risk

import (
	"math"
	"sync"

	"github.com/tradecrest/quantagent/internal/config"
	"github.com/tradecrest/quantagent/internal/logging"
)

// TradeParams describes a prospective trade to validate.
type TradeParams struct {
	AccountBalance float64
	EntryPrice     float64
	StopLoss       float64
}

// Validation is the outcome of checking a prospective trade.
type Validation struct {
	Valid         bool    `json:"isValid"`
	Reason        string  `json:"reason,omitempty"`
	SuggestedSize float64 `json:"suggestedSize"`
}

// Manager tracks account balance and enforces daily-loss and drawdown limits.
// All methods are safe for concurrent use.
type Manager struct {
	cfg config.RiskConfig
	log *logging.Logger

	mu             sync.Mutex
	currentBalance float64
	peakBalance    float64
	dailyLosses    float64
}

// NewManager creates a risk manager starting at the configured initial balance.
func NewManager(cfg config.RiskConfig, log *logging.Logger) *Manager {
	return &Manager{
		cfg:            cfg,
		log:            log.Sub("risk"),
		currentBalance: cfg.InitialBalance,
		peakBalance:    cfg.InitialBalance,
	}
}

// PositionSize returns the position size (in units) that risks the configured
// fraction of the account balance between entry and stop. The result is capped
// at MaxPositionSize; a zero price risk yields zero.
func (m *Manager) PositionSize(balance, entry, stop float64) float64 {
	priceRisk := math.Abs(entry - stop)
	if priceRisk == 0 || balance <= 0 {
		return 0
	}
	riskAmount := balance * (m.cfg.PositionSizing / 100)
	size := riskAmount / priceRisk
	if size > m.cfg.MaxPositionSize {
		size = m.cfg.MaxPositionSize
	}
	return size
}

// ValidateTrade checks a prospective trade against risk limits.
// Drawdown is checked before the daily loss limit so a breached account is
// reported as drawn down even when the day's losses also exceed their cap.
func (m *Manager) ValidateTrade(p TradeParams) Validation {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.AccountBalance <= 0 || p.EntryPrice <= 0 || p.StopLoss <= 0 {
		return Validation{Valid: false, Reason: "Missing required trade parameters"}
	}

	if m.peakBalance > 0 {
		drawdownPct := (m.peakBalance - m.currentBalance) / m.peakBalance * 100
		if drawdownPct >= m.cfg.MaxDrawdown {
			m.log.Warn().Float64("drawdownPct", drawdownPct).Msg("trade rejected")
			return Validation{Valid: false, Reason: "Maximum drawdown reached"}
		}
	}

	dailyLimit := m.cfg.InitialBalance * (m.cfg.MaxDailyLoss / 100)
	if m.dailyLosses >= dailyLimit {
		m.log.Warn().Float64("dailyLosses", m.dailyLosses).Msg("trade rejected")
		return Validation{Valid: false, Reason: "Daily loss limit reached"}
	}

	size := m.PositionSize(p.AccountBalance, p.EntryPrice, p.StopLoss)
	if size <= 0 {
		return Validation{Valid: false, Reason: "Position size rounds to zero"}
	}

	return Validation{Valid: true, SuggestedSize: size}
}

// RecordTrade applies a realized PnL to the account. Losses accumulate into
// the daily loss counter; the peak balance only moves up.
func (m *Manager) RecordTrade(pnl float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.currentBalance += pnl
	if m.currentBalance > m.peakBalance {
		m.peakBalance = m.currentBalance
	}
	if pnl < 0 {
		m.dailyLosses += -pnl
	}

	m.log.Debug().
		Float64("pnl", pnl).
		Float64("balance", m.currentBalance).
		Float64("dailyLosses", m.dailyLosses).
		Msg("trade recorded")
}

// ResetDaily clears the daily loss counter, e.g. at the start of a session.
func (m *Manager) ResetDaily() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dailyLosses = 0
}

// CurrentBalance returns the current account balance.
func (m *Manager) CurrentBalance() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentBalance
}

// PeakBalance returns the highest balance seen.
func (m *Manager) PeakBalance() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peakBalance
}

// DailyLosses returns the accumulated losses since the last daily reset.
func (m *Manager) DailyLosses() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dailyLosses
}
