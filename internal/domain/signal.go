package domain

import "time"

// Signal is an analyzer or agent trading recommendation.
type Signal string

const (
	SignalBuy     Signal = "BUY"
	SignalSell    Signal = "SELL"
	SignalNeutral Signal = "NEUTRAL"
)

// Side is the direction of an open position.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// SideForSignal maps a trading signal to a position side.
// Only BUY and SELL open positions; everything else returns false.
func SideForSignal(sig Signal) (Side, bool) {
	switch sig {
	case SignalBuy:
		return SideLong, true
	case SignalSell:
		return SideShort, true
	default:
		return "", false
	}
}

// Position is an open trade tracked by the backtester.
type Position struct {
	ID           string    `json:"id"`
	Side         Side      `json:"side"`
	EntryPrice   float64   `json:"entryPrice"`
	Size         float64   `json:"size"`
	StopLoss     float64   `json:"stopLoss"`
	TakeProfit   float64   `json:"takeProfit"`
	EntryTime    time.Time `json:"entryTime"`
	EntryCapital float64   `json:"entryCapital"`
}

// TradeRecord is a closed trade.
type TradeRecord struct {
	ID         string    `json:"id"`
	RunID      string    `json:"runId,omitempty"`
	Side       Side      `json:"side"`
	EntryPrice float64   `json:"entryPrice"`
	ExitPrice  float64   `json:"exitPrice"`
	Size       float64   `json:"size"`
	PnL        float64   `json:"pnl"`
	ReturnPct  float64   `json:"returnPct"`
	EntryTime  time.Time `json:"entryTime"`
	ExitTime   time.Time `json:"exitTime"`
	ExitReason string    `json:"exitReason"`
}
