// Package domain holds the core market data types shared across packages.
package domain

import "time"

// Candle is one OHLCV bar.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is an ordered slice of candles, oldest first.
type Series []Candle

// Closes returns the close prices of the series.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

// Volumes returns the volumes of the series.
func (s Series) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Volume
	}
	return out
}

// Last returns the most recent candle. The series must be non-empty.
func (s Series) Last() Candle {
	return s[len(s)-1]
}

// Tick is a single trade observed on a live feed.
type Tick struct {
	ProductID string    `json:"productId"`
	Price     float64   `json:"price"`
	Size      float64   `json:"size"`
	Time      time.Time `json:"time"`
	// ChangePct is the percent move from the previous tick, 0 for the first.
	ChangePct float64 `json:"changePct"`
}
