package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSideForSignal(t *testing.T) {
	tests := []struct {
		sig    Signal
		side   Side
		opens  bool
	}{
		{SignalBuy, SideLong, true},
		{SignalSell, SideShort, true},
		{SignalNeutral, "", false},
		{Signal("ERROR"), "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.sig), func(t *testing.T) {
			side, ok := SideForSignal(tt.sig)
			assert.Equal(t, tt.opens, ok)
			assert.Equal(t, tt.side, side)
		})
	}
}

func TestSeriesAccessors(t *testing.T) {
	now := time.Now()
	s := Series{
		{Time: now, Close: 100, Volume: 1000},
		{Time: now.Add(time.Minute), Close: 101, Volume: 1100},
		{Time: now.Add(2 * time.Minute), Close: 99, Volume: 900},
	}

	assert.Equal(t, []float64{100, 101, 99}, s.Closes())
	assert.Equal(t, []float64{1000, 1100, 900}, s.Volumes())
	assert.Equal(t, 99.0, s.Last().Close)
}
