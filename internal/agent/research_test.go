package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradecrest/quantagent/internal/domain"
	"github.com/tradecrest/quantagent/internal/logging"
)

type fixedSentiment struct {
	s Sentiment
}

func (f fixedSentiment) Sentiment(context.Context, string) (Sentiment, error) {
	return f.s, nil
}

func TestNeutralSentimentDefaults(t *testing.T) {
	r := NewResearch("r", fixedPrices{price: 50000}, nil, logging.New(nil, "silent"))

	report, err := r.AnalyzeSentiment(context.Background(), "BTC-USD")
	require.NoError(t, err)

	assert.Equal(t, domain.SignalNeutral, report.Signal)
	assert.InDelta(t, 0.5, report.Confidence, 1e-9)
	assert.Equal(t, 50000.0, report.Price)
	assert.Equal(t, Sentiment{0.5, 0.5, 0.5}, report.Sentiment)
}

func TestSentimentSignalThresholds(t *testing.T) {
	tests := []struct {
		name string
		s    Sentiment
		want domain.Signal
	}{
		{"bullish", Sentiment{0.9, 0.8, 0.7}, domain.SignalBuy},
		{"bearish", Sentiment{0.1, 0.2, 0.3}, domain.SignalSell},
		{"mixed", Sentiment{0.5, 0.6, 0.4}, domain.SignalNeutral},
		{"boundary high", Sentiment{0.7, 0.7, 0.7}, domain.SignalNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResearch("r", fixedPrices{price: 100}, fixedSentiment{tt.s}, logging.New(nil, "silent"))
			report, err := r.AnalyzeSentiment(context.Background(), "BTC-USD")
			require.NoError(t, err)
			assert.Equal(t, tt.want, report.Signal)
			assert.InDelta(t, tt.s.Mean(), report.Confidence, 1e-9)
		})
	}
}

func TestResearchTasks(t *testing.T) {
	r := NewResearch("r", fixedPrices{price: 100}, nil, logging.New(nil, "silent"))
	assert.Equal(t, []string{TaskAnalyzeSentiment}, r.Tasks())
}
