package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/tradecrest/quantagent/internal/domain"
	"github.com/tradecrest/quantagent/internal/logging"
)

// Sentiment holds the component scores used to derive a sentiment signal.
// Each score is in [0, 1].
type Sentiment struct {
	SocialScore    float64 `json:"socialScore"`
	NewsSentiment  float64 `json:"newsSentiment"`
	MarketMomentum float64 `json:"marketMomentum"`
}

// Mean is the average of the component scores.
func (s Sentiment) Mean() float64 {
	return (s.SocialScore + s.NewsSentiment + s.MarketMomentum) / 3
}

// SentimentSource supplies sentiment scores for a symbol.
type SentimentSource interface {
	Sentiment(ctx context.Context, symbol string) (Sentiment, error)
}

// NeutralSentiment is a SentimentSource that scores everything 0.5. It is
// the default until a real data provider is plugged in.
type NeutralSentiment struct{}

func (NeutralSentiment) Sentiment(context.Context, string) (Sentiment, error) {
	return Sentiment{SocialScore: 0.5, NewsSentiment: 0.5, MarketMomentum: 0.5}, nil
}

// PriceSource supplies the current price for a product. The exchange
// client satisfies it.
type PriceSource interface {
	Price(ctx context.Context, productID string) (float64, error)
}

// SentimentReport is the result of a sentiment analysis task.
type SentimentReport struct {
	Symbol     string        `json:"symbol"`
	Signal     domain.Signal `json:"signal"`
	Confidence float64       `json:"confidence"`
	Price      float64       `json:"price"`
	Sentiment  Sentiment     `json:"sentiment"`
	Timestamp  time.Time     `json:"timestamp"`
}

// Research derives buy/sell signals from aggregated sentiment scores.
type Research struct {
	name      string
	prices    PriceSource
	sentiment SentimentSource
	log       *logging.Logger
}

// NewResearch creates a research agent. A nil sentiment source falls back
// to NeutralSentiment.
func NewResearch(name string, prices PriceSource, sentiment SentimentSource, log *logging.Logger) *Research {
	if sentiment == nil {
		sentiment = NeutralSentiment{}
	}
	return &Research{
		name:      name,
		prices:    prices,
		sentiment: sentiment,
		log:       log.Sub("research"),
	}
}

func (r *Research) Name() string { return r.name }

func (r *Research) Kind() string { return KindResearch }

func (r *Research) Tasks() []string { return []string{TaskAnalyzeSentiment} }

func (r *Research) Execute(ctx context.Context, task string, params Params) (any, error) {
	if task != TaskAnalyzeSentiment {
		return nil, fmt.Errorf("agent %q does not support task %q", r.name, task)
	}
	symbol, err := params.symbol()
	if err != nil {
		return nil, err
	}
	return r.AnalyzeSentiment(ctx, symbol)
}

// AnalyzeSentiment fetches the current price and sentiment scores for the
// symbol and maps the mean score to a signal: above 0.7 buys, below 0.3
// sells, anything else is neutral.
func (r *Research) AnalyzeSentiment(ctx context.Context, symbol string) (*SentimentReport, error) {
	r.log.Info().Str("symbol", symbol).Msg("analyzing market sentiment")

	price, err := r.prices.Price(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch price data: %w", err)
	}
	sentiment, err := r.sentiment.Sentiment(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch sentiment data: %w", err)
	}

	avg := sentiment.Mean()
	signal := domain.SignalNeutral
	switch {
	case avg > 0.7:
		signal = domain.SignalBuy
	case avg < 0.3:
		signal = domain.SignalSell
	}

	return &SentimentReport{
		Symbol:     symbol,
		Signal:     signal,
		Confidence: avg,
		Price:      price,
		Sentiment:  sentiment,
		Timestamp:  time.Now(),
	}, nil
}
