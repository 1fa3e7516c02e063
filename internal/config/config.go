// Package config loads, validates, and resolves quantagent configuration.
package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Exchange: ExchangeConfig{
			BaseURL: "https://api.exchange.coinbase.com",
		},
		Feed: FeedConfig{
			WSURL:          "wss://ws-feed.exchange.coinbase.com",
			Product:        "BTC-USD",
			MaxHistory:     1000,
			AlertThreshold: 0.5,
		},
		Analyzer: AnalyzerConfig{
			MinDataPoints: 20,
			RSIPeriod:     14,
			ShortMAPeriod: 9,
			LongMAPeriod:  21,
		},
		Risk: RiskConfig{
			MaxDailyLoss:    2.0,
			MaxDrawdown:     15.0,
			PositionSizing:  1.0,
			MaxPositionSize: 1000,
			InitialBalance:  500,
		},
		Backtest: BacktestConfig{
			InitialCapital: 500,
			StopLossPct:    0.02,
			TakeProfitPct:  0.03,
			MaxPositions:   5,
			MinConfidence:  0.7,
		},
		Store: StoreConfig{
			Backend: "sqlite",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
