package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Feed.MaxHistory < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "feed.maxHistory",
			Message: fmt.Sprintf("must be non-negative, got %d", cfg.Feed.MaxHistory),
		})
	}
	if cfg.Feed.AlertThreshold < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "feed.alertThreshold",
			Message: fmt.Sprintf("must be non-negative, got %g", cfg.Feed.AlertThreshold),
		})
	}

	if cfg.Analyzer.ShortMAPeriod >= cfg.Analyzer.LongMAPeriod {
		issues = append(issues, ValidationIssue{
			Path:    "analyzer.shortMaPeriod",
			Message: fmt.Sprintf("short MA period (%d) must be below long MA period (%d)", cfg.Analyzer.ShortMAPeriod, cfg.Analyzer.LongMAPeriod),
		})
	}
	if cfg.Analyzer.RSIPeriod < 2 {
		issues = append(issues, ValidationIssue{
			Path:    "analyzer.rsiPeriod",
			Message: fmt.Sprintf("must be at least 2, got %d", cfg.Analyzer.RSIPeriod),
		})
	}

	if cfg.Risk.MaxDailyLoss <= 0 || cfg.Risk.MaxDailyLoss > 100 {
		issues = append(issues, ValidationIssue{
			Path:    "risk.maxDailyLoss",
			Message: fmt.Sprintf("must be a percentage in (0, 100], got %g", cfg.Risk.MaxDailyLoss),
		})
	}
	if cfg.Risk.MaxDrawdown <= 0 || cfg.Risk.MaxDrawdown > 100 {
		issues = append(issues, ValidationIssue{
			Path:    "risk.maxDrawdown",
			Message: fmt.Sprintf("must be a percentage in (0, 100], got %g", cfg.Risk.MaxDrawdown),
		})
	}
	if cfg.Risk.InitialBalance <= 0 {
		issues = append(issues, ValidationIssue{
			Path:    "risk.initialBalance",
			Message: fmt.Sprintf("must be positive, got %g", cfg.Risk.InitialBalance),
		})
	}

	if cfg.Backtest.MinConfidence < 0 || cfg.Backtest.MinConfidence > 1 {
		issues = append(issues, ValidationIssue{
			Path:    "backtest.minConfidence",
			Message: fmt.Sprintf("must be in [0, 1], got %g", cfg.Backtest.MinConfidence),
		})
	}
	if cfg.Backtest.MaxPositions < 1 {
		issues = append(issues, ValidationIssue{
			Path:    "backtest.maxPositions",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.Backtest.MaxPositions),
		})
	}

	validBackends := []string{"sqlite", "memory"}
	if cfg.Store.Backend != "" && !slices.Contains(validBackends, cfg.Store.Backend) {
		issues = append(issues, ValidationIssue{
			Path:    "store.backend",
			Message: fmt.Sprintf("must be one of %v, got %q", validBackends, cfg.Store.Backend),
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validKinds := []string{"research", "trading"}
	for i, a := range cfg.Agents {
		if a.Name == "" {
			issues = append(issues, ValidationIssue{
				Path:    fmt.Sprintf("agents[%d].name", i),
				Message: "name is required",
			})
		}
		if !slices.Contains(validKinds, a.Kind) {
			issues = append(issues, ValidationIssue{
				Path:    fmt.Sprintf("agents[%d].kind", i),
				Message: fmt.Sprintf("must be one of %v, got %q", validKinds, a.Kind),
			})
		}
	}

	if cfg.Notify.IRC != nil {
		irc := cfg.Notify.IRC
		if irc.Server == "" {
			issues = append(issues, ValidationIssue{
				Path:    "notify.irc.server",
				Message: "server is required",
			})
		}
		if irc.Nick == "" {
			issues = append(issues, ValidationIssue{
				Path:    "notify.irc.nick",
				Message: "nick is required",
			})
		}
		if len(irc.Channels) == 0 {
			issues = append(issues, ValidationIssue{
				Path:    "notify.irc.channels",
				Message: "at least one channel is required",
			})
		}
		if irc.Port < 0 || irc.Port > 65535 {
			issues = append(issues, ValidationIssue{
				Path:    "notify.irc.port",
				Message: fmt.Sprintf("port must be 0-65535, got %d", irc.Port),
			})
		}
	}

	return issues
}
