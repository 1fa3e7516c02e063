package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so secrets can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Exchange.APIKey = expandEnvVars(cfg.Exchange.APIKey)
	cfg.Exchange.APISecret = expandEnvVars(cfg.Exchange.APISecret)
	if cfg.Notify.IRC != nil {
		cfg.Notify.IRC.Password = expandEnvVars(cfg.Notify.IRC.Password)
	}
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	def := Defaults()
	if cfg.Exchange.BaseURL == "" {
		cfg.Exchange.BaseURL = def.Exchange.BaseURL
	}
	if cfg.Feed.WSURL == "" {
		cfg.Feed.WSURL = def.Feed.WSURL
	}
	if cfg.Feed.Product == "" {
		cfg.Feed.Product = def.Feed.Product
	}
	if cfg.Feed.MaxHistory == 0 {
		cfg.Feed.MaxHistory = def.Feed.MaxHistory
	}
	if cfg.Feed.AlertThreshold == 0 {
		cfg.Feed.AlertThreshold = def.Feed.AlertThreshold
	}
	if cfg.Analyzer.MinDataPoints == 0 {
		cfg.Analyzer.MinDataPoints = def.Analyzer.MinDataPoints
	}
	if cfg.Analyzer.RSIPeriod == 0 {
		cfg.Analyzer.RSIPeriod = def.Analyzer.RSIPeriod
	}
	if cfg.Analyzer.ShortMAPeriod == 0 {
		cfg.Analyzer.ShortMAPeriod = def.Analyzer.ShortMAPeriod
	}
	if cfg.Analyzer.LongMAPeriod == 0 {
		cfg.Analyzer.LongMAPeriod = def.Analyzer.LongMAPeriod
	}
	if cfg.Risk.MaxDailyLoss == 0 {
		cfg.Risk.MaxDailyLoss = def.Risk.MaxDailyLoss
	}
	if cfg.Risk.MaxDrawdown == 0 {
		cfg.Risk.MaxDrawdown = def.Risk.MaxDrawdown
	}
	if cfg.Risk.PositionSizing == 0 {
		cfg.Risk.PositionSizing = def.Risk.PositionSizing
	}
	if cfg.Risk.MaxPositionSize == 0 {
		cfg.Risk.MaxPositionSize = def.Risk.MaxPositionSize
	}
	if cfg.Risk.InitialBalance == 0 {
		cfg.Risk.InitialBalance = def.Risk.InitialBalance
	}
	if cfg.Backtest.InitialCapital == 0 {
		cfg.Backtest.InitialCapital = def.Backtest.InitialCapital
	}
	if cfg.Backtest.StopLossPct == 0 {
		cfg.Backtest.StopLossPct = def.Backtest.StopLossPct
	}
	if cfg.Backtest.TakeProfitPct == 0 {
		cfg.Backtest.TakeProfitPct = def.Backtest.TakeProfitPct
	}
	if cfg.Backtest.MaxPositions == 0 {
		cfg.Backtest.MaxPositions = def.Backtest.MaxPositions
	}
	if cfg.Backtest.MinConfidence == 0 {
		cfg.Backtest.MinConfidence = def.Backtest.MinConfidence
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = def.Store.Backend
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
}

// applyEnvOverrides reads QUANTAGENT_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("QUANTAGENT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("QUANTAGENT_PRODUCT"); v != "" {
		cfg.Feed.Product = v
	}
	if v := os.Getenv("QUANTAGENT_STORE"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("QUANTAGENT_ALERT_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Feed.AlertThreshold = f
		}
	}
	if v := os.Getenv("COINBASE_API_KEY"); v != "" {
		cfg.Exchange.APIKey = v
	}
	if v := os.Getenv("COINBASE_API_SECRET"); v != "" {
		cfg.Exchange.APISecret = v
	}
}
