package config

// Config is the root configuration for quantagent.
type Config struct {
	Exchange ExchangeConfig `yaml:"exchange,omitempty"`
	Feed     FeedConfig     `yaml:"feed,omitempty"`
	Analyzer AnalyzerConfig `yaml:"analyzer,omitempty"`
	Risk     RiskConfig     `yaml:"risk,omitempty"`
	Backtest BacktestConfig `yaml:"backtest,omitempty"`
	Agents   []AgentEntry   `yaml:"agents,omitempty"`
	Store    StoreConfig    `yaml:"store,omitempty"`
	Notify   NotifyConfig   `yaml:"notify,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
}

// ExchangeConfig configures the Coinbase Exchange REST client.
type ExchangeConfig struct {
	BaseURL   string `yaml:"baseUrl,omitempty"`
	APIKey    string `yaml:"apiKey,omitempty"`    // supports ${ENV_VAR} expansion
	APISecret string `yaml:"apiSecret,omitempty"` // supports ${ENV_VAR} expansion
}

// FeedConfig configures the live websocket ticker monitor.
type FeedConfig struct {
	WSURL          string  `yaml:"wsUrl,omitempty"`
	Product        string  `yaml:"product,omitempty"`        // e.g. "BTC-USD"
	MaxHistory     int     `yaml:"maxHistory,omitempty"`     // rolling tick window size
	AlertThreshold float64 `yaml:"alertThreshold,omitempty"` // percent move that raises an alert
}

// AnalyzerConfig tunes the market analyzer's indicator periods.
type AnalyzerConfig struct {
	MinDataPoints int `yaml:"minDataPoints,omitempty"`
	RSIPeriod     int `yaml:"rsiPeriod,omitempty"`
	ShortMAPeriod int `yaml:"shortMaPeriod,omitempty"`
	LongMAPeriod  int `yaml:"longMaPeriod,omitempty"`
}

// RiskConfig sets account risk limits.
type RiskConfig struct {
	MaxDailyLoss    float64 `yaml:"maxDailyLoss,omitempty"`    // percent of initial balance
	MaxDrawdown     float64 `yaml:"maxDrawdown,omitempty"`     // percent from peak
	PositionSizing  float64 `yaml:"positionSizing,omitempty"`  // percent of balance risked per trade
	MaxPositionSize float64 `yaml:"maxPositionSize,omitempty"` // units cap
	InitialBalance  float64 `yaml:"initialBalance,omitempty"`
}

// BacktestConfig tunes the backtest simulation.
type BacktestConfig struct {
	InitialCapital float64 `yaml:"initialCapital,omitempty"`
	StopLossPct    float64 `yaml:"stopLossPct,omitempty"`
	TakeProfitPct  float64 `yaml:"takeProfitPct,omitempty"`
	MaxPositions   int     `yaml:"maxPositions,omitempty"`
	MinConfidence  float64 `yaml:"minConfidence,omitempty"`
}

// AgentEntry declares an agent the master should create at startup.
type AgentEntry struct {
	Name    string   `yaml:"name"`
	Kind    string   `yaml:"kind"` // "research" | "trading"
	Symbols []string `yaml:"symbols,omitempty"`
}

// StoreConfig selects the trade store backend.
type StoreConfig struct {
	Backend string `yaml:"backend,omitempty"` // "sqlite" | "memory"
}

// NotifyConfig configures alert delivery sinks.
type NotifyConfig struct {
	IRC *IRCConfig `yaml:"irc,omitempty"`
}

// IRCConfig defines the IRC alert sink.
type IRCConfig struct {
	Server   string   `yaml:"server"`
	Port     int      `yaml:"port,omitempty"`
	Nick     string   `yaml:"nick"`
	Password string   `yaml:"password,omitempty"` // supports ${ENV_VAR} expansion
	Channels []string `yaml:"channels"`
	UseTLS   bool     `yaml:"useTLS,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File  bool   `yaml:"file,omitempty"`  // also write dated JSON logs under the logs dir
}
