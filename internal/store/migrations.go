package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create runs and trades",
		SQL: `
			CREATE TABLE runs (
				id                 TEXT PRIMARY KEY,
				product            TEXT NOT NULL,
				started_at         TEXT NOT NULL DEFAULT (datetime('now')),
				initial_capital    REAL NOT NULL,
				final_capital      REAL NOT NULL,
				total_return_pct   REAL NOT NULL,
				total_trades       INTEGER NOT NULL,
				winning_trades     INTEGER NOT NULL,
				sharpe_ratio       REAL,
				sortino_ratio      REAL,
				max_drawdown       REAL,
				value_at_risk      REAL,
				expected_shortfall REAL
			);

			CREATE INDEX idx_runs_started ON runs (started_at);

			CREATE TABLE trades (
				id          TEXT PRIMARY KEY,
				run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
				seq         INTEGER NOT NULL,
				side        TEXT NOT NULL,
				entry_price REAL NOT NULL,
				exit_price  REAL NOT NULL,
				size        REAL NOT NULL,
				pnl         REAL NOT NULL,
				return_pct  REAL NOT NULL,
				entry_time  TEXT NOT NULL,
				exit_time   TEXT NOT NULL,
				exit_reason TEXT NOT NULL
			);

			CREATE INDEX idx_trades_run ON trades (run_id, seq);
		`,
	},
}
