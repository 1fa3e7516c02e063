// Package store persists backtest runs and their trades, backed by SQLite
// or an in-memory map.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/tradecrest/quantagent/internal/backtest"
	"github.com/tradecrest/quantagent/internal/domain"
	"github.com/tradecrest/quantagent/internal/logging"
)

// Backend names accepted by New.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// RunSummary is a persisted backtest run without its trade list.
type RunSummary struct {
	ID        string               `json:"id"`
	Product   string               `json:"product"`
	StartedAt time.Time            `json:"startedAt"`
	Overview  backtest.Overview    `json:"overview"`
	Risk      backtest.RiskMetrics `json:"riskMetrics"`
}

// RunStore persists backtest reports.
type RunStore interface {
	// SaveRun stores the report and its trade history under the report's
	// run ID.
	SaveRun(ctx context.Context, product string, report *backtest.Report) error
	// Runs lists saved runs, most recent first.
	Runs(ctx context.Context) ([]RunSummary, error)
	// Trades returns the closed trades of a run in execution order.
	Trades(ctx context.Context, runID string) ([]domain.TradeRecord, error)
	Close() error
}

// New creates a run store for the configured backend. path is only used by
// the sqlite backend.
func New(backend, path string, log *logging.Logger) (RunStore, error) {
	switch backend {
	case BackendSQLite:
		db, err := Open(path, log)
		if err != nil {
			return nil, err
		}
		return NewSQLiteRunStore(db), nil
	case BackendMemory:
		return NewMemoryRunStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
