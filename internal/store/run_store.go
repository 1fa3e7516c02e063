package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/tradecrest/quantagent/internal/backtest"
	"github.com/tradecrest/quantagent/internal/domain"
)

// SQLiteRunStore implements RunStore backed by SQLite.
type SQLiteRunStore struct {
	db *DB
}

// NewSQLiteRunStore creates a run store using the given database.
func NewSQLiteRunStore(db *DB) *SQLiteRunStore {
	return &SQLiteRunStore{db: db}
}

func (s *SQLiteRunStore) Close() error { return s.db.Close() }

// SaveRun stores the report and its trades in one transaction.
func (s *SQLiteRunStore) SaveRun(ctx context.Context, product string, report *backtest.Report) error {
	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, product, started_at, initial_capital, final_capital,
			total_return_pct, total_trades, winning_trades,
			sharpe_ratio, sortino_ratio, max_drawdown, value_at_risk, expected_shortfall)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, product, report.StartedAt.UTC().Format(time.DateTime),
		report.Overview.InitialCapital, report.Overview.FinalCapital,
		report.Overview.TotalReturnPct, report.Overview.TotalTrades, report.Overview.WinningTrades,
		finite(report.Risk.SharpeRatio), finite(report.Risk.SortinoRatio),
		finite(report.Risk.MaxDrawdown), finite(report.Risk.ValueAtRisk),
		finite(report.Risk.ExpectedShortfall),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", report.RunID, err)
	}

	for i, tr := range report.History {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO trades (id, run_id, seq, side, entry_price, exit_price, size,
				pnl, return_pct, entry_time, exit_time, exit_reason)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			tr.ID, report.RunID, i, string(tr.Side), tr.EntryPrice, tr.ExitPrice, tr.Size,
			tr.PnL, tr.ReturnPct,
			tr.EntryTime.UTC().Format(time.DateTime), tr.ExitTime.UTC().Format(time.DateTime),
			tr.ExitReason,
		)
		if err != nil {
			return fmt.Errorf("insert trade %s: %w", tr.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save run: %w", err)
	}
	s.db.log.Info().Str("runId", report.RunID).Int("trades", len(report.History)).Msg("run saved")
	return nil
}

// Runs lists saved runs, most recent first.
func (s *SQLiteRunStore) Runs(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT id, product, started_at, initial_capital, final_capital,
			total_return_pct, total_trades, winning_trades,
			sharpe_ratio, sortino_ratio, max_drawdown, value_at_risk, expected_shortfall
		 FROM runs ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var startedAt string
		var sharpe, sortino, drawdown, vaR, shortfall sql.NullFloat64
		if err := rows.Scan(
			&r.ID, &r.Product, &startedAt,
			&r.Overview.InitialCapital, &r.Overview.FinalCapital,
			&r.Overview.TotalReturnPct, &r.Overview.TotalTrades, &r.Overview.WinningTrades,
			&sharpe, &sortino, &drawdown, &vaR, &shortfall,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.DateTime, startedAt)
		r.Risk = backtest.RiskMetrics{
			SharpeRatio:       sharpe.Float64,
			SortinoRatio:      sortino.Float64,
			MaxDrawdown:       drawdown.Float64,
			ValueAtRisk:       vaR.Float64,
			ExpectedShortfall: shortfall.Float64,
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Trades returns the trades of a run in execution order.
func (s *SQLiteRunStore) Trades(ctx context.Context, runID string) ([]domain.TradeRecord, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT id, side, entry_price, exit_price, size, pnl, return_pct,
			entry_time, exit_time, exit_reason
		 FROM trades WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.TradeRecord
	for rows.Next() {
		var (
			tr                  domain.TradeRecord
			side                string
			entryTime, exitTime string
		)
		if err := rows.Scan(
			&tr.ID, &side, &tr.EntryPrice, &tr.ExitPrice, &tr.Size,
			&tr.PnL, &tr.ReturnPct, &entryTime, &exitTime, &tr.ExitReason,
		); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		tr.RunID = runID
		tr.Side = domain.Side(side)
		tr.EntryTime, _ = time.Parse(time.DateTime, entryTime)
		tr.ExitTime, _ = time.Parse(time.DateTime, exitTime)
		trades = append(trades, tr)
	}
	return trades, rows.Err()
}

// finite maps non-finite metric values (a Sortino ratio with no losing
// trades is +Inf) to NULL, which reads back as 0.
func finite(v float64) sql.NullFloat64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
