package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tradecrest/quantagent/internal/backtest"
	"github.com/tradecrest/quantagent/internal/domain"
)

// MemoryRunStore implements RunStore in memory. Useful for tests and the
// memory backend.
type MemoryRunStore struct {
	mu     sync.RWMutex
	runs   map[string]RunSummary
	trades map[string][]domain.TradeRecord
}

// NewMemoryRunStore creates an empty in-memory run store.
func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{
		runs:   make(map[string]RunSummary),
		trades: make(map[string][]domain.TradeRecord),
	}
}

func (s *MemoryRunStore) Close() error { return nil }

func (s *MemoryRunStore) SaveRun(_ context.Context, product string, report *backtest.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[report.RunID]; exists {
		return fmt.Errorf("run %q already saved", report.RunID)
	}

	s.runs[report.RunID] = RunSummary{
		ID:        report.RunID,
		Product:   product,
		StartedAt: report.StartedAt,
		Overview:  report.Overview,
		Risk:      report.Risk,
	}
	trades := make([]domain.TradeRecord, len(report.History))
	copy(trades, report.History)
	for i := range trades {
		trades[i].RunID = report.RunID
	}
	s.trades[report.RunID] = trades
	return nil
}

func (s *MemoryRunStore) Runs(context.Context) ([]RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RunSummary, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryRunStore) Trades(_ context.Context, runID string) ([]domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	trades := s.trades[runID]
	out := make([]domain.TradeRecord, len(trades))
	copy(out, trades)
	return out, nil
}
