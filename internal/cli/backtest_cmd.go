package cli

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/tradecrest/quantagent/internal/backtest"
	"github.com/tradecrest/quantagent/internal/config"
	"github.com/tradecrest/quantagent/internal/domain"
	"github.com/tradecrest/quantagent/internal/exchange"
	"github.com/tradecrest/quantagent/internal/market"
	"github.com/tradecrest/quantagent/internal/risk"
	"github.com/tradecrest/quantagent/internal/store"
)

func newBacktestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run and inspect strategy backtests",
	}

	cmd.AddCommand(newBacktestRunCmd())
	cmd.AddCommand(newBacktestRunsCmd())
	cmd.AddCommand(newBacktestTradesCmd())

	return cmd
}

func newBacktestRunCmd() *cobra.Command {
	var (
		csvFile     string
		granularity int
		days        int
		save        bool
	)

	cmd := &cobra.Command{
		Use:   "run [product]",
		Short: "Backtest the analyzer strategy over historical candles",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			product := cfg.Feed.Product
			if len(args) > 0 {
				product = args[0]
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}
			if err := paths.EnsureDirs(); err != nil {
				return err
			}

			runLog, closer, err := runLogger(cfg)
			if err != nil {
				return err
			}
			if closer != nil {
				defer closer.Close()
			}

			var series domain.Series
			if csvFile != "" {
				series, err = loadCandlesCSV(csvFile)
				if err != nil {
					return fmt.Errorf("loading %s: %w", csvFile, err)
				}
			} else {
				end := time.Now()
				client := exchange.NewClient(cfg.Exchange, runLog)
				series, err = client.Candles(cmd.Context(), product, granularity, end.AddDate(0, 0, -days), end)
				if err != nil {
					return err
				}
			}
			if len(series) == 0 {
				return fmt.Errorf("no candle data to backtest")
			}

			rm := risk.NewManager(cfg.Risk, runLog)
			analyzer := market.NewAnalyzer(cfg.Analyzer, rm, runLog)
			bt := backtest.New(cfg.Backtest, analyzer, rm, runLog)

			report, err := bt.Run(series)
			if err != nil {
				return err
			}
			printReport(product, len(series), report)

			if save {
				runStore, err := openRunStore(cfg)
				if err != nil {
					return err
				}
				defer runStore.Close()
				if err := runStore.SaveRun(cmd.Context(), product, report); err != nil {
					return err
				}
				fmt.Printf("\nSaved run %s\n", report.RunID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvFile, "csv", "", "read candles from a CSV file instead of the exchange")
	cmd.Flags().IntVar(&granularity, "granularity", 3600, "candle width in seconds when fetching")
	cmd.Flags().IntVar(&days, "days", 30, "how many days of history to fetch")
	cmd.Flags().BoolVar(&save, "save", false, "persist the run and its trades to the store")

	return cmd
}

func newBacktestRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List saved backtest runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			runStore, err := openRunStore(cfg)
			if err != nil {
				return err
			}
			defer runStore.Close()

			runs, err := runStore.Runs(cmd.Context())
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No saved runs.")
				return nil
			}

			for _, r := range runs {
				fmt.Printf("%s  %s  %-8s  return=%+.2f%%  trades=%d  sharpe=%.2f\n",
					r.ID, r.StartedAt.Format("2006-01-02 15:04"), r.Product,
					r.Overview.TotalReturnPct, r.Overview.TotalTrades, r.Risk.SharpeRatio)
			}
			return nil
		},
	}
}

func newBacktestTradesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trades <run-id>",
		Short: "List the trades of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			runStore, err := openRunStore(cfg)
			if err != nil {
				return err
			}
			defer runStore.Close()

			trades, err := runStore.Trades(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(trades) == 0 {
				fmt.Println("No trades for this run.")
				return nil
			}

			for _, tr := range trades {
				fmt.Printf("%s  %-5s  entry=%.2f exit=%.2f size=%.4f pnl=%+.2f (%+.2f%%)  %s\n",
					tr.ExitTime.Format("2006-01-02 15:04"), tr.Side,
					tr.EntryPrice, tr.ExitPrice, tr.Size, tr.PnL, tr.ReturnPct, tr.ExitReason)
			}
			return nil
		},
	}
}

func openRunStore(cfg config.Config) (store.RunStore, error) {
	dbPath := filepath.Join(paths.Data, "quantagent.db")
	return store.New(cfg.Store.Backend, dbPath, log)
}

func printReport(product string, bars int, report *backtest.Report) {
	o := report.Overview
	fmt.Printf("Backtest %s over %d candles (run %s)\n\n", product, bars, report.RunID)
	fmt.Printf("Capital:   %.2f -> %.2f (%+.2f%%)\n", o.InitialCapital, o.FinalCapital, o.TotalReturnPct)
	fmt.Printf("Trades:    %d total, %d winning\n", o.TotalTrades, o.WinningTrades)

	tm := report.Trades
	fmt.Printf("Win rate:  %.1f%%  avgWin=%+.2f avgLoss=%+.2f largestWin=%+.2f largestLoss=%+.2f\n",
		tm.WinRate*100, tm.AvgWin, tm.AvgLoss, tm.LargestWin, tm.LargestLoss)

	rk := report.Risk
	fmt.Printf("Risk:      sharpe=%.2f sortino=%.2f maxDrawdown=%.2f%% VaR95=%.2f ES95=%.2f\n",
		rk.SharpeRatio, rk.SortinoRatio, rk.MaxDrawdown*100, rk.ValueAtRisk, rk.ExpectedShortfall)
}

// loadCandlesCSV reads candles from a CSV file with a
// time,open,high,low,close,volume header. Timestamps may be unix seconds
// or RFC 3339.
func loadCandlesCSV(path string) (domain.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no candle rows")
	}

	series := make(domain.Series, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) < 6 {
			return nil, fmt.Errorf("row %d: expected 6 columns, got %d", i+2, len(row))
		}
		ts, err := parseCandleTime(row[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		vals := make([]float64, 5)
		for j, cell := range row[1:6] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: parsing %q: %w", i+2, cell, err)
			}
			vals[j] = v
		}
		series = append(series, domain.Candle{
			Time:   ts,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	return series, nil
}

func parseCandleTime(s string) (time.Time, error) {
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return ts, nil
}
