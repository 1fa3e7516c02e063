package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tradecrest/quantagent/internal/config"
	"github.com/tradecrest/quantagent/internal/feed"
	"github.com/tradecrest/quantagent/internal/notify"
)

func newMonitorCmd() *cobra.Command {
	var (
		product   string
		threshold float64
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Stream live ticker data and raise price alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			if product != "" {
				cfg.Feed.Product = product
			}
			if threshold > 0 {
				cfg.Feed.AlertThreshold = threshold
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

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fanout := notify.NewFanout(runLog, notify.NewLogSink(runLog))
			if cfg.Notify.IRC != nil {
				irc := notify.NewIRCSink(*cfg.Notify.IRC, runLog)
				fanout.Add(irc)
				go func() {
					if err := irc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
						runLog.Error().Err(err).Msg("IRC sink stopped")
					}
				}()
				defer irc.Stop()
			}

			monitor := feed.NewMonitor(cfg.Feed, fanout, runLog)
			runLog.Info().
				Str("product", cfg.Feed.Product).
				Float64("alertThreshold", cfg.Feed.AlertThreshold).
				Msg("starting price monitor")

			if err := monitor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&product, "product", "", "override product to monitor (e.g. BTC-USD)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "override alert threshold in percent")

	return cmd
}
