package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tradecrest/quantagent/internal/config"
	"github.com/tradecrest/quantagent/internal/version"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show quantagent status and configuration summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("quantagent %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Printf("Config:   %s\n", paths.Config)
			fmt.Printf("Data:     %s\n", paths.Data)
			fmt.Printf("Logs:     %s\n", paths.Logs)
			fmt.Println()

			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Printf("Config:   error loading: %v\n", err)
				return nil
			}

			creds := "not configured (public endpoints only)"
			if cfg.Exchange.APIKey != "" && cfg.Exchange.APISecret != "" {
				creds = "configured"
			}
			fmt.Printf("Exchange: url=%s credentials=%s\n", cfg.Exchange.BaseURL, creds)
			fmt.Printf("Feed:     product=%s alertThreshold=%.2f%% maxHistory=%d\n",
				cfg.Feed.Product, cfg.Feed.AlertThreshold, cfg.Feed.MaxHistory)
			fmt.Printf("Risk:     dailyLoss=%.1f%% drawdown=%.1f%% sizing=%.1f%%\n",
				cfg.Risk.MaxDailyLoss, cfg.Risk.MaxDrawdown, cfg.Risk.PositionSizing)
			fmt.Printf("Store:    backend=%s\n", cfg.Store.Backend)

			if len(cfg.Agents) > 0 {
				for _, a := range cfg.Agents {
					fmt.Printf("Agent:    name=%s kind=%s symbols=%s\n",
						a.Name, a.Kind, strings.Join(a.Symbols, ","))
				}
			} else {
				fmt.Println("Agent:    (none configured)")
			}

			if cfg.Notify.IRC != nil {
				irc := cfg.Notify.IRC
				fmt.Printf("IRC:      server=%s nick=%s channels=%s tls=%v\n",
					irc.Server, irc.Nick, strings.Join(irc.Channels, ","), irc.UseTLS)
			} else {
				fmt.Println("IRC:      (not configured)")
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Printf("\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Printf("  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}
}
