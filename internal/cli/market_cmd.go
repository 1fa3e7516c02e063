package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tradecrest/quantagent/internal/config"
	"github.com/tradecrest/quantagent/internal/exchange"
)

func newTickerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ticker [product]",
		Short: "Fetch the current ticker for a product",
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

			client := exchange.NewClient(cfg.Exchange, log)
			ticker, err := client.Ticker(cmd.Context(), product)
			if err != nil {
				return err
			}

			fmt.Printf("%s\n", product)
			fmt.Printf("  Price:  %s\n", ticker.Price)
			fmt.Printf("  Bid:    %s\n", ticker.Bid)
			fmt.Printf("  Ask:    %s\n", ticker.Ask)
			fmt.Printf("  Volume: %s\n", ticker.Volume)
			fmt.Printf("  Time:   %s\n", ticker.Time.Format(time.RFC3339))
			return nil
		},
	}
}

func newCandlesCmd() *cobra.Command {
	var (
		granularity int
		days        int
	)

	cmd := &cobra.Command{
		Use:   "candles [product]",
		Short: "Fetch historical candles for a product",
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

			end := time.Now()
			start := end.AddDate(0, 0, -days)

			client := exchange.NewClient(cfg.Exchange, log)
			series, err := client.Candles(cmd.Context(), product, granularity, start, end)
			if err != nil {
				return err
			}

			fmt.Printf("%s: %d candles (granularity %ds)\n", product, len(series), granularity)
			for _, c := range series {
				fmt.Printf("%s  O=%.2f H=%.2f L=%.2f C=%.2f V=%.4f\n",
					c.Time.Format("2006-01-02 15:04"), c.Open, c.High, c.Low, c.Close, c.Volume)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&granularity, "granularity", 3600, "candle width in seconds")
	cmd.Flags().IntVar(&days, "days", 7, "how many days of history to fetch")

	return cmd
}
