package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tradecrest/quantagent/internal/agent"
	"github.com/tradecrest/quantagent/internal/config"
	"github.com/tradecrest/quantagent/internal/exchange"
)

func newAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage and run agents",
	}

	cmd.AddCommand(newAgentListCmd())
	cmd.AddCommand(newAgentStatusCmd())
	cmd.AddCommand(newAgentRunCmd())

	return cmd
}

// buildMaster creates the master registry with every configured agent.
func buildMaster(cfg config.Config) (*agent.Master, error) {
	client := exchange.NewClient(cfg.Exchange, log)
	master := agent.NewMaster(client, nil, cfg.Risk, log)
	for _, entry := range cfg.Agents {
		if _, err := master.Create(entry.Name, entry.Kind); err != nil {
			return nil, fmt.Errorf("creating agent %q: %w", entry.Name, err)
		}
	}
	return master, nil
}

func newAgentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			master, err := buildMaster(cfg)
			if err != nil {
				return err
			}

			agents := master.List()
			if len(agents) == 0 {
				fmt.Println("No agents configured. Add entries under `agents:` in the config.")
				return nil
			}
			for _, entry := range cfg.Agents {
				a, _ := master.Get(entry.Name)
				fmt.Printf("  %-16s %-10s tasks=%s\n",
					entry.Name, agents[entry.Name], strings.Join(a.Tasks(), ","))
			}
			return nil
		},
	}
}

func newAgentStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the agent registry status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			master, err := buildMaster(cfg)
			if err != nil {
				return err
			}

			status := master.Status()
			fmt.Printf("State:   %s\n", status.State)
			fmt.Printf("Agents:  %d active\n", status.ActiveAgents)
			fmt.Printf("Kinds:   %s\n", strings.Join(status.AgentKinds, ", "))
			fmt.Printf("As of:   %s\n", status.Timestamp.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}

func newAgentRunCmd() *cobra.Command {
	var rawParams []string

	cmd := &cobra.Command{
		Use:   "run <agent> <task>",
		Short: "Execute a task on an agent",
		Long: "Execute a task on a configured agent, e.g.\n\n" +
			"  quantagent agent run researcher analyze_market_sentiment --param symbol=BTC-USD\n" +
			"  quantagent agent run trader analyze_trade_opportunity --param symbol=BTC-USD --param price=50000 --param history=49000,49500,50000",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			master, err := buildMaster(cfg)
			if err != nil {
				return err
			}

			params, err := parseParams(rawParams)
			if err != nil {
				return err
			}

			result, err := master.Execute(cmd.Context(), args[0], args[1], params)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&rawParams, "param", nil, "task parameter as key=value (repeatable)")

	return cmd
}

// parseParams converts key=value flags into typed task parameters. Values
// parse as a float, a comma-separated float list, or fall back to a string.
func parseParams(raw []string) (agent.Params, error) {
	params := make(agent.Params, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", kv)
		}

		if f, err := strconv.ParseFloat(value, 64); err == nil {
			params[key] = f
			continue
		}
		if strings.Contains(value, ",") {
			parts := strings.Split(value, ",")
			floats := make([]float64, 0, len(parts))
			numeric := true
			for _, p := range parts {
				f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
				if err != nil {
					numeric = false
					break
				}
				floats = append(floats, f)
			}
			if numeric {
				params[key] = floats
				continue
			}
		}
		params[key] = value
	}
	return params, nil
}
