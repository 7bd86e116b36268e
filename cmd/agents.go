package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/egopanda/agency/internal/agents"
	"github.com/egopanda/agency/internal/config"
)

func agentsCmd() *cobra.Command {
	var showWebhooks bool
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List the agent catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			catalog, err := agents.Load(config.ExpandHome(cfg.Agents.CatalogFile))
			if err != nil {
				return err
			}
			printAgents(cfg, catalog, showWebhooks)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showWebhooks, "webhooks", false, "also list webhook subscriptions and triggers")
	return cmd
}

func printAgents(cfg *config.Config, catalog *agents.Catalog, showWebhooks bool) {
	const nameWidth = 14
	w := os.Stdout
	fmt.Fprintf(w, "%s %-9s %-12s %-9s %s\n", runewidth.FillRight("AGENT", nameWidth), "ROUTE", "MOOD", "WORKLOAD", "CAPABILITIES")
	for _, a := range catalog.All() {
		route := "standard"
		if cfg.IsAdvancedAgent(a.ID) {
			route = "advanced"
		}
		name := a.ID
		if a.ID == catalog.Default().ID {
			name += " *"
		}
		fmt.Fprintf(w, "%s %-9s %-12s %-9s %s\n",
			runewidth.FillRight(runewidth.Truncate(name, nameWidth, "…"), nameWidth),
			route, a.Mood, fmt.Sprintf("%d%%", a.Workload), strings.Join(a.Capabilities, ","))

		if !showWebhooks {
			continue
		}
		for _, s := range a.Webhooks {
			fmt.Fprintf(w, "    webhook  %s.%s (%s)\n", s.Service, s.Event, s.Name)
		}
		for _, t := range a.Triggers {
			fmt.Fprintf(w, "    trigger  %s: %s -> %s\n", t.Name, t.When, t.Action)
		}
	}
	fmt.Fprintln(w, "\n* default agent")
}
