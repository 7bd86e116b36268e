package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/egopanda/agency/internal/agents"
	"github.com/egopanda/agency/internal/chat"
	"github.com/egopanda/agency/internal/config"
	"github.com/egopanda/agency/internal/providers"
)

func chatCmd() *cobra.Command {
	var agentID, message string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with an agent from the terminal",
		Long:  "Sends one message with -m, or starts an interactive session. Memories and workflows behave as on the HTTP endpoint.",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			rt, err := buildRuntime(cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			if agentID == "" {
				agentID = rt.catalog.Default().ID
			}
			if message != "" {
				resp, err := rt.chat.Chat(context.Background(), chat.Request{AgentID: agentID, Message: message})
				if err != nil {
					return err
				}
				fmt.Println(resp.Response)
				return nil
			}
			return runChatREPL(rt, agentID)
		},
	}
	cmd.Flags().StringVarP(&agentID, "agent", "a", "", "agent id (default: catalog default)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "send one message and exit")
	return cmd
}

func runChatREPL(rt *app, agentID string) error {
	persona := rt.catalog.Persona(agentID)
	route := "standard"
	if rt.cfg.IsAdvancedAgent(agentID) {
		route = "advanced"
	}
	fmt.Fprintf(os.Stderr, "\nAgency Interactive Chat\n")
	fmt.Fprintf(os.Stderr, "Agent: %s | Route: %s\n", persona.Name, route)
	fmt.Fprintf(os.Stderr, "Type \"exit\" to quit, \"/new\" to clear history\n\n")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var history []providers.Message
	scanner := bufio.NewScanner(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "\nGoodbye!")
			return nil
		default:
		}

		fmt.Fprint(os.Stderr, "You: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "/new":
			history = nil
			fmt.Fprintln(os.Stderr, "(history cleared)")
			continue
		}

		resp, err := rt.chat.Chat(ctx, chat.Request{AgentID: agentID, Message: line, History: history})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		fmt.Printf("%s: %s\n\n", agents.DisplayName(agentID), resp.Response)
		history = append(history,
			providers.Message{Role: "user", Content: line},
			providers.Message{Role: "assistant", Content: resp.Response},
		)
	}
}
