package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/egopanda/agency/internal/agents"
	"github.com/egopanda/agency/internal/channels"
	"github.com/egopanda/agency/internal/channels/discord"
	"github.com/egopanda/agency/internal/channels/telegram"
	"github.com/egopanda/agency/internal/chat"
	"github.com/egopanda/agency/internal/config"
	"github.com/egopanda/agency/internal/providers"
	"github.com/egopanda/agency/internal/store"
	"github.com/egopanda/agency/internal/store/pg"
	"github.com/egopanda/agency/internal/store/sqlite"
	"github.com/egopanda/agency/internal/triggers"
	"github.com/egopanda/agency/internal/upgrade"
	"github.com/egopanda/agency/internal/webhook"
	"github.com/egopanda/agency/internal/workflows"
)

// app is the fully wired application shared by serve and chat.
type app struct {
	cfg        *config.Config
	catalog    *agents.Catalog
	stores     *store.Stores
	exec       *triggers.Executor
	chat       *chat.Service
	router     *webhook.Router
	dispatcher *channels.Dispatcher
}

func (r *app) Close() {
	if r.stores != nil && r.stores.Close != nil {
		r.stores.Close()
	}
}

func buildRuntime(cfg *config.Config) (*app, error) {
	catalog, err := agents.Load(config.ExpandHome(cfg.Agents.CatalogFile))
	if err != nil {
		return nil, err
	}

	stores, err := openStores(cfg)
	if err != nil {
		return nil, err
	}

	notifier, err := buildNotifier(cfg, catalog)
	if err != nil {
		stores.Close()
		return nil, err
	}

	exec := triggers.NewExecutor(triggers.Collaborators{
		Notifier:  notifier,
		Runner:    workflows.NewN8NRunner(cfg.Workflows.BaseURL, cfg.Workflows.Timeout()),
		Delegator: triggers.MemoryDelegator{Store: stores.Memory, Timeout: cfg.Database.Timeout()},
		Updater:   triggers.MemoryUpdater{Store: stores.Memory, Timeout: cfg.Database.Timeout()},
	}, cfg.Triggers.ActionTimeout())

	llm := providers.NewClient("openai", cfg.LLM.Timeout())

	discordSender, err := discord.New(cfg.Channels.Outbound.Timeout())
	if err != nil {
		stores.Close()
		return nil, err
	}
	timeout := cfg.Channels.Outbound.Timeout()
	dispatcher := channels.NewDispatcher(catalog, cfg.Channels.Outbound.Brand,
		channels.NewSlackSender(timeout),
		discordSender,
		channels.NewTeamsSender(timeout),
		channels.NewWebhookSender(timeout),
		channels.NewAPISender(timeout),
		channels.NewEmailSender(cfg.Channels.Email),
	)

	return &app{
		cfg:        cfg,
		catalog:    catalog,
		stores:     stores,
		exec:       exec,
		chat:       chat.NewService(cfg, catalog, llm, stores.Memory, exec),
		router:     webhook.NewRouter(catalog, exec, cfg.Gateway.WebhookFanout),
		dispatcher: dispatcher,
	}, nil
}

// openStores opens Postgres in managed mode (refusing an incompatible schema)
// and SQLite otherwise.
func openStores(cfg *config.Config) (*store.Stores, error) {
	if !cfg.IsManagedMode() {
		path := config.ExpandHome(cfg.Database.SQLitePath)
		slog.Info("memory store: sqlite", "path", path)
		return sqlite.NewSQLiteStores(store.StoreConfig{SQLitePath: path})
	}

	stores, err := pg.NewPGStores(store.StoreConfig{PostgresDSN: cfg.Database.PostgresDSN})
	if err != nil {
		return nil, err
	}
	s, err := upgrade.Check(context.Background(), stores.DB)
	if err != nil {
		stores.Close()
		return nil, fmt.Errorf("check schema: %w", err)
	}
	if err := s.Err(); err != nil {
		stores.Close()
		return nil, fmt.Errorf("%w\n\n%s", err, upgrade.Report(s))
	}
	slog.Info("memory store: postgres", "schema", s.Version, "memories", s.Documents)
	return stores, nil
}

func buildNotifier(cfg *config.Config, catalog *agents.Catalog) (triggers.Notifier, error) {
	timeout := cfg.Channels.Outbound.Timeout()
	switch cfg.Triggers.Notify {
	case "telegram":
		n, err := telegram.New(cfg.Channels.Telegram, catalog, timeout)
		if err != nil {
			return nil, fmt.Errorf("telegram notifier: %w", err)
		}
		return n, nil
	case "slack":
		if cfg.Triggers.SlackWebhookURL == "" {
			return nil, fmt.Errorf("slack notifier: triggers.slack_webhook_url not set")
		}
		return channels.NewSlackNotifier(cfg.Triggers.SlackWebhookURL, catalog, timeout), nil
	case "", "log":
		return channels.LogNotifier{}, nil
	default:
		return nil, fmt.Errorf("unknown triggers.notify %q (want log, telegram or slack)", cfg.Triggers.Notify)
	}
}
