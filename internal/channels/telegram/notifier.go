// Package telegram sends trigger notifications to a Telegram chat through the
// Bot API.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/egopanda/agency/internal/agents"
	"github.com/egopanda/agency/internal/config"
)

// Notifier posts "<emoji> <Agent>: text" messages to one chat.
type Notifier struct {
	bot     *telego.Bot
	chatID  int64
	catalog *agents.Catalog
}

// New creates a notifier from config. Extra bot options are appended last.
func New(cfg config.TelegramConfig, catalog *agents.Catalog, timeout time.Duration, extra ...telego.BotOption) (*Notifier, error) {
	if cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram chat id not configured")
	}

	transport := http.DefaultTransport
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", cfg.Proxy, err)
		}
		transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}
	opts := []telego.BotOption{
		telego.WithHTTPClient(&http.Client{Timeout: timeout, Transport: transport}),
		telego.WithDiscardLogger(),
	}
	opts = append(opts, extra...)

	bot, err := telego.NewBot(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Notifier{bot: bot, chatID: cfg.ChatID, catalog: catalog}, nil
}

func (n *Notifier) Notify(ctx context.Context, agentID, text string) error {
	p := n.catalog.Persona(agentID)
	msg := tu.Message(tu.ID(n.chatID), fmt.Sprintf("%s %s: %s", p.Emoji, p.Name, text))
	if _, err := n.bot.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
