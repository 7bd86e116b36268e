package config

import "time"

// ChannelsConfig contains outbound messaging configuration.
type ChannelsConfig struct {
	Outbound OutboundConfig `json:"outbound"`
	Email    EmailConfig    `json:"email"`
	Telegram TelegramConfig `json:"telegram"`
}

// OutboundConfig applies to every outbound webhook/API call.
type OutboundConfig struct {
	TimeoutSec int    `json:"timeout_sec,omitempty"` // default 15
	Brand      string `json:"brand,omitempty"`       // footer text, default "EgoPanda Creative"
}

// Timeout returns the per-call outbound timeout.
func (o OutboundConfig) Timeout() time.Duration {
	return seconds(o.TimeoutSec, 15)
}

// EmailConfig configures SMTP delivery. When Host is empty, email sends are
// logged and reported as dry runs.
type EmailConfig struct {
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"` // default 587
	Username string `json:"username,omitempty"`
	Password string `json:"-"`                // from env AGENCY_SMTP_PASSWORD only
	Domain   string `json:"domain,omitempty"` // sender domain, default "egopandacreative.com"
}

// TelegramConfig configures the Telegram notifier used by notify triggers.
type TelegramConfig struct {
	Token  string `json:"-"` // from env AGENCY_TELEGRAM_TOKEN only
	ChatID int64  `json:"chat_id,omitempty"`
	Proxy  string `json:"proxy,omitempty"`
}
