package protocol

// Webhook sources with dedicated handlers.
const (
	SourceStripe  = "stripe"
	SourceSquare  = "square"
	SourceDiscord = "discord"
	SourceSlack   = "slack"
	SourceGitHub  = "github"
)

// Webhook event names.
const (
	EventPaymentSuccess  = "payment.success"
	EventMessageReceived = "message.received"
	EventPush            = "push"
)

// Action names reported in a webhook target's actionResult.
const (
	ActionPaymentProcessed = "payment_processed"
	ActionMessageProcessed = "message_processed"
	ActionCodePushed       = "code_push_processed"
	ActionGenericWebhook   = "generic_webhook_processed"
)

// WebhookKey joins a source and event the way handler tables key them.
func WebhookKey(source, event string) string {
	return source + "." + event
}
