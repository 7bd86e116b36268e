package channels

import (
	"context"
	"log/slog"
)

// LogNotifier writes trigger notifications to the structured log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, agentID, text string) error {
	slog.Info("agent notification", "agent", agentID, "text", text)
	return nil
}
