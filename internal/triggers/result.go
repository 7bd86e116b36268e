// Package triggers executes declarative agent triggers and chat keyword
// workflows, turning every outcome into an ActionResult.
package triggers

// Status is the terminal state of one trigger execution.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	StatusError     Status = "error"
)

// ActionResult is the tagged outcome of one trigger. Exactly one of Details,
// Reason or Message is meaningful, selected by Status.
type ActionResult struct {
	Status  Status `json:"status"`
	Details any    `json:"details,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

func Completed(details any) ActionResult {
	return ActionResult{Status: StatusCompleted, Details: details}
}

func Skipped(reason string) ActionResult {
	return ActionResult{Status: StatusSkipped, Reason: reason}
}

func Errored(err error) ActionResult {
	return ActionResult{Status: StatusError, Message: err.Error()}
}

// TriggerResult pairs a trigger name with its outcome.
type TriggerResult struct {
	TriggerID string       `json:"triggerId"`
	Result    ActionResult `json:"result"`
}
