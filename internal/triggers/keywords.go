package triggers

import (
	"context"
	"fmt"
	"strings"

	"github.com/egopanda/agency/internal/agents"
)

// Keyword categories.
const (
	CategoryRevenue = "revenue"
	CategoryAgents  = "agents"
	CategoryMemory  = "memory"
	CategoryWebhook = "webhook"
)

// keywordTable is scanned in order, so matches come out in this order.
var keywordTable = []struct {
	category string
	keywords []string
}{
	{CategoryRevenue, []string{"revenue", "money", "income", "profit", "earnings"}},
	{CategoryAgents, []string{"agents", "team", "coordination", "delegate"}},
	{CategoryMemory, []string{"remember", "store", "save", "record"}},
	{CategoryWebhook, []string{"webhook", "notification", "alert", "trigger"}},
}

// capabilityFor gates categories that need an agent capability.
var capabilityFor = map[string]string{
	CategoryRevenue: "revenue-analysis",
	CategoryAgents:  "agent-coordination",
}

// KeywordMatch is one matched category for a chat message.
type KeywordMatch struct {
	Category string
	AgentID  string
	Message  string
}

// MatchKeywords returns one match per category whose keyword appears as a
// case-insensitive substring of message.
func MatchKeywords(agentID, message string) []KeywordMatch {
	lower := strings.ToLower(message)
	var out []KeywordMatch
	for _, row := range keywordTable {
		for _, kw := range row.keywords {
			if strings.Contains(lower, kw) {
				out = append(out, KeywordMatch{Category: row.category, AgentID: agentID, Message: message})
				break
			}
		}
	}
	return out
}

// WorkflowResult is the outcome of one chat keyword workflow.
type WorkflowResult struct {
	Type   string `json:"type"`
	Action string `json:"action,omitempty"`
	ActionResult
}

// ChatWorkflow is the name of the workflow run for webhook keywords.
const ChatWorkflow = "agent-chat"

// ExecuteKeywords runs the workflow for each keyword match, in order.
// response is the agent's reply, forwarded to workflow runners.
func (e *Executor) ExecuteKeywords(ctx context.Context, agent *agents.Config, matches []KeywordMatch, response string) []WorkflowResult {
	out := make([]WorkflowResult, 0, len(matches))
	for _, m := range matches {
		out = append(out, e.executeKeyword(ctx, agent, m, response))
	}
	return out
}

func (e *Executor) executeKeyword(ctx context.Context, agent *agents.Config, m KeywordMatch, response string) (res WorkflowResult) {
	res.Type = m.Category
	defer func() {
		if r := recover(); r != nil {
			res.ActionResult = Errored(fmt.Errorf("workflow panicked: %v", r))
		}
	}()

	switch m.Category {
	case CategoryMemory:
		res.Action = "stored_conversation"
		res.ActionResult = Completed(nil)
	case CategoryWebhook:
		if e.c.Runner == nil {
			res.ActionResult = Skipped("workflow runner not configured")
			return res
		}
		actx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()
		status, err := e.c.Runner.RunWorkflow(actx, ChatWorkflow, map[string]any{
			"agent_id":       m.AgentID,
			"user_message":   m.Message,
			"agent_response": response,
		})
		if err != nil {
			res.ActionResult = Errored(err)
			return res
		}
		res.Action = "sent_to_n8n"
		res.ActionResult = Completed(map[string]any{"status": status})
	case CategoryRevenue, CategoryAgents:
		if agent == nil || !agent.HasCapability(capabilityFor[m.Category]) {
			res.ActionResult = Skipped("agent lacks " + capabilityFor[m.Category])
			return res
		}
		if m.Category == CategoryRevenue {
			res.Action = "revenue_analysis_triggered"
		} else {
			res.Action = "agent_coordination_initiated"
		}
		res.ActionResult = Completed(nil)
	default:
		res.ActionResult = Skipped(ReasonNoHandler)
	}
	return res
}
