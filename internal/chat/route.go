package chat

import (
	"github.com/egopanda/agency/internal/agents"
	"github.com/egopanda/agency/internal/config"
	"github.com/egopanda/agency/internal/providers"
	"github.com/egopanda/agency/internal/store"
)

// Route is the model/endpoint pair a chat call goes to.
type Route struct {
	Advanced        bool
	Model           string
	Endpoint        string
	Verbosity       string
	ReasoningEffort string
	MaxTokens       int
	Temperature     float64
}

// SelectRoute partitions agent ids: ids listed in the advanced route go to the
// Responses endpoint, every other id (unknown ones included) to Chat Completions.
func SelectRoute(cfg *config.Config, agentID string) Route {
	llm := cfg.LLM
	if cfg.IsAdvancedAgent(agentID) {
		effort := llm.Advanced.ReasoningEffort[agentID]
		if effort == "" {
			effort = llm.Advanced.DefaultReasoningEffort
		}
		return Route{
			Advanced:        true,
			Model:           llm.Advanced.Model,
			Endpoint:        providers.JoinURL(llm.APIBase, llm.Advanced.Path),
			Verbosity:       llm.Advanced.Verbosity,
			ReasoningEffort: effort,
		}
	}
	return Route{
		Model:       llm.Standard.Model,
		Endpoint:    providers.JoinURL(llm.APIBase, llm.Standard.Path),
		MaxTokens:   llm.Standard.MaxTokens,
		Temperature: llm.Standard.Temperature,
	}
}

// PrepareRequest builds the outbound call for one chat turn. It performs no
// I/O. The credential is checked before any header is built.
func PrepareRequest(cfg *config.Config, route Route, systemContext string, history []providers.Message, message string) (providers.CallSpec, error) {
	apiKey, err := cfg.LLM.RequireAPIKey()
	if err != nil {
		return providers.CallSpec{}, err
	}

	msgs := make([]providers.Message, 0, len(history)+2)
	msgs = append(msgs, providers.Message{Role: "system", Content: systemContext})
	msgs = append(msgs, history...)
	msgs = append(msgs, providers.Message{Role: "user", Content: message})

	var payload map[string]interface{}
	if route.Advanced {
		payload = providers.ResponsesBody(route.Model, msgs, route.Verbosity, route.ReasoningEffort)
	} else {
		payload = providers.ChatCompletionsBody(route.Model, msgs, route.MaxTokens, route.Temperature)
	}

	return providers.CallSpec{
		Model:    route.Model,
		Endpoint: route.Endpoint,
		Headers:  providers.OpenAIHeaders(apiKey, cfg.LLM.OrgID, cfg.LLM.ProjectID),
		Payload:  payload,
	}, nil
}

// Dispatch resolves the agent, builds its context and prepares the call in one
// step. Unknown agent ids get the catalog's default configuration.
func Dispatch(cfg *config.Config, catalog *agents.Catalog, req Request, memories []store.Memory) (providers.CallSpec, *agents.Config, string, error) {
	if err := req.Validate(); err != nil {
		return providers.CallSpec{}, nil, "", err
	}
	agent := catalog.Resolve(req.AgentID)
	systemContext := BuildContext(agent, memories, cfg.Agents.SnippetWidth)
	spec, err := PrepareRequest(cfg, SelectRoute(cfg, req.AgentID), systemContext, req.History, req.Message)
	return spec, agent, systemContext, err
}
