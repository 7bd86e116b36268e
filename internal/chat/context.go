package chat

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/egopanda/agency/internal/agents"
	"github.com/egopanda/agency/internal/store"
)

// DefaultSnippetWidth is the display width of memory snippets in the prompt.
const DefaultSnippetWidth = 100

// BuildContext assembles the system prompt for agent. It is a pure function:
// concurrent calls share nothing but the read-only agent config.
func BuildContext(agent *agents.Config, memories []store.Memory, snippetWidth int) string {
	if snippetWidth <= 0 {
		snippetWidth = DefaultSnippetWidth
	}

	var b strings.Builder
	b.WriteString(agent.Preamble)

	if agent.Mood != "" {
		fmt.Fprintf(&b, "\n\nCurrent State: You are feeling %s with %d%% workload.", agent.Mood, agent.Workload)
	}
	if agent.Personality != "" {
		b.WriteString("\n\nPersonality: ")
		b.WriteString(agent.Personality)
	}

	if projects := agent.ActiveProjects(); len(projects) > 0 {
		titles := make([]string, len(projects))
		for i, p := range projects {
			titles[i] = p.Title
		}
		b.WriteString("\n\nActive Projects: ")
		b.WriteString(strings.Join(titles, ", "))
	}

	if len(memories) > 0 {
		b.WriteString("\n\nRecent Memories:")
		for _, m := range memories {
			fmt.Fprintf(&b, "\n- %s: %s...", m.Title, runewidth.Truncate(m.Content, snippetWidth, ""))
		}
	}

	if agent.Directive != "" {
		b.WriteString("\n\n")
		b.WriteString(agent.Directive)
	}
	return b.String()
}
