package chat

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/egopanda/agency/internal/agents"
	"github.com/egopanda/agency/internal/store"
)

func mustCatalog(t *testing.T) *agents.Catalog {
	t.Helper()
	c, err := agents.Load("")
	if err != nil {
		t.Fatalf("agents.Load: %v", err)
	}
	return c
}

func TestBuildContextOrder(t *testing.T) {
	c := mustCatalog(t)
	v, _ := c.Lookup("vanessa")
	got := BuildContext(v, []store.Memory{{Title: "note", Content: "short"}}, 100)

	if !strings.HasPrefix(got, v.Preamble) {
		t.Fatalf("context does not start with preamble:\n%s", got)
	}
	parts := []string{
		"\n\nCurrent State: You are feeling strategic with 25% workload.",
		"\n\nPersonality: ",
		"\n\nActive Projects: Daily Revenue Optimization, Agent Performance Management, Strategic Business Planning",
		"\n\nRecent Memories:\n- note: short...",
		"\n\nAs VP, you can coordinate",
	}
	last := len(v.Preamble)
	for _, p := range parts {
		idx := strings.Index(got, p)
		if idx < last {
			t.Fatalf("%q missing or out of order (at %d, previous at %d) in:\n%s", p, idx, last, got)
		}
		last = idx
	}
}

func TestBuildContextOmitsEmptySections(t *testing.T) {
	a := &agents.Config{ID: "bare", Preamble: "You are Bare."}
	if got := BuildContext(a, nil, 100); got != "You are Bare." {
		t.Errorf("BuildContext(bare) = %q", got)
	}
}

func TestBuildContextTruncatesSnippets(t *testing.T) {
	a := &agents.Config{Preamble: "P"}
	long := strings.Repeat("x", 150)
	got := BuildContext(a, []store.Memory{{Title: "t", Content: long}}, 100)
	want := "P\n\nRecent Memories:\n- t: " + strings.Repeat("x", 100) + "..."
	if got != want {
		t.Errorf("snippet not truncated to 100 columns: len=%d", len(got))
	}

	wide := strings.Repeat("界", 80) // 2 columns each
	got = BuildContext(a, []store.Memory{{Title: "w", Content: wide}}, 100)
	if !strings.HasSuffix(got, "- w: "+strings.Repeat("界", 50)+"...") {
		t.Errorf("wide snippet = %q", got)
	}
}

func TestBuildContextConcurrent(t *testing.T) {
	c := mustCatalog(t)
	ids := []string{"vanessa", "charlie"}
	want := map[string]string{}
	for _, id := range ids {
		a, _ := c.Lookup(id)
		want[id] = BuildContext(a, []store.Memory{{Title: id, Content: id + " memory"}}, 100)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 200)
	for i := 0; i < 100; i++ {
		for _, id := range ids {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				a, _ := c.Lookup(id)
				if got := BuildContext(a, []store.Memory{{Title: id, Content: id + " memory"}}, 100); got != want[id] {
					errs <- fmt.Sprintf("%s context corrupted", id)
				}
			}(id)
		}
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}
