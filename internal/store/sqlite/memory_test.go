package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/egopanda/agency/internal/store"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewMemoryStore(db)
}

func TestInsertAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	rows := []struct {
		agent string
		title string
		at    time.Time
	}{
		{"vanessa", "first", base},
		{"charlie", "other", base.Add(time.Minute)},
		{"vanessa", "second", base.Add(2 * time.Minute)},
	}
	for _, r := range rows {
		m := &store.Memory{
			Source:    store.SourceMemory,
			Title:     r.title,
			Content:   "content " + r.title,
			Metadata:  store.MemoryMetadata{AgentID: r.agent, Type: store.TypeMemory},
			CreatedAt: r.at,
		}
		if err := s.Insert(ctx, m); err != nil {
			t.Fatalf("Insert(%s): %v", r.title, err)
		}
	}

	got, err := s.List(ctx, store.MemoryQuery{AgentIDs: []string{"vanessa"}, Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].Title != "second" || got[1].Title != "first" {
		t.Fatalf("List(vanessa) titles = %v, want [second first]", titles(got))
	}
	if got[0].Metadata.AgentID != "vanessa" || got[0].ID.Version() != 7 {
		t.Errorf("row = %+v", got[0])
	}

	all, _ := s.List(ctx, store.MemoryQuery{Limit: 2, Offset: 1})
	if len(all) != 2 || all[0].Title != "other" {
		t.Errorf("List(all, offset 1) = %v, want [other first]", titles(all))
	}

	multi, _ := s.List(ctx, store.MemoryQuery{AgentIDs: []string{"charlie", "vanessa"}, Limit: 10})
	if len(multi) != 3 {
		t.Errorf("List(charlie,vanessa) returned %d rows, want 3", len(multi))
	}
}

func TestListEmptyIsNotNil(t *testing.T) {
	s := newTestStore(t)
	got, err := s.List(context.Background(), store.MemoryQuery{AgentIDs: []string{"nobody"}, Limit: 5})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("List = %#v, want empty non-nil slice", got)
	}
}

func titles(ms []store.Memory) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Title
	}
	return out
}
