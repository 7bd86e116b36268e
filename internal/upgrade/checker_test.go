package upgrade

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

func TestStatusErr(t *testing.T) {
	tests := []struct {
		state State
		want  error
		fix   bool
	}{
		{StateCurrent, nil, false},
		{StateFresh, ErrSchemaOutdated, true},
		{StateBehind, ErrSchemaOutdated, true},
		{StateAhead, ErrSchemaAhead, false},
		{StateDirty, ErrSchemaDirty, false},
		{StateIncomplete, ErrSchemaIncomplete, false},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			s := &Status{State: tt.state}
			if got := s.Err(); !errors.Is(got, tt.want) {
				t.Errorf("Err() = %v, want %v", got, tt.want)
			}
			if got := s.NeedsMigration(); got != tt.fix {
				t.Errorf("NeedsMigration() = %v, want %v", got, tt.fix)
			}
		})
	}
}

func TestReport(t *testing.T) {
	tests := []struct {
		s    Status
		want string
	}{
		{Status{State: StateFresh}, "agency migrate up"},
		{Status{State: StateDirty, Version: 1}, "agency migrate force 0"},
		{Status{State: StateAhead, Version: 4}, "newer than this binary"},
		{Status{State: StateIncomplete, Version: 1, MissingTables: []string{"documents"}}, "missing tables: documents"},
	}
	for _, tt := range tests {
		if got := Report(&tt.s); !strings.Contains(got, tt.want) {
			t.Errorf("Report(%s) = %q, want it to mention %q", tt.s.State, got, tt.want)
		}
	}
}

func TestCheckFreshDatabase(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "fresh.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	s, err := Check(context.Background(), db)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if s.State != StateFresh || s.Documents != -1 {
		t.Errorf("status = %+v, want fresh with no count", s)
	}
}
