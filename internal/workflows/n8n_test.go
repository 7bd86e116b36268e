package workflows

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRunWorkflow(t *testing.T) {
	var gotPath string
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &got)
	}))
	defer srv.Close()

	r := NewN8NRunner(srv.URL+"/webhook/", time.Second)
	status, err := r.RunWorkflow(context.Background(), "deployment_workflow", map[string]any{"agent_id": "william"})
	if err != nil {
		t.Fatalf("RunWorkflow: %v", err)
	}
	if status != StatusStarted {
		t.Errorf("status = %q", status)
	}
	if gotPath != "/webhook/deployment_workflow" {
		t.Errorf("path = %q", gotPath)
	}
	if got["agent_id"] != "william" || got["source"] != Source || got["workflow"] != "deployment_workflow" {
		t.Errorf("body = %v", got)
	}
}

func TestRunWorkflowErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow inactive", http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := NewN8NRunner(srv.URL, time.Second).RunWorkflow(context.Background(), "x", nil); err == nil {
		t.Error("404 should be an error")
	}
	status, err := NewN8NRunner("", time.Second).RunWorkflow(context.Background(), "x", nil)
	if err != nil || status != StatusLogged {
		t.Errorf("unconfigured runner = (%q, %v), want logged", status, err)
	}
}
