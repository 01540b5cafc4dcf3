package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const quickWorkflow = `
name: quick
jobs:
  - name: ok
    steps:
      - run: "true"
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s, err := NewServer(filepath.Join(t.TempDir(), "runs.jsonl"))
	if err != nil {
		t.Fatalf("failed to build server: %v", err)
	}
	ts := httptest.NewServer(s.routes())
	t.Cleanup(ts.Close)
	return ts
}

func submit(t *testing.T, ts *httptest.Server, workflow string) string {
	t.Helper()
	resp, err := http.Post(ts.URL+"/workflows", "application/x-yaml", strings.NewReader(workflow))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("submit returned %s", resp.Status)
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("bad submit response: %v", err)
	}
	return body.ID
}

func waitForVerdict(t *testing.T, ts *httptest.Server, id string) runState {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(ts.URL + "/workflows/" + id)
		if err != nil {
			t.Fatalf("status fetch failed: %v", err)
		}
		var state runState
		err = json.NewDecoder(resp.Body).Decode(&state)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("bad status response: %v", err)
		}
		if state.Status == "success" || state.Status == "failure" {
			return state
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("run %s never settled", id)
	return runState{}
}

func TestSubmitAndRunWorkflow(t *testing.T) {
	ts := newTestServer(t)

	id := submit(t, ts, quickWorkflow)
	state := waitForVerdict(t, ts, id)

	if state.Status != "success" {
		t.Fatalf("run status = %s, want success", state.Status)
	}
	if state.Result == nil || len(state.Result.Outcomes) != 1 {
		t.Fatalf("result missing outcomes: %+v", state.Result)
	}
	if state.Result.Outcomes[0].Job != "ok" {
		t.Errorf("outcome job = %q", state.Result.Outcomes[0].Job)
	}
}

func TestFailingWorkflowReportsFailure(t *testing.T) {
	ts := newTestServer(t)

	id := submit(t, ts, `
name: broken
jobs:
  - name: bad
    steps:
      - name: boom
        run: "exit 7"
`)
	state := waitForVerdict(t, ts, id)

	if state.Status != "failure" {
		t.Fatalf("run status = %s, want failure", state.Status)
	}
	outcome := state.Result.Outcomes[0]
	if outcome.FailingStep != "boom" {
		t.Errorf("failing step = %q, want boom", outcome.FailingStep)
	}
	if outcome.ExitCode == nil || *outcome.ExitCode != 7 {
		t.Errorf("exit code = %v, want 7", outcome.ExitCode)
	}
}

func TestSubmitRejectsInvalidYAML(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/workflows", "application/x-yaml", strings.NewReader("jobs: ["))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid yaml returned %s, want 400", resp.Status)
	}
}

func TestRunsEndpointListsHistory(t *testing.T) {
	ts := newTestServer(t)

	id := submit(t, ts, quickWorkflow)
	waitForVerdict(t, ts, id)

	resp, err := http.Get(ts.URL + "/runs")
	if err != nil {
		t.Fatalf("runs fetch failed: %v", err)
	}
	defer resp.Body.Close()

	var runs []struct {
		ID      string `json:"id"`
		Success bool   `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&runs); err != nil {
		t.Fatalf("bad runs response: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != id || !runs[0].Success {
		t.Errorf("runs = %+v", runs)
	}
}

func TestStatusUnknownWorkflow(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/workflows/no-such-id")
	if err != nil {
		t.Fatalf("status fetch failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown id returned %s, want 404", resp.Status)
	}
}
