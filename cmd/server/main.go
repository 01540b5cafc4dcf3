package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"gateci/internal/core"
	"gateci/internal/history"
	"gateci/internal/provision"
	"gateci/internal/storage"
)

// runState tracks one submitted workflow through its lifetime
type runState struct {
	ID       string               `json:"id"`
	Workflow string               `json:"workflow"`
	Status   string               `json:"status"` // pending | running | success | failure
	Result   *core.WorkflowResult `json:"result,omitempty"`
}

type Server struct {
	mu      sync.Mutex
	runs    map[string]*runState
	history *history.History
	logsDir string
}

func NewServer(historyPath string) (*Server, error) {
	hist, err := history.Open(historyPath)
	if err != nil {
		return nil, err
	}
	return &Server{
		runs:    make(map[string]*runState),
		history: hist,
		logsDir: filepath.Join(filepath.Dir(historyPath), "logs"),
	}, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/workflows", s.handleSubmit)
	r.Get("/workflows/{id}", s.handleStatus)
	r.Get("/runs", s.handleRuns)
	return r
}

// POST /workflows -> submit a workflow YAML, runs asynchronously
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "cannot read body", http.StatusBadRequest)
		return
	}

	wf, err := core.ParseWorkflow(data)
	if err != nil {
		http.Error(w, "invalid workflow: "+err.Error(), http.StatusBadRequest)
		return
	}

	id := uuid.NewString()
	state := &runState{ID: id, Workflow: wf.Name, Status: "pending"}

	s.mu.Lock()
	s.runs[id] = state
	s.mu.Unlock()

	go s.run(id, wf)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"id": id, "status": "pending"})
}

// run executes a submitted workflow and records the verdict
func (s *Server) run(id string, wf *core.Workflow) {
	s.setStatus(id, "running", nil)

	runner := core.NewRunner()
	runner.Provisioner = provision.NewExecProvisioner()
	runner.Logs = storage.NewLogStorage(s.logsDir)
	sched := core.NewScheduler(runner)

	started := time.Now()
	result := sched.RunAll(context.Background(), wf.Jobs)
	finished := time.Now()

	status := "failure"
	if result.Success() {
		status = "success"
	}
	s.setStatus(id, status, &result)

	rec := history.Record{
		ID:       id,
		Workflow: wf.Name,
		Started:  started,
		Finished: finished,
		Success:  result.Success(),
		Outcomes: result.Outcomes,
	}
	if err := s.history.Append(rec); err != nil {
		fmt.Printf("WARN: cannot record run %s: %v\n", id, err)
	}
}

func (s *Server) setStatus(id, status string, result *core.WorkflowResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.runs[id]; ok {
		state.Status = status
		state.Result = result
	}
}

// GET /workflows/{id} -> status and, once finished, the full result
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	state, ok := s.runs[id]
	var snapshot runState
	if ok {
		snapshot = *state
	}
	s.mu.Unlock()

	if !ok {
		http.Error(w, "workflow not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}

// GET /runs -> recorded run history, oldest first
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.history.Records())
}

func main() {
	// local overrides (.env), same file the gateci runner picks up
	_ = godotenv.Load()

	s, err := NewServer("./runs.jsonl")
	if err != nil {
		fmt.Printf("failed to open run history: %v\n", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	fmt.Println("gateci server running on port", port)
	if err := http.ListenAndServe(":"+port, s.routes()); err != nil {
		fmt.Printf("server stopped: %v\n", err)
		os.Exit(1)
	}
}
