package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"gateci/internal/core"
	"gateci/pkg/utils"
)

// Record is one workflow run appended to the history file
type Record struct {
	ID       string            `json:"id"`
	Workflow string            `json:"workflow"`
	Started  time.Time         `json:"started"`
	Finished time.Time         `json:"finished"`
	Success  bool              `json:"success"`
	Outcomes []core.JobOutcome `json:"outcomes"`
	Digest   string            `json:"digest"` // sha256 of the record with this field blank
}

// History is an append-only run log. File format: JSON lines, one
// record per run.
type History struct {
	mu      sync.Mutex
	records []Record
	path    string
}

// Open loads an existing history file or creates an empty one.
func Open(path string) (*History, error) {
	h := &History{
		records: make([]Record, 0),
		path:    path,
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		_ = f.Close()
		return h, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return h, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode history entry: %w", err)
		}
		h.records = append(h.records, rec)
	}
	return h, nil
}

// Append stamps the record with its digest, persists it to disk and
// keeps it in memory.
func (h *History) Append(rec Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	digest, err := ComputeDigest(rec)
	if err != nil {
		return fmt.Errorf("cannot compute record digest: %w", err)
	}
	rec.Digest = digest

	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(rec); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}

	h.records = append(h.records, rec)
	return nil
}

// Records returns a copy of all recorded runs, oldest first.
func (h *History) Records() []Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Record, len(h.records))
	copy(out, h.records)
	return out
}

// ComputeDigest hashes the record's canonical JSON with the digest
// field blanked, so a stored record can be checked against its digest.
func ComputeDigest(rec Record) (string, error) {
	rec.Digest = ""
	data, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	return utils.HashString(string(data)), nil
}

// Verify recomputes every record's digest and reports the first
// mismatch, if any.
func (h *History) Verify() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, rec := range h.records {
		want, err := ComputeDigest(rec)
		if err != nil {
			return err
		}
		if rec.Digest != want {
			return fmt.Errorf("record %d (%s): digest mismatch", i, rec.ID)
		}
	}
	return nil
}
