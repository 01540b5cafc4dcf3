package core

// Status of one job after a run
type Status string

const (
	StatusPassed   Status = "passed"
	StatusFailed   Status = "failed"    // a step exited non-zero
	StatusTimedOut Status = "timed_out" // a readiness gate ran out of budget
	StatusErrored  Status = "errored"   // provisioning failure, cancellation, or infra fault
)

// JobOutcome is the verdict for a single job. Never mutated after the
// runner returns it.
type JobOutcome struct {
	Job         string            `json:"job"`
	Status      Status            `json:"status"`
	FailingStep string            `json:"failing_step,omitempty"`
	ExitCode    *int              `json:"exit_code,omitempty"`
	Endpoint    *Endpoint         `json:"endpoint,omitempty"`    // set when a gate timed out
	LogDigests  map[string]string `json:"log_digests,omitempty"` // step label -> sha256 of its saved log
	Reason      string            `json:"reason,omitempty"`
}

// WorkflowResult aggregates outcomes in job declaration order
type WorkflowResult struct {
	Outcomes []JobOutcome `json:"outcomes"`
}

// Success reports whether every job passed. Any Failed/TimedOut/Errored
// anywhere makes the whole run a failure; there is no partial success.
func (r WorkflowResult) Success() bool {
	for _, o := range r.Outcomes {
		if o.Status != StatusPassed {
			return false
		}
	}
	return true
}
