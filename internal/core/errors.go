package core

import (
	"fmt"
	"time"
)

// TimeoutError means a readiness gate ran out of budget.
// It names the endpoint and how long we waited.
type TimeoutError struct {
	Endpoint Endpoint
	Elapsed  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("endpoint %s not reachable after %s", e.Endpoint.Addr(), e.Elapsed.Round(time.Millisecond))
}

// ProvisioningError means an auxiliary service failed to start.
// Fatal to the job, never retried here.
type ProvisioningError struct {
	Service string
	Err     error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("service %q failed to start: %v", e.Service, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// StepFailure means a step exited non-zero. Remaining steps are skipped.
type StepFailure struct {
	Step     string
	ExitCode int
	Err      error
}

func (e *StepFailure) Error() string {
	return fmt.Sprintf("%s failed with exit code %d", e.Step, e.ExitCode)
}

func (e *StepFailure) Unwrap() error { return e.Err }
