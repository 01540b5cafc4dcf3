package core

import (
	"context"
	"sync"
)

// Scheduler fans independent jobs out and collects their outcomes.
// Jobs declare no dependencies on each other, so each one gets its own
// goroutine.
type Scheduler struct {
	Runner *Runner
}

func NewScheduler(r *Runner) *Scheduler {
	return &Scheduler{Runner: r}
}

// RunAll launches every job and waits for all of them. Each outcome is
// written into its job's declaration slot, so result order matches the
// workflow file no matter which job finishes first. A failed job never
// aborts its siblings; the verdict is computed after everyone reports.
func (s *Scheduler) RunAll(ctx context.Context, jobs []JobSpec) WorkflowResult {
	outcomes := make([]JobOutcome, len(jobs))

	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job JobSpec) {
			defer wg.Done()
			outcomes[i] = s.Runner.Run(ctx, job)
		}(i, job)
	}
	wg.Wait()

	return WorkflowResult{Outcomes: outcomes}
}
