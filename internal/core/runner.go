package core

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"gateci/internal/storage"
	"gateci/pkg/utils"
)

// Provisioner starts a job's auxiliary services. The returned stop
// function tears them down; it is called when the job ends either way.
type Provisioner interface {
	Start(ctx context.Context, job string, services []Service) (stop func(), err error)
}

// Runner ties together Gate + Executor + provisioning + log storage.
// One Run call produces exactly one JobOutcome.
type Runner struct {
	Gate        *ReadinessGate
	Executor    *Executor
	Provisioner Provisioner         // optional; nil means services are managed elsewhere
	Logs        *storage.LogStorage // optional; nil disables log files
}

func NewRunner() *Runner {
	return &Runner{
		Gate:     NewReadinessGate(),
		Executor: NewExecutor(),
		Logs:     storage.NewLogStorage("./logs"),
	}
}

// Run executes one job to completion: provision services, await every
// readiness gate, then run steps strictly in order. The first failure
// wins and remaining steps are skipped.
func (r *Runner) Run(ctx context.Context, job JobSpec) JobOutcome {
	outcome := JobOutcome{Job: job.Name}

	if r.Provisioner != nil && len(job.Services) > 0 {
		stop, err := r.Provisioner.Start(ctx, job.Name, job.Services)
		if err != nil {
			outcome.Status = StatusErrored
			outcome.Reason = err.Error()
			return outcome
		}
		defer stop()
	}

	if err := r.Gate.AwaitAll(ctx, job.WaitFor); err != nil {
		var timeout *TimeoutError
		if errors.As(err, &timeout) {
			outcome.Status = StatusTimedOut
			outcome.Endpoint = &timeout.Endpoint
		} else {
			// cancelled mid-wait, or some other infra fault
			outcome.Status = StatusErrored
		}
		outcome.Reason = err.Error()
		return outcome
	}

	// Background steps are started, not waited on. Whatever is still
	// alive when the job ends gets killed.
	var background []*exec.Cmd
	defer func() {
		for _, cmd := range background {
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
				_ = cmd.Wait()
			}
		}
	}()

	for i, step := range job.Steps {
		label := step.Label(i)
		env := job.MergedEnv(step)

		if step.Background {
			fmt.Printf("[%s] starting in background: %s\n", job.Name, step.Run)
			cmd, err := r.Executor.StartStep(ctx, step, env)
			if err != nil {
				outcome.Status = StatusErrored
				outcome.FailingStep = label
				outcome.Reason = err.Error()
				return outcome
			}
			background = append(background, cmd)
			continue
		}

		fmt.Printf("[%s] running: %s\n", job.Name, step.Run)
		output, code, err := r.Executor.RunStep(ctx, step, env)

		if r.Logs != nil {
			logPath, logErr := r.Logs.SaveLog(job.Name, label, output)
			if logErr != nil {
				fmt.Printf("[%s] WARN: cannot save log: %v\n", job.Name, logErr)
			} else {
				fmt.Printf("[%s] log saved at %s\n", job.Name, logPath)
				if digest, hErr := utils.HashFile(logPath); hErr != nil {
					fmt.Printf("[%s] WARN: cannot hash log: %v\n", job.Name, hErr)
				} else {
					if outcome.LogDigests == nil {
						outcome.LogDigests = make(map[string]string)
					}
					outcome.LogDigests[label] = digest
				}
			}
		}

		if err != nil {
			if ctx.Err() != nil {
				outcome.Status = StatusErrored
				outcome.FailingStep = label
				outcome.Reason = ctx.Err().Error()
				return outcome
			}
			fail := &StepFailure{Step: label, ExitCode: code, Err: err}
			outcome.Status = StatusFailed
			outcome.FailingStep = label
			outcome.ExitCode = &code
			outcome.Reason = fail.Error()
			return outcome
		}
	}

	// a job with zero steps is vacuously passed once its gates clear
	outcome.Status = StatusPassed
	return outcome
}
