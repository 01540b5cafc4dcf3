package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"gateci/internal/core"
	"gateci/internal/history"
	"gateci/internal/provision"
)

func main() {
	// local overrides (.env), same file the server picks up
	_ = godotenv.Load()

	path := "workflow.yaml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	wf, err := core.LoadWorkflow(path)
	if err != nil {
		log.Fatalf("failed to load workflow: %v", err)
	}

	// Ctrl-C aborts in-flight gate waits and running steps; interrupted
	// jobs report errored, not passed.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := core.NewRunner()
	runner.Provisioner = provision.NewExecProvisioner()
	sched := core.NewScheduler(runner)

	fmt.Printf("Running workflow %q (%d jobs)\n", wf.Name, len(wf.Jobs))
	started := time.Now()
	result := sched.RunAll(ctx, wf.Jobs)
	finished := time.Now()

	record(wf.Name, started, finished, result)
	printBreakdown(result)

	if !result.Success() {
		os.Exit(1)
	}
}

// record appends the run to the local history file. History is an
// operator convenience; a broken history file never fails the run.
func record(workflow string, started, finished time.Time, result core.WorkflowResult) {
	hist, err := history.Open("./runs.jsonl")
	if err != nil {
		fmt.Printf("WARN: cannot open run history: %v\n", err)
		return
	}
	rec := history.Record{
		ID:       uuid.NewString(),
		Workflow: workflow,
		Started:  started,
		Finished: finished,
		Success:  result.Success(),
		Outcomes: result.Outcomes,
	}
	if err := hist.Append(rec); err != nil {
		fmt.Printf("WARN: cannot record run: %v\n", err)
	}
}

// printBreakdown emits the per-job, per-step verdict: which step (if
// any) failed and its exit code.
func printBreakdown(result core.WorkflowResult) {
	fmt.Println()
	for _, o := range result.Outcomes {
		switch o.Status {
		case core.StatusPassed:
			fmt.Printf("✅ %s: passed\n", o.Job)
		case core.StatusFailed:
			code := -1
			if o.ExitCode != nil {
				code = *o.ExitCode
			}
			fmt.Printf("❌ %s: %s failed (exit code %d)\n", o.Job, o.FailingStep, code)
		case core.StatusTimedOut:
			fmt.Printf("❌ %s: timed out waiting for %s\n", o.Job, o.Endpoint.Addr())
		default:
			fmt.Printf("❌ %s: errored: %s\n", o.Job, o.Reason)
		}
	}

	if result.Success() {
		fmt.Println("\nWorkflow finished successfully")
	} else {
		fmt.Println("\nWorkflow failed")
	}
}
