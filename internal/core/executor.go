package core

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
)

// Executor is responsible for running steps (commands)
type Executor struct{}

func NewExecutor() *Executor {
	return &Executor{}
}

// RunStep executes a single step and returns its combined output and
// exit code. The step runs in a shell (sh -c "cmd") with env layered on
// top of the process environment.
func (e *Executor) RunStep(ctx context.Context, step Step, env map[string]string) (string, int, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", step.Run)
	cmd.Env = append(os.Environ(), flattenEnv(env)...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return out.String(), code, err
	}
	return out.String(), 0, nil
}

// StartStep launches a background step and returns without waiting.
// The caller owns the process and reaps it when the job ends.
func (e *Executor) StartStep(ctx context.Context, step Step, env map[string]string) (*exec.Cmd, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", step.Run)
	cmd.Env = append(os.Environ(), flattenEnv(env)...)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// flattenEnv turns the merged map into KEY=VALUE pairs, sorted so runs
// are reproducible.
func flattenEnv(env map[string]string) []string {
	pairs := make([]string, 0, len(env))
	for _, k := range sortedKeys(env) {
		pairs = append(pairs, k+"="+env[k])
	}
	return pairs
}
