package provision

import (
	"context"
	"fmt"
	"os/exec"

	"gateci/internal/core"
)

// ExecProvisioner starts each declared service by shelling out, one
// long-running process per service. The core never speaks the service's
// protocol; it only needs the process up so the readiness gates have
// something to dial.
type ExecProvisioner struct{}

func NewExecProvisioner() *ExecProvisioner {
	return &ExecProvisioner{}
}

// Start launches every service for a job and returns a stop function
// that kills whatever was started. A failure to start any service tears
// down the ones before it and reports a ProvisioningError.
func (p *ExecProvisioner) Start(ctx context.Context, job string, services []core.Service) (func(), error) {
	var started []*exec.Cmd
	stop := func() {
		for _, cmd := range started {
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
				_ = cmd.Wait()
			}
		}
	}

	for _, svc := range services {
		line := svc.Command
		if line == "" {
			// default: run the image on the host network so the
			// declared ports line up with the gate endpoints
			line = "docker run --rm --network host " + svc.Image
		}

		fmt.Printf("[%s] starting service %s: %s\n", job, svc.Name, line)
		cmd := exec.CommandContext(ctx, "sh", "-c", line)
		if err := cmd.Start(); err != nil {
			stop()
			return nil, &core.ProvisioningError{Service: svc.Name, Err: err}
		}
		started = append(started, cmd)
	}

	return stop, nil
}
