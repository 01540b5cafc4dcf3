package core

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Workflow represents the entire pipeline declaration (from workflow.yaml)
type Workflow struct {
	Name string            `yaml:"name"` // workflow name (e.g. "mqclient-ci")
	Env  map[string]string `yaml:"env"`  // workflow constants (e.g. CLIENT_VERSION for download URLs)
	Jobs []JobSpec         `yaml:"jobs"` // independent jobs; outcome order follows this order
}

// JobSpec is one unit of work: an image, the services it needs,
// the endpoints it waits for, and the steps it runs
type JobSpec struct {
	Name     string                 `yaml:"name"`     // unique within the workflow
	Image    string                 `yaml:"image"`    // execution environment (e.g. "python:3.8")
	Services []Service              `yaml:"services"` // auxiliary containers, started before the job
	WaitFor  []ReadinessRequirement `yaml:"wait_for"` // gates; all must pass before steps run
	Steps    []Step                 `yaml:"steps"`    // run strictly in order
	Env      map[string]string      `yaml:"env"`      // shared by every step; step env wins on conflict
}

// Service is an opaque auxiliary container/process a job depends on.
// The runner only starts it and waits on its ports, never speaks its protocol.
type Service struct {
	Name    string `yaml:"name"`
	Image   string `yaml:"image"`
	Command string `yaml:"command"` // optional startup override
}

// Step represents a single command inside a job
type Step struct {
	Name       string            `yaml:"name"` // optional label
	Run        string            `yaml:"run"`  // command to execute (e.g. "pytest tests")
	Env        map[string]string `yaml:"env"`  // per-step overrides
	Background bool              `yaml:"background"` // start and move on; reaped when the job ends
}

// Label returns the step name, falling back to its position
func (s Step) Label(i int) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("step-%d", i+1)
}

// Endpoint identifies one TCP readiness target
type Endpoint struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

// Addr formats the endpoint for net.Dial
func (e Endpoint) Addr() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// ReadinessRequirement gates step execution on a reachable endpoint
type ReadinessRequirement struct {
	Endpoint `yaml:",inline"`
	Timeout  Duration `yaml:"timeout"`
}

// Duration lets timeouts be written as "60s" / "1m" in yaml
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MergedEnv overlays step env on top of the job's shared env.
// Step-level keys win on conflict.
func (j JobSpec) MergedEnv(s Step) map[string]string {
	merged := make(map[string]string, len(j.Env)+len(s.Env))
	for k, v := range j.Env {
		merged[k] = v
	}
	for k, v := range s.Env {
		merged[k] = v
	}
	return merged
}

// Validate checks the invariants the runner relies on
func (w *Workflow) Validate() error {
	seen := make(map[string]bool, len(w.Jobs))
	for _, job := range w.Jobs {
		if job.Name == "" {
			return fmt.Errorf("job with empty name")
		}
		if seen[job.Name] {
			return fmt.Errorf("duplicate job name %q", job.Name)
		}
		seen[job.Name] = true

		for _, req := range job.WaitFor {
			if req.Timeout <= 0 {
				return fmt.Errorf("job %q: wait_for %s: timeout must be positive", job.Name, req.Addr())
			}
			if req.Port <= 0 || req.Port > 65535 {
				return fmt.Errorf("job %q: wait_for: invalid port %d", job.Name, req.Port)
			}
		}
		for i, step := range job.Steps {
			if step.Run == "" {
				return fmt.Errorf("job %q: %s has empty command", job.Name, step.Label(i))
			}
		}
	}
	return nil
}

// resolveEnv substitutes ${VAR} references to workflow constants in job
// env, step env and step commands. Resolution happens once at load time
// so the executed commands are auditable; unknown variables are left for
// the shell.
func (w *Workflow) resolveEnv() {
	expand := func(s string) string {
		return os.Expand(s, func(key string) string {
			if v, ok := w.Env[key]; ok {
				return v
			}
			return "${" + key + "}"
		})
	}

	for ji := range w.Jobs {
		job := &w.Jobs[ji]
		for _, k := range sortedKeys(job.Env) {
			job.Env[k] = expand(job.Env[k])
		}
		for si := range job.Services {
			svc := &job.Services[si]
			svc.Image = expand(svc.Image)
			svc.Command = expand(svc.Command)
		}
		for si := range job.Steps {
			step := &job.Steps[si]
			step.Run = expand(step.Run)
			for _, k := range sortedKeys(step.Env) {
				step.Env[k] = expand(step.Env[k])
			}
		}
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
