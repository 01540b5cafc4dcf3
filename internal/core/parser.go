package core

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ParseWorkflow parses YAML content into a Workflow, resolves ${VAR}
// references to workflow constants and validates the result.
func ParseWorkflow(data []byte) (*Workflow, error) {
	var wf Workflow
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, err
	}
	wf.resolveEnv()
	if err := wf.Validate(); err != nil {
		return nil, err
	}
	return &wf, nil
}

// LoadWorkflow reads workflow.yaml and returns a Workflow object
func LoadWorkflow(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseWorkflow(data)
}
