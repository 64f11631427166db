package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario is a YAML-described request sequence replayed into a fresh
// session. Scenarios drive demos and rehearsal runs without a live agent on
// the other end.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Agent       string         `yaml:"agent"`
	AutoScript  string         `yaml:"auto_script"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one request to submit.
type ScenarioStep struct {
	Agent   string         `yaml:"agent"`
	Payload map[string]any `yaml:"payload"`
}

// LoadScenarios reads every .yaml file in dir and returns the scenarios
// keyed by name, defaulting to the file's base name.
func LoadScenarios(dir string) (map[string]Scenario, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("error listing scenario files: %w", err)
	}

	scenarios := make(map[string]Scenario, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error reading YAML file: %w", err)
		}

		var sc Scenario
		if err := yaml.Unmarshal(data, &sc); err != nil {
			return nil, fmt.Errorf("error parsing YAML file %s: %w", file, err)
		}
		if sc.Name == "" {
			sc.Name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		}
		if err := sc.Validate(); err != nil {
			return nil, fmt.Errorf("invalid scenario %s: %w", sc.Name, err)
		}
		scenarios[sc.Name] = sc
	}
	return scenarios, nil
}

// Validate checks the scenario can actually be replayed.
func (sc Scenario) Validate() error {
	if len(sc.Steps) == 0 {
		return fmt.Errorf("scenario has no steps")
	}
	for i, step := range sc.Steps {
		if len(step.Payload) == 0 {
			return fmt.Errorf("step #%d has no payload", i)
		}
	}
	return nil
}

// Run replays the scenario into a new session on svc and returns the
// session. Decisions are whatever the service is configured for: manual by
// default, scripted when a responder is installed.
func (sc Scenario) Run(ctx context.Context, svc *Service) (*Session, error) {
	agent := sc.Agent
	if agent == "" {
		agent = "scenario"
	}

	sess, err := svc.CreateSession(ctx, agent, sc.Description)
	if err != nil {
		return nil, fmt.Errorf("error creating session for scenario %s: %w", sc.Name, err)
	}

	for i, step := range sc.Steps {
		payload, err := json.Marshal(step.Payload)
		if err != nil {
			return nil, fmt.Errorf("error encoding step #%d payload: %w", i, err)
		}

		stepAgent := step.Agent
		if stepAgent == "" {
			stepAgent = agent
		}
		if _, err := svc.SubmitRequest(ctx, sess.ID, stepAgent, payload); err != nil {
			return nil, fmt.Errorf("error submitting step #%d: %w", i, err)
		}
	}
	return sess, nil
}
