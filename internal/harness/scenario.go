package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines one binding scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Session is the journal session id. Defaults to DefaultSession.
	Session string `yaml:"session,omitempty"`

	// Document is a tree document path, relative to the scenario file.
	// Exactly one of Document and Tree is set.
	Document string `yaml:"document,omitempty"`

	// Tree is an inline tree in document form.
	Tree map[string]any `yaml:"tree,omitempty"`

	// StyleLoaded starts the engine with its style already loaded.
	StyleLoaded bool `yaml:"style_loaded,omitempty"`

	// FailingImages lists image urls whose load fails.
	FailingImages []string `yaml:"failing_images,omitempty"`

	// Listeners names the listeners event nodes may reference. Each one
	// counts its invocations.
	Listeners []string `yaml:"listeners,omitempty"`

	// Steps drive the mounted tree.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// DefaultSession is the session id of scenarios that do not set one.
const DefaultSession = "test-session-default"

// Step is one scenario action.
type Step struct {
	// Action is one of the Step* constants.
	Action string `yaml:"action"`

	// Times repeats rerender steps. Defaults to 1.
	Times int `yaml:"times,omitempty"`

	// Path addresses a node for update and remove: child indexes below
	// the root separated by "/", e.g. "0/1".
	Path string `yaml:"path,omitempty"`

	// Props are merged into the addressed node's props by update.
	Props map[string]any `yaml:"props,omitempty"`

	// Unset lists prop keys update removes.
	Unset []string `yaml:"unset,omitempty"`

	// Event and Layer describe the engine event a fire step emits.
	Event string `yaml:"event,omitempty"`
	Layer string `yaml:"layer,omitempty"`

	// ExpectError is the fault code the step must fail with, or "any".
	ExpectError string `yaml:"expect_error,omitempty"`

	// Assert is evaluated after the step; after every repetition for
	// rerender steps.
	Assert []Assertion `yaml:"assert,omitempty"`
}

// Step actions.
const (
	StepMount       = "mount"
	StepRerender    = "rerender"
	StepUpdate      = "update"
	StepRemove      = "remove"
	StepStyleLoaded = "style_loaded"
	StepSettle      = "settle"
	StepFire        = "fire"
	StepClosePopups = "close_popups"
	StepShake       = "shake"
	StepSnapshot    = "snapshot"
	StepUnmount     = "unmount"
)

var stepActions = map[string]bool{
	StepMount: true, StepRerender: true, StepUpdate: true, StepRemove: true,
	StepStyleLoaded: true, StepSettle: true, StepFire: true, StepClosePopups: true,
	StepShake: true, StepSnapshot: true, StepUnmount: true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Document paths are resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Document != "" && !filepath.IsAbs(scenario.Document) {
		scenario.Document = filepath.Join(filepath.Dir(path), scenario.Document)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadDir loads every .yaml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenarios found in %s", dir)
	}
	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = append(out, s)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if (s.Document == "") == (s.Tree == nil) {
		return fmt.Errorf("exactly one of document and tree is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if !stepActions[step.Action] {
			return fmt.Errorf("step %d: unknown action %q", i+1, step.Action)
		}
		if (step.Action == StepUpdate || step.Action == StepRemove) && step.Path == "" {
			return fmt.Errorf("step %d: %s requires path", i+1, step.Action)
		}
		if step.Action == StepFire && step.Event == "" {
			return fmt.Errorf("step %d: fire requires event", i+1)
		}
		for j, a := range step.Assert {
			if err := validateAssertion(a); err != nil {
				return fmt.Errorf("step %d assertion %d: %w", i+1, j+1, err)
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion %d: %w", i+1, err)
		}
	}

	return nil
}
