package harness

import (
	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/mapengine"
)

// Result captures the outcome of running a scenario.
type Result struct {
	// Pass is true when no step failed and every assertion held.
	Pass bool

	// Session is the journal session the run recorded into.
	Session string

	// Calls are the journaled engine calls, ordered by seq.
	Calls []mapengine.Call

	// Lifecycle is the attach/detach trace, one "phase entity" per entry.
	Lifecycle []string

	// Snapshots are the host DOM markups taken by snapshot steps.
	Snapshots []string

	// Failures are the errors that reached the error boundary.
	Failures []error

	// State is the engine state after the last step.
	State State

	// Errors contains step and assertion failure messages.
	Errors []string
}

// State summarizes the live engine and host tree.
type State struct {
	Sources   []string
	Layers    []string
	Images    []string
	Overlays  int
	Listeners int
	// Spliced counts host placeholders standing in for relocated content.
	Spliced int
	// Fired counts invocations per scenario listener.
	Fired map[string]int
}

// NewResult creates an empty passing result with initialized slices.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Calls:     []mapengine.Call{},
		Lifecycle: []string{},
		Snapshots: []string{},
		Failures:  []error{},
		Errors:    []string{},
		State:     State{Fired: map[string]int{}},
	}
}

// AddError marks the result failed.
func (r *Result) AddError(msg string) {
	r.Pass = false
	r.Errors = append(r.Errors, msg)
}

// Assertion is one check on a run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Op, Target and Args match calls. Args is a subset match.
	Op     string         `yaml:"op,omitempty"`
	Target string         `yaml:"target,omitempty"`
	Args   map[string]any `yaml:"args,omitempty"`

	// Calls lists "op" or "op target" entries for call_order.
	Calls []string `yaml:"calls,omitempty"`

	// Count is the expected count for call_count, spliced, overlays,
	// listeners and fired.
	Count *int `yaml:"count,omitempty"`

	// IDs is the expected id list for sources, layers and images.
	IDs []string `yaml:"ids,omitempty"`

	// Entries is the expected lifecycle trace.
	Entries []string `yaml:"entries,omitempty"`

	// Listener names the listener a fired assertion counts.
	Listener string `yaml:"listener,omitempty"`

	// Code is the fault code a failure assertion expects.
	Code string `yaml:"code,omitempty"`
}

// Assertion types.
const (
	AssertCallContains     = "call_contains"
	AssertCallOrder        = "call_order"
	AssertCallCount        = "call_count"
	AssertSources          = "sources"
	AssertLayers           = "layers"
	AssertImages           = "images"
	AssertOverlays         = "overlays"
	AssertListeners        = "listeners"
	AssertSpliced          = "spliced"
	AssertFired            = "fired"
	AssertLifecycle        = "lifecycle"
	AssertDetachPalindrome = "detach_palindrome"
	AssertFailure          = "failure"
	AssertNoFailure        = "no_failure"
)

// argsObject normalizes expected args the way recorded args are.
func argsObject(args map[string]any) (desc.Object, error) {
	return desc.NormalizeObject(args)
}
