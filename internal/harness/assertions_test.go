package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/fault"
	"github.com/roach88/mapbind/internal/mapengine"
)

func intp(n int) *int { return &n }

func sampleResult() *Result {
	r := NewResult()
	r.Calls = []mapengine.Call{
		{Seq: 1, Op: "create", Args: desc.Object{"options": desc.Object{"zoom": 2.0}}},
		{Seq: 2, Op: "add_source", Target: "pts", Args: desc.Object{"spec": desc.Object{"type": "geojson", "data": "a.json"}}},
		{Seq: 3, Op: "add_layer", Target: "dots", Args: desc.Object{"before": "", "spec": desc.Object{"id": "dots"}}},
		{Seq: 4, Op: "set_paint_property", Target: "dots", Args: desc.Object{"name": "circle-radius", "value": 6.0}},
	}
	r.Lifecycle = []string{"attach map", "attach source:pts", "detach source:pts", "detach map"}
	r.State = State{
		Sources:  []string{"pts"},
		Layers:   []string{"dots"},
		Overlays: 1,
		Spliced:  1,
		Fired:    map[string]int{"clicked": 2},
	}
	return r
}

func TestEvaluateAssertion_Pass(t *testing.T) {
	r := sampleResult()
	tests := []struct {
		name string
		a    Assertion
	}{
		{"call contains with nested args", Assertion{Type: AssertCallContains, Op: "add_source", Args: map[string]any{"spec": map[string]any{"type": "geojson"}}}},
		{"call contains integer value", Assertion{Type: AssertCallContains, Op: "set_paint_property", Target: "dots", Args: map[string]any{"value": 6}}},
		{"call contains without args", Assertion{Type: AssertCallContains, Op: "create"}},
		{"call order non adjacent", Assertion{Type: AssertCallOrder, Calls: []string{"create", "add_layer dots"}}},
		{"call count", Assertion{Type: AssertCallCount, Op: "add_layer", Count: intp(1)}},
		{"call count zero", Assertion{Type: AssertCallCount, Op: "remove_layer", Count: intp(0)}},
		{"sources", Assertion{Type: AssertSources, IDs: []string{"pts"}}},
		{"images empty", Assertion{Type: AssertImages}},
		{"overlays", Assertion{Type: AssertOverlays, Count: intp(1)}},
		{"spliced", Assertion{Type: AssertSpliced, Count: intp(1)}},
		{"fired", Assertion{Type: AssertFired, Listener: "clicked", Count: intp(2)}},
		{"palindrome", Assertion{Type: AssertDetachPalindrome}},
		{"no failure", Assertion{Type: AssertNoFailure}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, validateAssertion(tt.a))
			assert.NoError(t, EvaluateAssertion(tt.a, r))
		})
	}
}

func TestEvaluateAssertion_Fail(t *testing.T) {
	r := sampleResult()
	tests := []struct {
		name string
		a    Assertion
	}{
		{"call contains wrong value", Assertion{Type: AssertCallContains, Op: "set_paint_property", Args: map[string]any{"value": 4}}},
		{"call contains missing key", Assertion{Type: AssertCallContains, Op: "create", Args: map[string]any{"style": "x"}}},
		{"call order reversed", Assertion{Type: AssertCallOrder, Calls: []string{"add_layer", "add_source"}}},
		{"call count", Assertion{Type: AssertCallCount, Op: "add_layer", Count: intp(2)}},
		{"layers", Assertion{Type: AssertLayers, IDs: []string{"dots", "labels"}}},
		{"listeners", Assertion{Type: AssertListeners, Count: intp(1)}},
		{"fired unknown listener", Assertion{Type: AssertFired, Listener: "nope", Count: intp(0)}},
		{"failure absent", Assertion{Type: AssertFailure, Code: "MISSING_CONTEXT"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := EvaluateAssertion(tt.a, r)
			require.Error(t, err)
			var ae *AssertionError
			assert.ErrorAs(t, err, &ae)
		})
	}
}

func TestEvaluateAssertion_Failures(t *testing.T) {
	r := sampleResult()
	r.Failures = []error{errors.New("plain"), fault.MissingContext("parent_entity_id", "layer")}

	assert.NoError(t, EvaluateAssertion(Assertion{Type: AssertFailure, Code: "MISSING_CONTEXT"}, r))
	assert.Error(t, EvaluateAssertion(Assertion{Type: AssertNoFailure}, r))
}

func TestAssertPalindrome_Broken(t *testing.T) {
	err := assertPalindrome([]string{"attach map", "attach layer:a", "detach map", "detach layer:a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not mirror")
}

func TestValidateAssertion_Unknown(t *testing.T) {
	assert.Error(t, validateAssertion(Assertion{Type: "vibes"}))
	assert.Error(t, validateAssertion(Assertion{Type: AssertCallOrder, Calls: []string{"create"}}))
	assert.Error(t, validateAssertion(Assertion{Type: AssertFired, Count: intp(1)}))
}
