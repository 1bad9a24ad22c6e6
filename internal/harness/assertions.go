package harness

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/fault"
	"github.com/roach88/mapbind/internal/mapengine"
)

// AssertionError describes why an assertion failed.
type AssertionError struct {
	Type     string
	Expected any
	Actual   any
	Message  string
}

func (e *AssertionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("expected %v, got %v", e.Expected, e.Actual)
}

// validateAssertion checks that an assertion carries the fields its type
// needs.
func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertCallContains:
		if a.Op == "" {
			return fmt.Errorf("%s requires op", a.Type)
		}
	case AssertCallCount:
		if a.Op == "" || a.Count == nil {
			return fmt.Errorf("%s requires op and count", a.Type)
		}
	case AssertCallOrder:
		if len(a.Calls) < 2 {
			return fmt.Errorf("%s requires at least two calls", a.Type)
		}
	case AssertOverlays, AssertListeners, AssertSpliced:
		if a.Count == nil {
			return fmt.Errorf("%s requires count", a.Type)
		}
	case AssertFired:
		if a.Listener == "" || a.Count == nil {
			return fmt.Errorf("%s requires listener and count", a.Type)
		}
	case AssertFailure:
		if a.Code == "" {
			return fmt.Errorf("%s requires code", a.Type)
		}
	case AssertSources, AssertLayers, AssertImages, AssertLifecycle,
		AssertDetachPalindrome, AssertNoFailure:
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// EvaluateAssertion checks one assertion against a result.
func EvaluateAssertion(a Assertion, r *Result) error {
	switch a.Type {
	case AssertCallContains:
		return assertCallContains(a, r.Calls)
	case AssertCallOrder:
		return assertCallOrder(a, r.Calls)
	case AssertCallCount:
		n := len(matchingCalls(r.Calls, a.Op, a.Target))
		return expectCount(a.Type, *a.Count, n)
	case AssertSources:
		return expectIDs(a.Type, a.IDs, r.State.Sources)
	case AssertLayers:
		return expectIDs(a.Type, a.IDs, r.State.Layers)
	case AssertImages:
		return expectIDs(a.Type, a.IDs, r.State.Images)
	case AssertOverlays:
		return expectCount(a.Type, *a.Count, r.State.Overlays)
	case AssertListeners:
		return expectCount(a.Type, *a.Count, r.State.Listeners)
	case AssertSpliced:
		return expectCount(a.Type, *a.Count, r.State.Spliced)
	case AssertFired:
		n, ok := r.State.Fired[a.Listener]
		if !ok {
			return &AssertionError{Type: a.Type, Message: fmt.Sprintf("unknown listener %q", a.Listener)}
		}
		return expectCount(a.Type, *a.Count, n)
	case AssertLifecycle:
		return expectIDs(a.Type, a.Entries, r.Lifecycle)
	case AssertDetachPalindrome:
		return assertPalindrome(r.Lifecycle)
	case AssertFailure:
		for _, err := range r.Failures {
			if string(fault.CodeOf(err)) == a.Code {
				return nil
			}
		}
		return &AssertionError{Type: a.Type, Expected: a.Code, Actual: failureCodes(r.Failures),
			Message: fmt.Sprintf("no failure with code %s (got %v)", a.Code, failureCodes(r.Failures))}
	case AssertNoFailure:
		if len(r.Failures) > 0 {
			return &AssertionError{Type: a.Type, Message: fmt.Sprintf("unexpected failure: %v", r.Failures[0])}
		}
		return nil
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func assertCallContains(a Assertion, calls []mapengine.Call) error {
	want, err := argsObject(a.Args)
	if err != nil {
		return fmt.Errorf("args: %w", err)
	}
	for _, c := range matchingCalls(calls, a.Op, a.Target) {
		if subsetMatch(want, c.Args) {
			return nil
		}
	}
	label := a.Op
	if a.Target != "" {
		label += " " + a.Target
	}
	return &AssertionError{
		Type:    a.Type,
		Message: fmt.Sprintf("no call %s with args %v", label, a.Args),
	}
}

// assertCallOrder checks that the listed calls appear in order, not
// necessarily adjacent.
func assertCallOrder(a Assertion, calls []mapengine.Call) error {
	next := 0
	for _, c := range calls {
		if next < len(a.Calls) && callMatches(c, a.Calls[next]) {
			next++
		}
	}
	if next < len(a.Calls) {
		return &AssertionError{
			Type:    a.Type,
			Message: fmt.Sprintf("call %q not found after %v", a.Calls[next], a.Calls[:next]),
		}
	}
	return nil
}

// callMatches matches a call against "op" or "op target".
func callMatches(c mapengine.Call, entry string) bool {
	op, target, hasTarget := strings.Cut(entry, " ")
	if c.Op != op {
		return false
	}
	return !hasTarget || c.Target == target
}

func matchingCalls(calls []mapengine.Call, op, target string) []mapengine.Call {
	var out []mapengine.Call
	for _, c := range calls {
		if c.Op == op && (target == "" || c.Target == target) {
			out = append(out, c)
		}
	}
	return out
}

// subsetMatch reports whether every key of want is present in got with a
// matching value. Nested objects match recursively; everything else must
// be deeply equal.
func subsetMatch(want, got desc.Object) bool {
	for k, wv := range want {
		gv, ok := got[k]
		if !ok {
			return false
		}
		wo, wIsObj := wv.(desc.Object)
		if wIsObj {
			gn, err := desc.Normalize(gv)
			if err != nil {
				return false
			}
			gotObj, gIsObj := gn.(desc.Object)
			if !gIsObj || !subsetMatch(wo, gotObj) {
				return false
			}
			continue
		}
		gn, err := desc.Normalize(gv)
		if err != nil || !reflect.DeepEqual(wv, gn) {
			return false
		}
	}
	return true
}

func expectCount(typ string, want, got int) error {
	if want != got {
		return &AssertionError{Type: typ, Expected: want, Actual: got}
	}
	return nil
}

func expectIDs(typ string, want, got []string) error {
	if len(want) == 0 && len(got) == 0 {
		return nil
	}
	if !slices.Equal(want, got) {
		return &AssertionError{Type: typ, Expected: want, Actual: got}
	}
	return nil
}

func assertPalindrome(lifecycle []string) error {
	ents := make([]string, len(lifecycle))
	for i, e := range lifecycle {
		_, ents[i], _ = strings.Cut(e, " ")
	}
	for i, j := 0, len(ents)-1; i < j; i, j = i+1, j-1 {
		if ents[i] != ents[j] {
			return &AssertionError{
				Type:    AssertDetachPalindrome,
				Message: fmt.Sprintf("entry %d (%s) does not mirror entry %d (%s)", i, lifecycle[i], j, lifecycle[j]),
			}
		}
	}
	return nil
}

func failureCodes(errs []error) []string {
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = string(fault.CodeOf(err))
	}
	return out
}
