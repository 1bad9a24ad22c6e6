package harness

import (
	"bytes"
	"fmt"
	"strconv"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/fault"
	"github.com/roach88/mapbind/internal/mapengine"
)

// FormatCall renders one call as "seq op target args", with "-" for an
// empty target and canonical JSON args.
func FormatCall(c mapengine.Call) (string, error) {
	args := c.Args
	if args == nil {
		args = desc.Object{}
	}
	argsJSON, err := desc.MarshalCanonical(args)
	if err != nil {
		return "", fmt.Errorf("call %d: %w", c.Seq, err)
	}
	target := c.Target
	if target == "" {
		target = "-"
	}
	return strconv.FormatInt(c.Seq, 10) + " " + c.Op + " " + target + " " + string(argsJSON), nil
}

// Snapshot renders the deterministic part of a result as text: the
// journaled calls, the lifecycle trace, the DOM snapshots and the codes
// of boundary failures ("-" when uncategorized), one section each.
func Snapshot(name string, r *Result) ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "scenario: %s\n", name)
	fmt.Fprintf(&b, "session: %s\n", r.Session)

	b.WriteString("calls:\n")
	for _, c := range r.Calls {
		line, err := FormatCall(c)
		if err != nil {
			return nil, err
		}
		b.WriteString("  " + line + "\n")
	}

	b.WriteString("lifecycle:\n")
	for _, e := range r.Lifecycle {
		b.WriteString("  " + e + "\n")
	}

	b.WriteString("snapshots:\n")
	for _, s := range r.Snapshots {
		b.WriteString("  " + s + "\n")
	}

	b.WriteString("failures:\n")
	for _, err := range r.Failures {
		code := string(fault.CodeOf(err))
		if code == "" {
			code = "-"
		}
		b.WriteString("  " + code + "\n")
	}
	return b.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its snapshot with
// testdata/golden/<name>.golden.
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
// Regenerate with: go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result with its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
