package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mapbind/internal/host"
	"github.com/roach88/mapbind/internal/store"
)

func TestScenarios(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestGolden(t *testing.T) {
	for _, name := range []string{"layer-update", "marker-splice"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/document-scene.yaml")
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	a, err := Snapshot(s.Name, first)
	require.NoError(t, err)
	b, err := Snapshot(s.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_DefaultSession(t *testing.T) {
	s := &Scenario{
		Name:        "default-session",
		Description: "d",
		StyleLoaded: true,
		Tree:        map[string]any{"kind": "map"},
		Steps:       []Step{{Action: StepMount}},
	}
	result, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, DefaultSession, result.Session)
	require.Len(t, result.Calls, 1)
	assert.Equal(t, DefaultSession, result.Calls[0].Session)
}

func TestRun_StepFailureIsReported(t *testing.T) {
	s := &Scenario{
		Name:        "unexpected",
		Description: "a failing mount without expect_error",
		StyleLoaded: true,
		Tree: map[string]any{
			"kind":     "map",
			"children": []any{map[string]any{"kind": "layer", "props": map[string]any{"type": "fill"}}},
		},
		Steps: []Step{{Action: StepMount}},
	}
	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "step 1 (mount): unexpected error")
}

func TestRun_ExpectedErrorMissing(t *testing.T) {
	s := &Scenario{
		Name:        "expected",
		Description: "expects an error that never comes",
		StyleLoaded: true,
		Tree:        map[string]any{"kind": "map"},
		Steps:       []Step{{Action: StepMount, ExpectError: "MISSING_CONTEXT"}},
	}
	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected error MISSING_CONTEXT, got none")
}

func TestRun_EngineStepBeforeMount(t *testing.T) {
	s := &Scenario{
		Name:        "early",
		Description: "fires before anything is mounted",
		Tree:        map[string]any{"kind": "map"},
		Steps:       []Step{{Action: StepFire, Event: "click", ExpectError: "any"}},
	}
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_InvalidTree(t *testing.T) {
	s := &Scenario{
		Name:        "bad-tree",
		Description: "tree without a kind",
		Tree:        map[string]any{"props": map[string]any{}},
		Steps:       []Step{{Action: StepMount}},
	}
	_, err := Run(s)
	assert.Error(t, err)
}

func TestRun_WithStoreJournalsSession(t *testing.T) {
	st, err := store.Open(store.MemoryPath)
	require.NoError(t, err)
	defer st.Close()

	s, err := LoadScenario("testdata/scenarios/layer-update.yaml")
	require.NoError(t, err)
	result, err := Run(s, WithStore(st))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	sess, calls, err := st.ReadSession(context.Background(), "golden-session")
	require.NoError(t, err)
	assert.Equal(t, "layer-update", sess.Label)
	assert.NotEmpty(t, sess.TreeHash)
	assert.False(t, sess.Open())
	assert.Equal(t, int64(len(calls)), sess.EndedSeq)
}

func TestRun_LeftMountedIsNotJournaled(t *testing.T) {
	st, err := store.Open(store.MemoryPath)
	require.NoError(t, err)
	defer st.Close()

	s := &Scenario{
		Name:        "left-mounted",
		Description: "never unmounts",
		Session:     "left",
		StyleLoaded: true,
		Tree:        map[string]any{"kind": "map"},
		Steps:       []Step{{Action: StepMount}},
	}
	_, err = Run(s, WithStore(st))
	require.NoError(t, err)

	_, calls, err := st.ReadSession(context.Background(), "left")
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "create", calls[0].Op)
}

func TestReplaceAt(t *testing.T) {
	leaf := host.El("layer", nil)
	other := host.El("layer", nil)
	root := host.El("map", nil, host.El("source", nil, leaf, other))

	next, err := replaceAt(root, "0/1", func(*host.Node) *host.Node { return nil })
	require.NoError(t, err)

	require.Len(t, next.Children[0].Children, 1)
	assert.Same(t, leaf, next.Children[0].Children[0])
	assert.Len(t, root.Children[0].Children, 2, "original tree is untouched")

	_, err = replaceAt(root, "0/5", func(n *host.Node) *host.Node { return n })
	assert.ErrorContains(t, err, "has no child 5")

	_, err = replaceAt(root, "x", func(n *host.Node) *host.Node { return n })
	assert.Error(t, err)
}
