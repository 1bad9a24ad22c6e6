package splice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mapbind/internal/dom"
	"github.com/roach88/mapbind/internal/fault"
)

type fixture struct {
	host      *dom.Node
	content   *dom.Node
	sibling   *dom.Node
	container *dom.Node
}

func newFixture() fixture {
	host := dom.NewElement("div")
	content := dom.NewElement("div")
	content.AppendChild(dom.NewText("pin"))
	sibling := dom.NewElement("span")
	host.AppendChild(content)
	host.AppendChild(sibling)

	container := dom.NewElement("div")
	container.AddClass("mapboxgl-marker")
	container.SetStyle("transform", "translate(10px, 20px)")
	return fixture{host: host, content: content, sibling: sibling, container: container}
}

// assertAtRest checks that exactly one placeholder is attached and the
// content sits at the other position.
func assertAtRest(t *testing.T, f fixture, s *Slot) {
	t.Helper()
	hostAttached := s.hostPlace.Parent != nil
	engineAttached := s.enginePlace.Parent != nil
	assert.NotEqual(t, hostAttached, engineAttached, "exactly one placeholder must be attached")
	if s.Spliced() {
		assert.Equal(t, f.container, f.content.Parent)
		assert.Equal(t, f.host, s.hostPlace.Parent)
	} else {
		assert.Equal(t, f.host, f.content.Parent)
		assert.Equal(t, f.container, s.enginePlace.Parent)
	}
}

func TestAttachMovesContent(t *testing.T) {
	f := newFixture()
	s := New(f.content)
	require.NoError(t, s.Attach(f.container, nil))

	assert.True(t, s.Spliced())
	assert.Equal(t, "<div><!--host-place--><span></span></div>", f.host.String())
	assert.Equal(t, f.container, f.content.Parent)
	assertAtRest(t, f, s)
}

func TestRestoreAndReapplyAreIdempotent(t *testing.T) {
	f := newFixture()
	s := New(f.content)
	require.NoError(t, s.Attach(f.container, nil))

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Restore())
		require.NoError(t, s.Restore())
		assert.False(t, s.Spliced())
		assert.Equal(t, f.content, f.host.FirstChild())
		assertAtRest(t, f, s)

		require.NoError(t, s.Reapply())
		require.NoError(t, s.Reapply())
		assert.True(t, s.Spliced())
		assertAtRest(t, f, s)
	}
}

func TestAttachAtInsertionPoint(t *testing.T) {
	f := newFixture()
	tip := dom.NewElement("i")
	f.container.AppendChild(tip)

	s := New(f.content)
	require.NoError(t, s.Attach(f.container, tip))
	assert.Equal(t, []*dom.Node{f.content, tip}, f.container.Children())

	require.NoError(t, s.Restore())
	assert.Equal(t, s.enginePlace, f.container.FirstChild())
	require.NoError(t, s.Reapply())
	assert.Equal(t, []*dom.Node{f.content, tip}, f.container.Children())
}

func TestDetachLeavesHostShape(t *testing.T) {
	f := newFixture()
	s := New(f.content)
	require.NoError(t, s.Attach(f.container, nil))

	require.NoError(t, s.Detach())
	require.NoError(t, s.Detach())
	assert.False(t, s.Attached())
	assert.Equal(t, "<div><div>pin</div><span></span></div>", f.host.String())
	assert.Empty(t, f.container.Children())

	require.NoError(t, s.Reapply())
	assert.Equal(t, f.host, f.content.Parent)
}

func TestStructuralViolations(t *testing.T) {
	t.Run("content outside host tree", func(t *testing.T) {
		s := New(dom.NewElement("div"))
		err := s.Attach(dom.NewElement("div"), nil)
		assert.True(t, fault.IsStructural(err))
	})

	t.Run("missing container", func(t *testing.T) {
		f := newFixture()
		err := New(f.content).Attach(nil, nil)
		assert.True(t, fault.IsStructural(err))
	})

	t.Run("insertion point outside container", func(t *testing.T) {
		f := newFixture()
		err := New(f.content).Attach(f.container, dom.NewElement("i"))
		assert.True(t, fault.IsStructural(err))
	})

	t.Run("double attach", func(t *testing.T) {
		f := newFixture()
		s := New(f.content)
		require.NoError(t, s.Attach(f.container, nil))
		assert.True(t, fault.IsStructural(s.Attach(f.container, nil)))
	})

	t.Run("host parent removed before restore", func(t *testing.T) {
		f := newFixture()
		s := New(f.content)
		require.NoError(t, s.Attach(f.container, nil))

		require.NoError(t, f.host.RemoveChild(f.host.FirstChild()))
		err := s.Restore()
		require.Error(t, err)
		assert.True(t, fault.IsStructural(err))
		assert.True(t, fault.IsStructural(s.Detach()))
	})

	t.Run("engine placeholder removed before reapply", func(t *testing.T) {
		f := newFixture()
		s := New(f.content)
		require.NoError(t, s.Attach(f.container, nil))
		require.NoError(t, s.Restore())

		f.container.FirstChild().Remove()
		assert.True(t, fault.IsStructural(s.Reapply()))
	})
}

func TestEngineDecorationSurvivesCycles(t *testing.T) {
	f := newFixture()
	s := New(f.content)
	s.Decorate([]string{"pin"}, map[string]string{"color": "red"})
	require.NoError(t, s.Attach(f.container, nil))

	assert.Equal(t, []string{"pin", "mapboxgl-marker"}, f.container.Classes())
	assert.Equal(t, map[string]string{"color": "red", "transform": "translate(10px, 20px)"}, f.container.Style())

	f.container.SetStyle("transform", "translate(99px, 1px)")
	f.container.AddClass("mapboxgl-marker-anchor-center")

	require.NoError(t, s.Restore())
	s.Decorate([]string{"pin", "active"}, nil)
	require.NoError(t, s.Reapply())

	assert.Equal(t, []string{"pin", "active", "mapboxgl-marker", "mapboxgl-marker-anchor-center"}, f.container.Classes())
	assert.Equal(t, map[string]string{"transform": "translate(99px, 1px)"}, f.container.Style())
}

func TestMergeClasses(t *testing.T) {
	got := MergeClasses([]string{"old", "mapboxgl-popup", "pin"}, []string{"pin", "new", "pin"})
	assert.Equal(t, []string{"pin", "new", "mapboxgl-popup"}, got)
}

func TestMergeStyle(t *testing.T) {
	got := MergeStyle(
		map[string]string{"transform": "a", "transform-origin": "b", "color": "blue"},
		map[string]string{"color": "red", "transform": "mine"},
	)
	assert.Equal(t, map[string]string{"transform": "a", "transform-origin": "b", "color": "red"}, got)
}
