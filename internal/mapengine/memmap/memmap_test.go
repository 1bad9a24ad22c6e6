package memmap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/dom"
	"github.com/roach88/mapbind/internal/ident"
	"github.com/roach88/mapbind/internal/mapengine"
)

func newTestMap(t *testing.T, opts ...Option) *Map {
	t.Helper()
	return New(dom.NewElement("div"), nil, opts...)
}

func ops(calls []mapengine.Call) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Op
	}
	return out
}

func TestRecordsCallsWithSequence(t *testing.T) {
	m := newTestMap(t, WithClock(ident.NewClockAt(100)), WithSession("s1"))
	require.NoError(t, m.AddSource("pts", desc.Object{"type": "geojson", "data": "a.json"}))
	m.TriggerRepaint()

	calls := m.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, []string{mapengine.OpCreate, mapengine.OpAddSource, mapengine.OpTriggerRepaint}, ops(calls))
	assert.Equal(t, int64(101), calls[0].Seq)
	assert.Equal(t, int64(103), calls[2].Seq)
	assert.Equal(t, "s1", calls[1].Session)
	assert.Equal(t, "pts", calls[1].Target)
}

func TestRecorderReceivesCalls(t *testing.T) {
	var got []string
	rec := mapengine.RecorderFunc(func(_ context.Context, c mapengine.Call) error {
		got = append(got, c.Op)
		return errors.New("disk full")
	})
	m := newTestMap(t, WithRecorder(rec))
	m.TriggerRepaint()

	assert.Equal(t, []string{mapengine.OpCreate, mapengine.OpTriggerRepaint}, got)
	assert.Len(t, m.Calls(), 2)
}

func TestOnceAndStyleLoad(t *testing.T) {
	m := newTestMap(t)
	assert.False(t, m.IsStyleLoaded())

	var fired, canceled int
	m.Once(mapengine.EventStyleLoad, func() { fired++ })
	cancel := m.Once(mapengine.EventStyleLoad, func() { canceled++ })
	cancel()

	m.FinishStyleLoad()
	m.FinishStyleLoad()

	assert.True(t, m.IsStyleLoaded())
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, canceled)
}

func TestListenersScopedToLayer(t *testing.T) {
	m := newTestMap(t)
	var all, roads int
	m.On("click", "", func(mapengine.Event) { all++ })
	id := m.On("click", "roads", func(mapengine.Event) { roads++ })

	m.Fire(mapengine.Event{Type: "click", Layer: "water"})
	m.Fire(mapengine.Event{Type: "click", Layer: "roads"})
	assert.Equal(t, 2, all)
	assert.Equal(t, 1, roads)

	m.Off(id)
	m.Off(id)
	m.Fire(mapengine.Event{Type: "click", Layer: "roads"})
	assert.Equal(t, 1, roads)
	assert.Equal(t, 1, m.ListenerCount())
}

func TestSourceRules(t *testing.T) {
	m := newTestMap(t)
	require.NoError(t, m.AddSource("s", desc.Object{"type": "geojson"}))
	assert.Error(t, m.AddSource("s", desc.Object{"type": "geojson"}))
	assert.Error(t, m.AddSource("t", desc.Object{}))

	require.NoError(t, m.AddLayer(desc.Object{"id": "l", "type": "fill", "source": "s"}, ""))
	err := m.RemoveSource("s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "in use")

	require.NoError(t, m.RemoveLayer("l"))
	require.NoError(t, m.RemoveSource("s"))
	assert.Empty(t, m.SourceIDs())
}

func TestTypedSourceHandles(t *testing.T) {
	m := newTestMap(t)
	require.NoError(t, m.AddSource("g", desc.Object{"type": "geojson"}))
	require.NoError(t, m.AddSource("c", desc.Object{"type": "canvas"}))
	require.NoError(t, m.AddSource("r", desc.Object{"type": "raster"}))

	g, _ := m.Source("g")
	_, ok := g.(mapengine.GeoJSONSource)
	assert.True(t, ok)

	c, _ := m.Source("c")
	canvas, ok := c.(mapengine.CanvasSource)
	require.True(t, ok)
	canvas.Pause()
	spec, _ := m.SourceSpec("c")
	assert.Equal(t, false, spec["animate"])

	r, _ := m.Source("r")
	_, ok = r.(mapengine.GeoJSONSource)
	assert.False(t, ok)
	assert.Equal(t, "raster", r.Type())
}

func TestImageSourcePixels(t *testing.T) {
	m := newTestMap(t)
	px := []byte{1, 2, 3, 4}
	require.NoError(t, m.AddSource("img", desc.Object{
		"type":        "image",
		"pixels":      px,
		"coordinates": []any{[]any{0.0, 1.0}, []any{1.0, 1.0}, []any{1.0, 0.0}, []any{0.0, 0.0}},
	}))

	spec, _ := m.SourceSpec("img")
	assert.Equal(t, px, spec["pixels"])

	calls := m.Calls()
	recorded, ok := calls[len(calls)-1].Args.Object("spec")
	require.True(t, ok)
	assert.Equal(t, float64(4), recorded["pixels"])
	_, err := desc.MarshalCanonical(calls[len(calls)-1].Args)
	require.NoError(t, err, "recorded args must encode")

	s, _ := m.Source("img")
	img, ok := s.(mapengine.ImageSource)
	require.True(t, ok)
	img.UpdateImage("b.png", nil, desc.Quad{})
	spec, _ = m.SourceSpec("img")
	assert.Equal(t, "b.png", spec["url"])
	assert.NotContains(t, spec, "pixels")
}

func TestLayerOrdering(t *testing.T) {
	m := newTestMap(t)
	require.NoError(t, m.AddLayer(desc.Object{"id": "a", "type": "background"}, ""))
	require.NoError(t, m.AddLayer(desc.Object{"id": "b", "type": "background"}, ""))
	require.NoError(t, m.AddLayer(desc.Object{"id": "c", "type": "background"}, "a"))
	assert.Equal(t, []string{"c", "a", "b"}, m.LayerIDs())

	require.NoError(t, m.MoveLayer("c", ""))
	assert.Equal(t, []string{"a", "b", "c"}, m.LayerIDs())
	require.NoError(t, m.MoveLayer("b", "a"))
	assert.Equal(t, []string{"b", "a", "c"}, m.LayerIDs())

	assert.Error(t, m.AddLayer(desc.Object{"id": "d", "type": "fill"}, "missing"))
	assert.Error(t, m.AddLayer(desc.Object{"id": "e", "type": "fill", "source": "missing"}, ""))
	assert.Error(t, m.SetPaintProperty("missing", "fill-color", "red"))
}

func TestLayerSetters(t *testing.T) {
	m := newTestMap(t)
	require.NoError(t, m.AddLayer(desc.Object{"id": "a", "type": "fill"}, ""))
	require.NoError(t, m.SetPaintProperty("a", "fill-color", "red"))
	require.NoError(t, m.SetLayoutProperty("a", "visibility", "none"))
	require.NoError(t, m.SetFilter("a", []any{"has", "x"}))
	require.NoError(t, m.SetLayerZoomRange("a", 2, 10))
	live, ok := m.Layer("a")
	require.True(t, ok)
	live.Assign(desc.Object{"metadata": "m"})

	spec, _ := m.LayerSpec("a")
	assert.Equal(t, desc.Object{"fill-color": "red"}, spec["paint"])
	assert.Equal(t, desc.Object{"visibility": "none"}, spec["layout"])
	assert.Equal(t, float64(10), spec["maxzoom"])
	assert.Equal(t, "m", spec["metadata"])
}

func TestImages(t *testing.T) {
	m := newTestMap(t)
	img, err := m.LoadImage(context.Background(), "a.png")
	require.NoError(t, err)
	require.NoError(t, m.AddImage("a", img))
	assert.Error(t, m.AddImage("a", img))
	assert.True(t, m.HasImage("a"))

	m.RemoveImage("a")
	m.RemoveImage("a")
	assert.Empty(t, m.Images())
}

func TestMarkerContainer(t *testing.T) {
	m := newTestMap(t)
	mk := m.NewMarker(nil)
	el := mk.Element()
	assert.True(t, el.HasClass("mapboxgl-marker"))

	mk.SetLngLat(desc.LngLat{Lng: 0, Lat: 0})
	mk.AddTo(m)
	assert.Equal(t, m.Container(), el.Parent)
	assert.Equal(t, "translate(256px, 256px) translate(-50%, -50%)", el.Style()["transform"])

	mk.AddTo(m)
	assert.Len(t, m.Container().Children(), 1)
	assert.Equal(t, 1, m.OverlayCount())

	mk.Remove()
	assert.Nil(t, el.Parent)
	assert.Equal(t, 0, m.OverlayCount())
}

func TestClosePopups(t *testing.T) {
	m := newTestMap(t)
	p := m.NewPopup(desc.Object{"closeButton": false})
	p.SetLngLat(desc.LngLat{Lng: 10, Lat: 20})
	p.AddTo(m)
	require.True(t, p.IsOpen())

	var closed int
	m.On(mapengine.EventClose, "", func(mapengine.Event) { closed++ })
	before := len(m.Calls())

	assert.Equal(t, 1, m.ClosePopups())
	assert.False(t, p.IsOpen())
	assert.Equal(t, 1, closed)
	assert.Len(t, m.Calls(), before, "autonomous close is not a binder call")

	p.AddTo(m)
	assert.True(t, p.IsOpen())
	assert.True(t, p.Element().HasClass("mapboxgl-popup-content"))
}

func TestFactoryAndRemove(t *testing.T) {
	factory := Factory(WithStyleLoaded())
	_, err := factory(nil, nil)
	assert.Error(t, err)

	container := dom.NewElement("div")
	eng, err := factory(container, desc.Object{"style": "streets"})
	require.NoError(t, err)
	assert.True(t, eng.IsStyleLoaded())
	assert.True(t, container.HasClass("mapboxgl-map"))

	mk := eng.NewMarker(nil)
	mk.AddTo(eng)
	eng.Remove()
	eng.Remove()
	assert.Empty(t, container.Children())
	assert.True(t, eng.(*Map).Removed())
}
