package desc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLngLat(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  LngLat
	}{
		{"array", []any{10, 20}, LngLat{10, 20}},
		{"floats", []float64{1.5, -2}, LngLat{1.5, -2}},
		{"object", map[string]any{"lng": 3, "lat": 4}, LngLat{3, 4}},
		{"lon alias", Object{"lon": 5.0, "lat": 6.0}, LngLat{5, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeLngLat(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := DecodeLngLat([]any{1})
	assert.Error(t, err)
	_, err = DecodeLngLat("nowhere")
	assert.Error(t, err)
}

func TestDecodeQuad(t *testing.T) {
	q, err := DecodeQuad([]any{
		[]any{0, 1}, []any{1, 1}, []any{1, 0}, []any{0, 0},
	})
	require.NoError(t, err)
	assert.Equal(t, LngLat{1, 0}, q[2])

	_, err = DecodeQuad([]any{[]any{0, 1}})
	assert.Error(t, err)
}

var quad = []any{[]any{0, 1}, []any{1, 1}, []any{1, 0}, []any{0, 0}}

func TestDecodeSourceVariants(t *testing.T) {
	tests := []struct {
		name string
		raw  Object
		kind SourceKind
	}{
		{"geojson", Object{"type": "geojson", "data": Object{"type": "FeatureCollection"}}, KindGeoJSON},
		{"canvas", Object{"type": "canvas", "canvas": "c1", "coordinates": quad, "animate": true}, KindCanvas},
		{"image", Object{"type": "image", "url": "a.png", "coordinates": quad}, KindImage},
		{"video", Object{"type": "video", "urls": []any{"a.mp4"}, "coordinates": quad}, KindVideo},
		{"raster", Object{"type": "raster", "tiles": []any{"t"}}, KindRaster},
		{"raster-dem", Object{"type": "raster-dem"}, KindRasterDEM},
		{"vector", Object{"type": "vector", "url": "v"}, KindVector},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := DecodeSource(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, src.Kind())
			assert.Equal(t, string(tt.kind), src.Spec()["type"])
		})
	}
}

func TestDecodeSourceErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  Object
	}{
		{"missing type", Object{}},
		{"unknown type", Object{"type": "mesh"}},
		{"canvas without quad", Object{"type": "canvas", "canvas": "c"}},
		{"image without payload", Object{"type": "image", "coordinates": quad}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSource(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestSourceSpecKeepsUnknownOptions(t *testing.T) {
	src, err := DecodeSource(Object{"id": "s", "type": "geojson", "data": "d.json", "cluster": true})
	require.NoError(t, err)
	spec := src.Spec()
	assert.Equal(t, true, spec["cluster"])
	assert.Equal(t, "d.json", spec["data"])
	assert.NotContains(t, spec, "id")
}

func TestImageSourceSpecCarriesPixels(t *testing.T) {
	px := []byte{0xff, 0x00, 0x00, 0xff}
	src, err := DecodeSource(Object{"type": "image", "pixels": px, "coordinates": quad})
	require.NoError(t, err)

	spec := src.Spec()
	assert.Equal(t, px, spec["pixels"])
	assert.NotContains(t, spec, "url")

	src, err = DecodeSource(Object{"type": "image", "url": "a.png", "coordinates": quad})
	require.NoError(t, err)
	assert.NotContains(t, src.Spec(), "pixels")
}

func TestDecodeLayerPartitions(t *testing.T) {
	l, err := DecodeLayer(Object{
		"id":       "roads",
		"type":     "line",
		"source":   "osm",
		"layout":   map[string]any{"line-cap": "round"},
		"paint":    map[string]any{"line-width": 2},
		"filter":   []any{"==", "kind", "road"},
		"minzoom":  4,
		"metadata": Object{"owner": "me"},
	})
	require.NoError(t, err)

	assert.Equal(t, "roads", l.ID)
	assert.Equal(t, Object{"line-cap": "round"}, l.Layout)
	assert.Equal(t, Object{"line-width": 2.0}, l.Paint)
	assert.Equal(t, float64(4), l.MinZoom)
	assert.Equal(t, float64(DefaultMaxZoom), l.MaxZoom)
	assert.Equal(t, Object{"metadata": Object{"owner": "me"}}, l.Other)

	spec := l.Spec()
	assert.Equal(t, "osm", spec["source"])
	assert.Equal(t, Object{"owner": "me"}, spec["metadata"])
}

func TestDecodeLayerErrors(t *testing.T) {
	_, err := DecodeLayer(Object{"id": "x"})
	assert.Error(t, err)

	_, err = DecodeLayer(Object{"type": "fill", "paint": "red"})
	assert.Error(t, err)

	_, err = DecodeLayer(Object{"type": "fill", "minzoom": 10, "maxzoom": 2})
	assert.Error(t, err)
}

func TestDecodeOverlay(t *testing.T) {
	ov, err := DecodeOverlay(Object{
		"position": []any{10, 20},
		"options":  Object{"offset": 5},
		"class":    "pin",
		"style":    Object{"color": "red"},
	})
	require.NoError(t, err)
	assert.Equal(t, LngLat{10, 20}, ov.Position)
	assert.Equal(t, []string{"pin"}, ov.Class)
	assert.Equal(t, map[string]string{"color": "red"}, ov.Style)
	assert.Equal(t, Object{"offset": 5.0}, ov.Options)

	_, err = DecodeOverlay(Object{})
	assert.Error(t, err)
}

func TestDecodeImageSet(t *testing.T) {
	set, err := DecodeImageSet(Object{"images": Object{"b": "b.png", "a": "a.png"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, set.Names())

	_, err = DecodeImageSet(Object{"images": Object{"a": 1}})
	assert.Error(t, err)
}

func TestDecodeEvent(t *testing.T) {
	ev, err := DecodeEvent(Object{"event": "click", "layer": "roads"})
	require.NoError(t, err)
	assert.Equal(t, "click", ev.Event)
	assert.Equal(t, "roads", ev.Layer)

	_, err = DecodeEvent(Object{"layer": "roads"})
	assert.Error(t, err)
}
