package memmap

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/mapengine"
)

type source struct {
	m    *Map
	id   string
	typ  string
	spec desc.Object
}

func (s *source) ID() string   { return s.id }
func (s *source) Type() string { return s.typ }

type geojsonSource struct{ *source }

func (s geojsonSource) SetData(data any) {
	s.spec["data"] = data
	s.m.record(mapengine.OpSetData, s.id, desc.Object{"data": data})
}

type canvasSource struct{ *source }

func (s canvasSource) SetCoordinates(q desc.Quad) {
	s.spec["coordinates"] = q.Array()
	s.m.record(mapengine.OpSetCoordinates, s.id, desc.Object{"coordinates": q.Array()})
}

func (s canvasSource) Play() {
	s.spec["animate"] = true
	s.m.record(mapengine.OpPlay, s.id, desc.Object{})
}

func (s canvasSource) Pause() {
	s.spec["animate"] = false
	s.m.record(mapengine.OpPause, s.id, desc.Object{})
}

type imageSource struct{ *source }

func (s imageSource) UpdateImage(url string, pixels []byte, q desc.Quad) {
	s.spec["url"] = url
	if pixels != nil {
		s.spec["pixels"] = pixels
	} else {
		delete(s.spec, "pixels")
	}
	s.spec["coordinates"] = q.Array()
	s.m.record(mapengine.OpUpdateImage, s.id, desc.Object{
		"url":         url,
		"pixels":      float64(len(pixels)),
		"coordinates": q.Array(),
	})
}

type videoSource struct{ *source }

func (s videoSource) SetCoordinates(q desc.Quad) {
	s.spec["coordinates"] = q.Array()
	s.m.record(mapengine.OpSetCoordinates, s.id, desc.Object{"coordinates": q.Array()})
}

type tiledSource struct{ *source }

func (s *source) handle() mapengine.Source {
	switch desc.SourceKind(s.typ) {
	case desc.KindGeoJSON:
		return geojsonSource{s}
	case desc.KindCanvas:
		return canvasSource{s}
	case desc.KindImage:
		return imageSource{s}
	case desc.KindVideo:
		return videoSource{s}
	default:
		return tiledSource{s}
	}
}

func (m *Map) AddSource(id string, spec desc.Object) error {
	if id == "" {
		return fmt.Errorf("add source: empty id")
	}
	if _, ok := m.sources[id]; ok {
		return fmt.Errorf("add source %q: already exists", id)
	}
	typ, ok := spec.String("type")
	if !ok {
		return fmt.Errorf("add source %q: missing type", id)
	}
	m.sources[id] = &source{m: m, id: id, typ: typ, spec: spec.Clone()}
	m.record(mapengine.OpAddSource, id, desc.Object{"spec": recordedSpec(spec)})
	return nil
}

// recordedSpec replaces a pixel buffer with its length; raw bytes have no
// canonical encoding.
func recordedSpec(spec desc.Object) desc.Object {
	px, ok := spec["pixels"].([]byte)
	if !ok {
		return spec
	}
	out := spec.Clone()
	out["pixels"] = float64(len(px))
	return out
}

func (m *Map) Source(id string) (mapengine.Source, bool) {
	s, ok := m.sources[id]
	if !ok {
		return nil, false
	}
	return s.handle(), true
}

func (m *Map) RemoveSource(id string) error {
	if _, ok := m.sources[id]; !ok {
		return fmt.Errorf("remove source %q: not found", id)
	}
	for _, l := range m.layers {
		if l.source == id {
			return fmt.Errorf("remove source %q: in use by layer %q", id, l.id)
		}
	}
	delete(m.sources, id)
	m.record(mapengine.OpRemoveSource, id, desc.Object{})
	return nil
}

// SourceIDs returns the ids of every source, sorted.
func (m *Map) SourceIDs() []string {
	ids := make([]string, 0, len(m.sources))
	for id := range m.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SourceSpec returns the current spec of a source.
func (m *Map) SourceSpec(id string) (desc.Object, bool) {
	s, ok := m.sources[id]
	if !ok {
		return nil, false
	}
	return s.spec.Clone(), true
}

type layer struct {
	m      *Map
	id     string
	source string
	spec   desc.Object
}

func (l *layer) ID() string { return l.id }

func (l *layer) Assign(fields desc.Object) {
	for k, v := range fields {
		l.spec[k] = v
	}
	l.m.record(mapengine.OpAssignLayer, l.id, fields.Clone())
}

func (m *Map) layerIndex(id string) int {
	return slices.IndexFunc(m.layers, func(l *layer) bool { return l.id == id })
}

func (m *Map) AddLayer(spec desc.Object, beforeID string) error {
	id, _ := spec.String("id")
	if id == "" {
		return fmt.Errorf("add layer: empty id")
	}
	if m.layerIndex(id) >= 0 {
		return fmt.Errorf("add layer %q: already exists", id)
	}
	src := spec.StringOr("source", "")
	if src != "" {
		if _, ok := m.sources[src]; !ok {
			return fmt.Errorf("add layer %q: source %q not found", id, src)
		}
	}
	l := &layer{m: m, id: id, source: src, spec: spec.Clone()}
	if beforeID == "" {
		m.layers = append(m.layers, l)
	} else {
		i := m.layerIndex(beforeID)
		if i < 0 {
			return fmt.Errorf("add layer %q: before layer %q not found", id, beforeID)
		}
		m.layers = slices.Insert(m.layers, i, l)
	}
	m.record(mapengine.OpAddLayer, id, desc.Object{"spec": spec, "before": beforeID})
	return nil
}

func (m *Map) Layer(id string) (mapengine.LiveLayer, bool) {
	i := m.layerIndex(id)
	if i < 0 {
		return nil, false
	}
	return m.layers[i], true
}

func (m *Map) RemoveLayer(id string) error {
	i := m.layerIndex(id)
	if i < 0 {
		return fmt.Errorf("remove layer %q: not found", id)
	}
	m.layers = slices.Delete(m.layers, i, i+1)
	m.record(mapengine.OpRemoveLayer, id, desc.Object{})
	return nil
}

func (m *Map) MoveLayer(id, beforeID string) error {
	i := m.layerIndex(id)
	if i < 0 {
		return fmt.Errorf("move layer %q: not found", id)
	}
	if beforeID != "" && m.layerIndex(beforeID) < 0 {
		return fmt.Errorf("move layer %q: before layer %q not found", id, beforeID)
	}
	l := m.layers[i]
	m.layers = slices.Delete(m.layers, i, i+1)
	if beforeID == "" {
		m.layers = append(m.layers, l)
	} else {
		m.layers = slices.Insert(m.layers, m.layerIndex(beforeID), l)
	}
	m.record(mapengine.OpMoveLayer, id, desc.Object{"before": beforeID})
	return nil
}

func (m *Map) liveLayer(op, id string) (*layer, error) {
	i := m.layerIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%s: layer %q not found", op, id)
	}
	return m.layers[i], nil
}

func setNested(spec desc.Object, bucket, name string, value any) {
	inner, ok := spec.Object(bucket)
	if ok {
		inner = inner.Clone()
	} else {
		inner = desc.Object{}
	}
	inner[name] = value
	spec[bucket] = inner
}

func (m *Map) SetLayoutProperty(layerID, name string, value any) error {
	l, err := m.liveLayer(mapengine.OpSetLayout, layerID)
	if err != nil {
		return err
	}
	setNested(l.spec, "layout", name, value)
	m.record(mapengine.OpSetLayout, layerID, desc.Object{"name": name, "value": value})
	return nil
}

func (m *Map) SetPaintProperty(layerID, name string, value any) error {
	l, err := m.liveLayer(mapengine.OpSetPaint, layerID)
	if err != nil {
		return err
	}
	setNested(l.spec, "paint", name, value)
	m.record(mapengine.OpSetPaint, layerID, desc.Object{"name": name, "value": value})
	return nil
}

func (m *Map) SetFilter(layerID string, filter any) error {
	l, err := m.liveLayer(mapengine.OpSetFilter, layerID)
	if err != nil {
		return err
	}
	l.spec["filter"] = filter
	m.record(mapengine.OpSetFilter, layerID, desc.Object{"filter": filter})
	return nil
}

func (m *Map) SetLayerZoomRange(layerID string, minZoom, maxZoom float64) error {
	l, err := m.liveLayer(mapengine.OpSetZoomRange, layerID)
	if err != nil {
		return err
	}
	l.spec["minzoom"] = minZoom
	l.spec["maxzoom"] = maxZoom
	m.record(mapengine.OpSetZoomRange, layerID, desc.Object{"minzoom": minZoom, "maxzoom": maxZoom})
	return nil
}

func (m *Map) TriggerRepaint() {
	m.record(mapengine.OpTriggerRepaint, "", desc.Object{})
}

// LayerIDs returns layer ids bottom to top.
func (m *Map) LayerIDs() []string {
	ids := make([]string, len(m.layers))
	for i, l := range m.layers {
		ids[i] = l.id
	}
	return ids
}

// LayerSpec returns the current spec of a layer.
func (m *Map) LayerSpec(id string) (desc.Object, bool) {
	i := m.layerIndex(id)
	if i < 0 {
		return nil, false
	}
	return m.layers[i].spec.Clone(), true
}

// --- Images ---

func (m *Map) LoadImage(ctx context.Context, url string) (mapengine.Image, error) {
	return m.loader(ctx, url)
}

func (m *Map) AddImage(name string, img mapengine.Image) error {
	if _, ok := m.images[name]; ok {
		return fmt.Errorf("add image %q: already exists", name)
	}
	m.images[name] = img
	m.record(mapengine.OpAddImage, name, desc.Object{
		"url":    img.URL,
		"width":  float64(img.Width),
		"height": float64(img.Height),
	})
	return nil
}

func (m *Map) HasImage(name string) bool {
	_, ok := m.images[name]
	return ok
}

func (m *Map) RemoveImage(name string) {
	if _, ok := m.images[name]; !ok {
		return
	}
	delete(m.images, name)
	m.record(mapengine.OpRemoveImage, name, desc.Object{})
}

// Images returns registered image names, sorted.
func (m *Map) Images() []string {
	names := make([]string, 0, len(m.images))
	for n := range m.images {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
