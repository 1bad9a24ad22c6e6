package desc

import "fmt"

// Default zoom bounds applied when a layer leaves them unset.
const (
	DefaultMinZoom = 0
	DefaultMaxZoom = 24
)

// Layer is a layer descriptor partitioned into the buckets the diff engine
// works on. Other holds every remaining top-level field except id.
type Layer struct {
	ID          string
	Type        string
	Source      string
	SourceLayer string
	Layout      Object
	Paint       Object
	Filter      any
	MinZoom     float64
	MaxZoom     float64
	Other       Object
}

// bucketed lists the top-level fields that are not part of Other.
var bucketed = []string{"id", "type", "source", "source-layer", "layout", "paint", "filter", "minzoom", "maxzoom"}

// Spec returns the engine layer specification used on creation.
func (l *Layer) Spec() Object {
	o := l.Other.Without()
	o["id"] = l.ID
	o["type"] = l.Type
	if l.Source != "" {
		o["source"] = l.Source
	}
	if l.SourceLayer != "" {
		o["source-layer"] = l.SourceLayer
	}
	if len(l.Layout) > 0 {
		o["layout"] = l.Layout.Clone()
	}
	if len(l.Paint) > 0 {
		o["paint"] = l.Paint.Clone()
	}
	if l.Filter != nil {
		o["filter"] = l.Filter
	}
	o["minzoom"] = l.MinZoom
	o["maxzoom"] = l.MaxZoom
	return o
}

// DecodeLayer partitions a raw layer mapping. The id and source may be
// empty; the binder fills them from the allocator and the ambient parent.
func DecodeLayer(o Object) (*Layer, error) {
	norm, err := NormalizeObject(o)
	if err != nil {
		return nil, fmt.Errorf("layer: %w", err)
	}
	l := &Layer{
		ID:          norm.StringOr("id", ""),
		Type:        norm.StringOr("type", ""),
		Source:      norm.StringOr("source", ""),
		SourceLayer: norm.StringOr("source-layer", ""),
		Filter:      norm["filter"],
		MinZoom:     DefaultMinZoom,
		MaxZoom:     DefaultMaxZoom,
		Other:       norm.Without(bucketed...),
	}
	if l.Type == "" {
		return nil, fmt.Errorf("layer %q: missing type", l.ID)
	}
	if v, ok := norm["layout"]; ok && v != nil {
		layout, ok := v.(Object)
		if !ok {
			return nil, fmt.Errorf("layer %q: layout must be a mapping, got %T", l.ID, v)
		}
		l.Layout = layout
	}
	if v, ok := norm["paint"]; ok && v != nil {
		paint, ok := v.(Object)
		if !ok {
			return nil, fmt.Errorf("layer %q: paint must be a mapping, got %T", l.ID, v)
		}
		l.Paint = paint
	}
	if z, ok := norm.Float("minzoom"); ok {
		l.MinZoom = z
	}
	if z, ok := norm.Float("maxzoom"); ok {
		l.MaxZoom = z
	}
	if l.MinZoom > l.MaxZoom {
		return nil, fmt.Errorf("layer %q: minzoom %v > maxzoom %v", l.ID, l.MinZoom, l.MaxZoom)
	}
	return l, nil
}
