package desc

import (
	"fmt"
	"sort"
)

// SourceKind is the engine source type. It is fixed when the source is
// created; switching kinds requires unmounting and remounting the node.
type SourceKind string

const (
	KindGeoJSON   SourceKind = "geojson"
	KindCanvas    SourceKind = "canvas"
	KindImage     SourceKind = "image"
	KindRaster    SourceKind = "raster"
	KindRasterDEM SourceKind = "raster-dem"
	KindVector    SourceKind = "vector"
	KindVideo     SourceKind = "video"
)

// Source is a tagged source descriptor. The concrete types are
// GeoJSONSource, CanvasSource, ImageSource, VideoSource and TiledSource.
type Source interface {
	Kind() SourceKind
	// Spec returns the full engine specification, including "type".
	Spec() Object
	sealed()
}

// GeoJSONSource carries its data payload wholesale.
type GeoJSONSource struct {
	Data    any
	Options Object
}

// CanvasSource draws from a canvas element.
type CanvasSource struct {
	Canvas      string
	Coordinates Quad
	Animate     bool
	Options     Object
}

// ImageSource is an image (URL or pixel buffer) pinned to a quad.
type ImageSource struct {
	URL         string
	Pixels      []byte
	Coordinates Quad
	Options     Object
}

// VideoSource is a video pinned to a quad.
type VideoSource struct {
	URLs        []string
	Coordinates Quad
	Options     Object
}

// TiledSource covers raster, raster-dem and vector sources, which have no
// live-update path once created.
type TiledSource struct {
	SourceKind SourceKind
	Options    Object
}

func (GeoJSONSource) Kind() SourceKind { return KindGeoJSON }
func (CanvasSource) Kind() SourceKind  { return KindCanvas }
func (ImageSource) Kind() SourceKind   { return KindImage }
func (VideoSource) Kind() SourceKind   { return KindVideo }
func (s TiledSource) Kind() SourceKind { return s.SourceKind }

func (GeoJSONSource) sealed() {}
func (CanvasSource) sealed()  {}
func (ImageSource) sealed()   {}
func (VideoSource) sealed()   {}
func (TiledSource) sealed()   {}

func (s GeoJSONSource) Spec() Object {
	o := s.Options.Without("type", "data")
	o["type"] = string(KindGeoJSON)
	o["data"] = s.Data
	return o
}

func (s CanvasSource) Spec() Object {
	o := s.Options.Without("type", "canvas", "coordinates", "animate")
	o["type"] = string(KindCanvas)
	o["canvas"] = s.Canvas
	o["coordinates"] = s.Coordinates.Array()
	o["animate"] = s.Animate
	return o
}

func (s ImageSource) Spec() Object {
	o := s.Options.Without("type", "url", "pixels", "coordinates")
	o["type"] = string(KindImage)
	if s.URL != "" {
		o["url"] = s.URL
	}
	if s.Pixels != nil {
		o["pixels"] = s.Pixels
	}
	o["coordinates"] = s.Coordinates.Array()
	return o
}

func (s VideoSource) Spec() Object {
	o := s.Options.Without("type", "urls", "coordinates")
	o["type"] = string(KindVideo)
	urls := make([]any, len(s.URLs))
	for i, u := range s.URLs {
		urls[i] = u
	}
	o["urls"] = urls
	o["coordinates"] = s.Coordinates.Array()
	return o
}

func (s TiledSource) Spec() Object {
	o := s.Options.Without("type")
	o["type"] = string(s.SourceKind)
	return o
}

// SourceKinds lists every supported kind, sorted.
func SourceKinds() []string {
	kinds := []string{
		string(KindGeoJSON), string(KindCanvas), string(KindImage),
		string(KindRaster), string(KindRasterDEM), string(KindVector), string(KindVideo),
	}
	sort.Strings(kinds)
	return kinds
}

// DecodeSource builds the tagged variant selected by o["type"]. Unknown
// fields are kept in Options and passed to the engine untouched.
func DecodeSource(o Object) (Source, error) {
	kind, ok := o.String("type")
	if !ok {
		return nil, fmt.Errorf("source: missing type")
	}
	rest := o.Without("id")

	switch SourceKind(kind) {
	case KindGeoJSON:
		return GeoJSONSource{Data: rest["data"], Options: rest.Without("type", "data")}, nil

	case KindCanvas:
		q, err := DecodeQuad(rest["coordinates"])
		if err != nil {
			return nil, fmt.Errorf("canvas source: %w", err)
		}
		animate, _ := rest.Bool("animate")
		return CanvasSource{
			Canvas:      rest.StringOr("canvas", ""),
			Coordinates: q,
			Animate:     animate,
			Options:     rest.Without("type", "canvas", "coordinates", "animate"),
		}, nil

	case KindImage:
		q, err := DecodeQuad(rest["coordinates"])
		if err != nil {
			return nil, fmt.Errorf("image source: %w", err)
		}
		src := ImageSource{
			URL:         rest.StringOr("url", ""),
			Coordinates: q,
			Options:     rest.Without("type", "url", "coordinates", "pixels"),
		}
		if px, ok := rest["pixels"].([]byte); ok {
			src.Pixels = px
		}
		if src.URL == "" && src.Pixels == nil {
			return nil, fmt.Errorf("image source: needs url or pixels")
		}
		return src, nil

	case KindVideo:
		q, err := DecodeQuad(rest["coordinates"])
		if err != nil {
			return nil, fmt.Errorf("video source: %w", err)
		}
		urls, err := decodeStrings(rest["urls"])
		if err != nil {
			return nil, fmt.Errorf("video source: urls: %w", err)
		}
		return VideoSource{
			URLs:        urls,
			Coordinates: q,
			Options:     rest.Without("type", "urls", "coordinates"),
		}, nil

	case KindRaster, KindRasterDEM, KindVector:
		return TiledSource{SourceKind: SourceKind(kind), Options: rest.Without("type")}, nil

	default:
		return nil, fmt.Errorf("source: unsupported type %q", kind)
	}
}

func decodeStrings(v any) ([]string, error) {
	n, err := Normalize(v)
	if err != nil {
		return nil, err
	}
	switch val := n.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{val}, nil
	case []any:
		out := make([]string, len(val))
		for i, elem := range val {
			s, ok := elem.(string)
			if !ok {
				return nil, fmt.Errorf("[%d]: expected string, got %T", i, elem)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list of strings, got %T", v)
	}
}
