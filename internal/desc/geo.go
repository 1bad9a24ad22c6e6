package desc

import "fmt"

// LngLat is a geographic position.
type LngLat struct {
	Lng float64
	Lat float64
}

// Array returns the position as [lng, lat].
func (p LngLat) Array() []any {
	return []any{p.Lng, p.Lat}
}

// DecodeLngLat accepts [lng, lat] or {lng, lat} (also {lon, lat}).
func DecodeLngLat(v any) (LngLat, error) {
	n, err := Normalize(v)
	if err != nil {
		return LngLat{}, err
	}
	switch val := n.(type) {
	case []any:
		if len(val) != 2 {
			return LngLat{}, fmt.Errorf("position needs 2 numbers, got %d", len(val))
		}
		lng, err := toFloat(val[0])
		if err != nil {
			return LngLat{}, fmt.Errorf("lng: %w", err)
		}
		lat, err := toFloat(val[1])
		if err != nil {
			return LngLat{}, fmt.Errorf("lat: %w", err)
		}
		return LngLat{Lng: lng, Lat: lat}, nil
	case Object:
		lng, ok := val.Float("lng")
		if !ok {
			lng, ok = val.Float("lon")
		}
		if !ok {
			return LngLat{}, fmt.Errorf("position object needs lng")
		}
		lat, ok := val.Float("lat")
		if !ok {
			return LngLat{}, fmt.Errorf("position object needs lat")
		}
		return LngLat{Lng: lng, Lat: lat}, nil
	case LngLat:
		return val, nil
	default:
		return LngLat{}, fmt.Errorf("unsupported position %T", v)
	}
}

// Quad is the four corners of a canvas, image or video source: top-left,
// top-right, bottom-right, bottom-left.
type Quad [4]LngLat

// Array returns the quad as [[lng, lat] x4].
func (q Quad) Array() []any {
	out := make([]any, 4)
	for i, p := range q {
		out[i] = p.Array()
	}
	return out
}

// DecodeQuad accepts a list of four positions.
func DecodeQuad(v any) (Quad, error) {
	n, err := Normalize(v)
	if err != nil {
		return Quad{}, err
	}
	if q, ok := n.(Quad); ok {
		return q, nil
	}
	list, ok := n.([]any)
	if !ok {
		return Quad{}, fmt.Errorf("coordinates must be a list, got %T", v)
	}
	if len(list) != 4 {
		return Quad{}, fmt.Errorf("coordinates need 4 corners, got %d", len(list))
	}
	var q Quad
	for i, elem := range list {
		p, err := DecodeLngLat(elem)
		if err != nil {
			return Quad{}, fmt.Errorf("corner %d: %w", i, err)
		}
		q[i] = p
	}
	return q, nil
}
