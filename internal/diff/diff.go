package diff

import (
	"errors"
	"fmt"

	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/fault"
)

// ErrSourceKindChanged is the cause of the unsupported-update error
// returned when a source descriptor switches kind.
var ErrSourceKindChanged = errors.New("source kind cannot change after creation")

// Layer returns the calls moving a live layer to next. prev may be nil.
// Keys in next are re-applied whether or not they changed; keys present
// only in prev are left as the engine has them.
func Layer(prev, next *desc.Layer) []Call {
	id := next.ID
	calls := make([]Call, 0, len(next.Layout)+len(next.Paint)+4)

	for _, k := range next.Layout.SortedKeys() {
		calls = append(calls, SetLayout{Layer: id, Name: k, Value: next.Layout[k]})
	}
	for _, k := range next.Paint.SortedKeys() {
		calls = append(calls, SetPaint{Layer: id, Name: k, Value: next.Paint[k]})
	}
	calls = append(calls,
		SetFilter{Layer: id, Filter: next.Filter},
		SetZoomRange{Layer: id, MinZoom: next.MinZoom, MaxZoom: next.MaxZoom},
	)
	if len(next.Other) > 0 {
		calls = append(calls, AssignFields{Layer: id, Fields: next.Other.Clone()})
	}
	return append(calls, Repaint{})
}

// Order returns the call re-inserting a layer when its insert-before
// directive changed, or nil.
func Order(id, prevBefore, nextBefore string) []Call {
	if prevBefore == nextBefore {
		return nil
	}
	return []Call{MoveLayer{Layer: id, Before: nextBefore}}
}

// Source returns the calls moving source id from prev to next. A kind
// change returns an error with code UNSUPPORTED_UPDATE wrapping
// ErrSourceKindChanged and no calls. Tiled kinds have no live-update path
// and always return no calls.
func Source(id string, prev, next desc.Source) ([]Call, error) {
	if prev != nil && prev.Kind() != next.Kind() {
		e := fault.UnsupportedUpdate(id, fmt.Sprintf("source kind %s cannot become %s", prev.Kind(), next.Kind()))
		e.Err = ErrSourceKindChanged
		return nil, e
	}

	switch s := next.(type) {
	case desc.GeoJSONSource:
		return []Call{SetData{Source: id, Data: s.Data}}, nil
	case desc.CanvasSource:
		return []Call{
			SetCoordinates{Source: id, Coordinates: s.Coordinates},
			SetAnimation{Source: id, Playing: s.Animate},
		}, nil
	case desc.ImageSource:
		return []Call{UpdateImage{Source: id, URL: s.URL, Pixels: s.Pixels, Coordinates: s.Coordinates}}, nil
	case desc.VideoSource:
		return []Call{SetCoordinates{Source: id, Coordinates: s.Coordinates}}, nil
	case desc.TiledSource:
		return nil, nil
	default:
		return nil, fmt.Errorf("source %q: unknown variant %T", id, next)
	}
}

// EventChange classifies an event binding update.
type EventChange int

const (
	// EventSwapListener: same event and layer; the listener is replaced
	// in place and the engine subscription stays.
	EventSwapListener EventChange = iota
	// EventResubscribe: event type or layer changed.
	EventResubscribe
)

func (c EventChange) String() string {
	if c == EventResubscribe {
		return "resubscribe"
	}
	return "swap-listener"
}

// Event classifies the move from prev to next.
func Event(prev, next desc.Event) EventChange {
	if prev.Event != next.Event || prev.Layer != next.Layer {
		return EventResubscribe
	}
	return EventSwapListener
}
