package diff

import (
	"fmt"

	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/mapengine"
)

// Call is one imperative engine mutation.
type Call interface {
	// Op names the engine operation, using mapengine's recorded op names.
	Op() string
	apply(m mapengine.Map) error
}

type SetLayout struct {
	Layer string
	Name  string
	Value any
}

type SetPaint struct {
	Layer string
	Name  string
	Value any
}

type SetFilter struct {
	Layer  string
	Filter any
}

type SetZoomRange struct {
	Layer   string
	MinZoom float64
	MaxZoom float64
}

// AssignFields copies fields onto the live layer object directly.
type AssignFields struct {
	Layer  string
	Fields desc.Object
}

type Repaint struct{}

// MoveLayer re-inserts a layer before another one, or on top when Before
// is empty.
type MoveLayer struct {
	Layer  string
	Before string
}

type SetData struct {
	Source string
	Data   any
}

type SetCoordinates struct {
	Source      string
	Coordinates desc.Quad
}

// SetAnimation plays or pauses a canvas source.
type SetAnimation struct {
	Source  string
	Playing bool
}

type UpdateImage struct {
	Source      string
	URL         string
	Pixels      []byte
	Coordinates desc.Quad
}

func (SetLayout) Op() string      { return mapengine.OpSetLayout }
func (SetPaint) Op() string       { return mapengine.OpSetPaint }
func (SetFilter) Op() string      { return mapengine.OpSetFilter }
func (SetZoomRange) Op() string   { return mapengine.OpSetZoomRange }
func (AssignFields) Op() string   { return mapengine.OpAssignLayer }
func (Repaint) Op() string        { return mapengine.OpTriggerRepaint }
func (MoveLayer) Op() string      { return mapengine.OpMoveLayer }
func (SetData) Op() string        { return mapengine.OpSetData }
func (SetCoordinates) Op() string { return mapengine.OpSetCoordinates }
func (c SetAnimation) Op() string {
	if c.Playing {
		return mapengine.OpPlay
	}
	return mapengine.OpPause
}
func (UpdateImage) Op() string { return mapengine.OpUpdateImage }

func (c SetLayout) apply(m mapengine.Map) error {
	return m.SetLayoutProperty(c.Layer, c.Name, c.Value)
}

func (c SetPaint) apply(m mapengine.Map) error {
	return m.SetPaintProperty(c.Layer, c.Name, c.Value)
}

func (c SetFilter) apply(m mapengine.Map) error {
	return m.SetFilter(c.Layer, c.Filter)
}

func (c SetZoomRange) apply(m mapengine.Map) error {
	return m.SetLayerZoomRange(c.Layer, c.MinZoom, c.MaxZoom)
}

func (c AssignFields) apply(m mapengine.Map) error {
	l, ok := m.Layer(c.Layer)
	if !ok {
		return fmt.Errorf("layer %q not found", c.Layer)
	}
	l.Assign(c.Fields)
	return nil
}

func (Repaint) apply(m mapengine.Map) error {
	m.TriggerRepaint()
	return nil
}

func (c MoveLayer) apply(m mapengine.Map) error {
	return m.MoveLayer(c.Layer, c.Before)
}

func (c SetData) apply(m mapengine.Map) error {
	s, err := typedSource[mapengine.GeoJSONSource](m, c.Op(), c.Source)
	if err != nil {
		return err
	}
	s.SetData(c.Data)
	return nil
}

func (c SetCoordinates) apply(m mapengine.Map) error {
	src, ok := m.Source(c.Source)
	if !ok {
		return fmt.Errorf("source %q not found", c.Source)
	}
	switch s := src.(type) {
	case mapengine.CanvasSource:
		s.SetCoordinates(c.Coordinates)
	case mapengine.VideoSource:
		s.SetCoordinates(c.Coordinates)
	default:
		return fmt.Errorf("source %q (%s) has no coordinates", c.Source, src.Type())
	}
	return nil
}

func (c SetAnimation) apply(m mapengine.Map) error {
	s, err := typedSource[mapengine.CanvasSource](m, c.Op(), c.Source)
	if err != nil {
		return err
	}
	if c.Playing {
		s.Play()
	} else {
		s.Pause()
	}
	return nil
}

func (c UpdateImage) apply(m mapengine.Map) error {
	s, err := typedSource[mapengine.ImageSource](m, c.Op(), c.Source)
	if err != nil {
		return err
	}
	s.UpdateImage(c.URL, c.Pixels, c.Coordinates)
	return nil
}

func typedSource[T mapengine.Source](m mapengine.Map, op, id string) (T, error) {
	var zero T
	src, ok := m.Source(id)
	if !ok {
		return zero, fmt.Errorf("source %q not found", id)
	}
	s, ok := src.(T)
	if !ok {
		return zero, fmt.Errorf("source %q (%s) does not support %s", id, src.Type(), op)
	}
	return s, nil
}

// Apply runs calls in order and stops at the first failure.
func Apply(m mapengine.Map, calls []Call) error {
	for i, c := range calls {
		if err := c.apply(m); err != nil {
			return fmt.Errorf("call %d (%s): %w", i, c.Op(), err)
		}
	}
	return nil
}
