// Package mapengine declares the imperative map engine the binding layer
// drives. The engine owns sources, layers, images, overlays and their DOM
// containers; the binder only ever talks to it through these interfaces.
package mapengine

import (
	"context"

	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/dom"
)

// Engine events used by the binding layer.
const (
	EventStyleLoad = "style.load"
	EventClose     = "close"
)

// Event is delivered to listeners registered with On.
type Event struct {
	Type  string
	Layer string
	Data  desc.Object
}

// Listener handles engine events.
type Listener func(Event)

// ListenerID identifies a subscription made with On.
type ListenerID uint64

// Image is a decoded image asset.
type Image struct {
	URL    string
	Width  int
	Height int
}

// Map is a live engine instance. All methods except LoadImage must be
// called from the UI thread.
type Map interface {
	// Container is the element the engine renders into.
	Container() *dom.Node

	IsStyleLoaded() bool
	// Once calls fn the first time event fires. The returned function
	// unsubscribes; it is safe to call after fn ran.
	Once(event string, fn func()) (cancel func())
	// On subscribes fn to event, optionally scoped to a layer.
	On(event, layerID string, fn Listener) ListenerID
	Off(id ListenerID)

	AddSource(id string, spec desc.Object) error
	Source(id string) (Source, bool)
	RemoveSource(id string) error

	// AddLayer inserts the layer before beforeID, or on top when empty.
	AddLayer(spec desc.Object, beforeID string) error
	Layer(id string) (LiveLayer, bool)
	RemoveLayer(id string) error
	MoveLayer(id, beforeID string) error
	SetLayoutProperty(layerID, name string, value any) error
	SetPaintProperty(layerID, name string, value any) error
	SetFilter(layerID string, filter any) error
	SetLayerZoomRange(layerID string, minZoom, maxZoom float64) error
	TriggerRepaint()

	// LoadImage fetches an image. It may be called from any goroutine.
	LoadImage(ctx context.Context, url string) (Image, error)
	AddImage(name string, img Image) error
	HasImage(name string) bool
	RemoveImage(name string)

	NewMarker(opts desc.Object) Marker
	NewPopup(opts desc.Object) Popup

	// Remove destroys the engine and its container contents.
	Remove()
}

// Factory constructs an engine inside container.
type Factory func(container *dom.Node, opts desc.Object) (Map, error)

// LiveLayer is the engine's mutable layer object.
type LiveLayer interface {
	ID() string
	// Assign copies fields directly onto the layer, bypassing setters.
	Assign(fields desc.Object)
}

// Source is an engine source handle. Concrete handles implement one of
// the typed interfaces below when the kind has a live-update path.
type Source interface {
	ID() string
	Type() string
}

type GeoJSONSource interface {
	Source
	SetData(data any)
}

type CanvasSource interface {
	Source
	SetCoordinates(q desc.Quad)
	Play()
	Pause()
}

type ImageSource interface {
	Source
	UpdateImage(url string, pixels []byte, q desc.Quad)
}

type VideoSource interface {
	Source
	SetCoordinates(q desc.Quad)
}

// Overlay is a DOM overlay positioned by the engine.
type Overlay interface {
	ID() string
	SetLngLat(p desc.LngLat)
	// AddTo attaches the overlay to m. Re-adding is allowed.
	AddTo(m Map)
	Remove()
	// Element is the engine-owned container for overlay content.
	Element() *dom.Node
}

type Marker interface {
	Overlay
}

type Popup interface {
	Overlay
	IsOpen() bool
}
