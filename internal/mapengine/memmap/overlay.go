package memmap

import (
	"fmt"

	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/dom"
	"github.com/roach88/mapbind/internal/mapengine"
)

// Viewport size used to project positions into container pixels.
const (
	viewportWidth  = 512
	viewportHeight = 512
)

type overlay struct {
	m     *Map
	id    string
	popup bool
	el    *dom.Node
	inner *dom.Node
	pos   *desc.LngLat
}

func (m *Map) NewMarker(opts desc.Object) mapengine.Marker {
	o := m.newOverlay("marker")
	o.el.AddClass(ClassPrefix + "marker")
	o.el.AddClass(ClassPrefix + "marker-anchor-center")
	o.inner = o.el
	m.record(mapengine.OpMarkerCreate, o.id, desc.Object{"options": optionsArg(opts)})
	return o
}

func (m *Map) NewPopup(opts desc.Object) mapengine.Popup {
	o := m.newOverlay("popup")
	o.popup = true
	o.el.AddClass(ClassPrefix + "popup")
	o.inner = dom.NewElement("div")
	o.inner.AddClass(ClassPrefix + "popup-content")
	o.el.AppendChild(o.inner)
	m.record(mapengine.OpPopupCreate, o.id, desc.Object{"options": optionsArg(opts)})
	return o
}

func (m *Map) newOverlay(kind string) *overlay {
	m.overlayN++
	return &overlay{
		m:  m,
		id: fmt.Sprintf("%s-%d", kind, m.overlayN),
		el: dom.NewElement("div"),
	}
}

func (o *overlay) ID() string { return o.id }

// Element is the engine container content is placed in: the marker element
// itself, or the content box of a popup.
func (o *overlay) Element() *dom.Node { return o.inner }

func (o *overlay) SetLngLat(p desc.LngLat) {
	o.pos = &p
	o.el.SetStyle("transform", project(p))
	o.m.record(mapengine.OpOverlaySetLngLat, o.id, desc.Object{"lnglat": p.Array()})
}

func (o *overlay) AddTo(target mapengine.Map) {
	container := target.Container()
	if o.el.Parent != container {
		container.AppendChild(o.el)
	}
	if !o.m.tracked(o) {
		o.m.overlays = append(o.m.overlays, o)
	}
	if o.pos != nil {
		o.el.SetStyle("transform", project(*o.pos))
	}
	o.m.record(mapengine.OpOverlayAdd, o.id, desc.Object{})
}

func (o *overlay) Remove() {
	o.el.Remove()
	o.m.untrack(o)
	o.m.record(mapengine.OpOverlayRemove, o.id, desc.Object{})
}

func (o *overlay) IsOpen() bool {
	return o.el.Parent != nil
}

func (m *Map) tracked(o *overlay) bool {
	for _, t := range m.overlays {
		if t == o {
			return true
		}
	}
	return false
}

func (m *Map) untrack(o *overlay) {
	for i, t := range m.overlays {
		if t == o {
			m.overlays = append(m.overlays[:i], m.overlays[i+1:]...)
			return
		}
	}
}

// ClosePopups closes every open popup the way an outside click does:
// the popup leaves the map without any binder call and a close event
// fires.
func (m *Map) ClosePopups() int {
	var closed []*overlay
	for _, o := range m.overlays {
		if o.popup && o.IsOpen() {
			closed = append(closed, o)
		}
	}
	for _, o := range closed {
		o.el.Remove()
		m.untrack(o)
		m.Fire(mapengine.Event{Type: mapengine.EventClose, Data: desc.Object{"popup": o.id}})
	}
	return len(closed)
}

// Shake rewrites the engine-owned state of every open overlay: it re-projects
// the transform and re-adds the engine classes, as a camera move does.
func (m *Map) Shake() {
	for _, o := range m.overlays {
		if o.pos != nil {
			o.el.SetStyle("transform", project(*o.pos))
		}
		if o.popup {
			o.el.AddClass(ClassPrefix + "popup-anchor-bottom")
		} else {
			o.el.AddClass(ClassPrefix + "marker-anchor-center")
		}
	}
}

// OverlayCount returns the number of overlays attached to the map.
func (m *Map) OverlayCount() int {
	return len(m.overlays)
}

func project(p desc.LngLat) string {
	x := (p.Lng + 180) / 360 * viewportWidth
	y := (90 - p.Lat) / 180 * viewportHeight
	return fmt.Sprintf("translate(%.0fpx, %.0fpx) translate(-50%%, -50%%)", x, y)
}
