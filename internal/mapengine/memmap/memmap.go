// Package memmap is an in-memory map engine. It keeps the retained scene
// graph (sources, layers, images, overlays) in plain Go structures,
// enforces the engine's referential rules and records every mutation as a
// mapengine.Call. Tests, the scenario harness and the CLI drive it in place
// of a real renderer.
package memmap

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/dom"
	"github.com/roach88/mapbind/internal/ident"
	"github.com/roach88/mapbind/internal/mapengine"
)

// Engine-owned class prefix on containers and overlays.
const ClassPrefix = "mapboxgl-"

// ImageLoader fetches an image by URL.
type ImageLoader func(ctx context.Context, url string) (mapengine.Image, error)

// Option configures a Map.
type Option func(*Map)

// WithClock stamps recorded calls from c.
func WithClock(c *ident.Clock) Option {
	return func(m *Map) { m.clock = c }
}

// WithSession tags recorded calls with a session token.
func WithSession(session string) Option {
	return func(m *Map) { m.session = session }
}

// WithRecorder forwards every recorded call to r.
func WithRecorder(r mapengine.Recorder) Option {
	return func(m *Map) { m.recorder = r }
}

// WithImageLoader replaces the default loader, which succeeds for every
// URL with a 1x1 image.
func WithImageLoader(fn ImageLoader) Option {
	return func(m *Map) { m.loader = fn }
}

// WithStyleLoaded creates the map with its style already loaded.
func WithStyleLoaded() Option {
	return func(m *Map) { m.styleLoaded = true }
}

// WithLogger sets the logger used for recorder failures.
func WithLogger(l *slog.Logger) Option {
	return func(m *Map) { m.logger = l }
}

type onceSub struct {
	fn   func()
	done bool
}

type listener struct {
	event string
	layer string
	fn    mapengine.Listener
}

// Map is the in-memory engine. Methods other than LoadImage and the
// read-only accessors must run on one goroutine.
type Map struct {
	container *dom.Node
	clock     *ident.Clock
	session   string
	recorder  mapengine.Recorder
	loader    ImageLoader
	logger    *slog.Logger

	styleLoaded bool
	removed     bool

	once         map[string][]*onceSub
	listeners    map[mapengine.ListenerID]*listener
	nextListener mapengine.ListenerID

	sources  map[string]*source
	layers   []*layer
	images   map[string]mapengine.Image
	overlays []*overlay
	overlayN int

	mu    sync.Mutex
	calls []mapengine.Call
}

var _ mapengine.Map = (*Map)(nil)

// New creates an engine rendering into container.
func New(container *dom.Node, opts desc.Object, options ...Option) *Map {
	m := &Map{
		container: container,
		once:      make(map[string][]*onceSub),
		listeners: make(map[mapengine.ListenerID]*listener),
		sources:   make(map[string]*source),
		images:    make(map[string]mapengine.Image),
		loader:    defaultLoader,
		logger:    slog.Default(),
	}
	for _, opt := range options {
		opt(m)
	}
	if m.clock == nil {
		m.clock = ident.NewClock()
	}
	container.AddClass(ClassPrefix + "map")
	m.record(mapengine.OpCreate, "", desc.Object{"options": optionsArg(opts)})
	return m
}

// Factory returns a mapengine.Factory building memmap engines.
func Factory(options ...Option) mapengine.Factory {
	return func(container *dom.Node, opts desc.Object) (mapengine.Map, error) {
		if container == nil {
			return nil, fmt.Errorf("memmap: nil container")
		}
		return New(container, opts, options...), nil
	}
}

func defaultLoader(ctx context.Context, url string) (mapengine.Image, error) {
	if err := ctx.Err(); err != nil {
		return mapengine.Image{}, err
	}
	return mapengine.Image{URL: url, Width: 1, Height: 1}, nil
}

func optionsArg(opts desc.Object) desc.Object {
	if opts == nil {
		return desc.Object{}
	}
	return opts
}

func (m *Map) record(op, target string, args desc.Object) {
	c := mapengine.Call{
		Seq:     m.clock.Next(),
		Session: m.session,
		Op:      op,
		Target:  target,
		Args:    args,
	}
	m.mu.Lock()
	m.calls = append(m.calls, c)
	m.mu.Unlock()

	m.logger.Debug("engine call", "seq", c.Seq, "op", op, "target", target)
	if m.recorder != nil {
		if err := m.recorder.RecordCall(context.Background(), c); err != nil {
			m.logger.Warn("recording engine call failed", "op", op, "target", target, "error", err)
		}
	}
}

// Calls returns a copy of every recorded call.
func (m *Map) Calls() []mapengine.Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// ResetCalls drops the recorded calls.
func (m *Map) ResetCalls() {
	m.mu.Lock()
	m.calls = nil
	m.mu.Unlock()
}

func (m *Map) Container() *dom.Node { return m.container }

// Removed reports whether Remove ran.
func (m *Map) Removed() bool { return m.removed }

// --- Events ---

func (m *Map) IsStyleLoaded() bool { return m.styleLoaded }

func (m *Map) Once(event string, fn func()) func() {
	sub := &onceSub{fn: fn}
	m.once[event] = append(m.once[event], sub)
	return func() {
		sub.done = true
	}
}

func (m *Map) On(event, layerID string, fn mapengine.Listener) mapengine.ListenerID {
	m.nextListener++
	id := m.nextListener
	m.listeners[id] = &listener{event: event, layer: layerID, fn: fn}
	m.record(mapengine.OpOn, event, desc.Object{"layer": layerID, "listener": float64(id)})
	return id
}

func (m *Map) Off(id mapengine.ListenerID) {
	l, ok := m.listeners[id]
	if !ok {
		return
	}
	delete(m.listeners, id)
	m.record(mapengine.OpOff, l.event, desc.Object{"layer": l.layer, "listener": float64(id)})
}

// ListenerCount returns the number of active On subscriptions.
func (m *Map) ListenerCount() int { return len(m.listeners) }

// FinishStyleLoad marks the style loaded and fires style.load.
func (m *Map) FinishStyleLoad() {
	m.styleLoaded = true
	m.Fire(mapengine.Event{Type: mapengine.EventStyleLoad})
}

// Fire delivers ev to once-subscribers of its type and then to matching
// listeners in subscription order. A listener bound to a layer only
// receives events for that layer.
func (m *Map) Fire(ev mapengine.Event) {
	subs := m.once[ev.Type]
	delete(m.once, ev.Type)
	for _, s := range subs {
		if s.done {
			continue
		}
		s.done = true
		s.fn()
	}

	ids := make([]mapengine.ListenerID, 0, len(m.listeners))
	for id, l := range m.listeners {
		if l.event == ev.Type && (l.layer == "" || l.layer == ev.Layer) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	for _, id := range ids {
		if l, ok := m.listeners[id]; ok {
			l.fn(ev)
		}
	}
}

// --- Lifecycle ---

func (m *Map) Remove() {
	if m.removed {
		return
	}
	m.removed = true
	for _, o := range m.overlays {
		o.el.Remove()
	}
	m.overlays = nil
	m.record(mapengine.OpRemove, "", desc.Object{})
}
