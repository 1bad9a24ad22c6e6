// Package splice relocates a host-rendered content node into a container
// owned by the map engine while the host keeps seeing it at its original
// position.
//
// A Slot holds two comment placeholders. At rest exactly one of them is
// detached: when spliced, the host placeholder stands in the host tree and
// the content sits inside the engine container; when restored, the content
// is back in the host tree and the engine placeholder marks its spot in
// the container. The host restores every slot before a render pass and
// re-applies it afterwards, so its reconciliation only ever sees the shape
// it produced.
package splice

import (
	"strings"

	"github.com/roach88/mapbind/internal/dom"
	"github.com/roach88/mapbind/internal/fault"
)

// Placeholder comment texts.
const (
	HostPlaceholder   = "host-place"
	EnginePlaceholder = "engine-place"
)

// EngineClassPrefix marks classes the engine put on its containers.
const EngineClassPrefix = "mapboxgl-"

// Slot is the relocation state for one content node.
type Slot struct {
	content     *dom.Node
	container   *dom.Node
	hostPlace   *dom.Node
	enginePlace *dom.Node
	attached    bool
	spliced     bool

	classes []string
	style   map[string]string
}

// New returns a slot for content. Nothing moves until Attach.
func New(content *dom.Node) *Slot {
	return &Slot{content: content}
}

// Content returns the relocated node.
func (s *Slot) Content() *dom.Node { return s.content }

// Container returns the engine container, or nil before Attach.
func (s *Slot) Container() *dom.Node { return s.container }

// Attached reports whether Attach ran and Detach did not.
func (s *Slot) Attached() bool { return s.attached }

// Spliced reports whether the content currently sits in the container.
func (s *Slot) Spliced() bool { return s.spliced }

// Attach moves the content into container before the child before (nil
// appends), leaving the host placeholder in its place.
func (s *Slot) Attach(container, before *dom.Node) error {
	if s.attached {
		return fault.Structural("slot already attached")
	}
	parent := s.content.Parent
	if parent == nil {
		return fault.Structural("content node is not in the host tree")
	}
	if container == nil {
		return fault.Structural("engine container is missing")
	}
	if before != nil && before.Parent != container {
		return fault.Structural("insertion point is not inside the engine container")
	}

	s.container = container
	s.hostPlace = dom.NewComment(HostPlaceholder)
	s.enginePlace = dom.NewComment(EnginePlaceholder)
	if err := container.InsertBefore(s.enginePlace, before); err != nil {
		return structural("insert engine placeholder", err)
	}
	s.attached = true
	return s.Reapply()
}

// Restore moves the content back to its host position and puts the engine
// placeholder in the container. No-op when not spliced.
func (s *Slot) Restore() error {
	if !s.spliced {
		return nil
	}
	hostParent := s.hostPlace.Parent
	if hostParent == nil {
		return fault.Structural("host placeholder is detached: content's original parent was removed before restore")
	}
	engineParent := s.content.Parent
	if engineParent == nil {
		return fault.Structural("content node is detached from the engine container")
	}
	if err := engineParent.ReplaceChild(s.enginePlace, s.content); err != nil {
		return structural("restore engine placeholder", err)
	}
	if err := hostParent.ReplaceChild(s.content, s.hostPlace); err != nil {
		return structural("restore content", err)
	}
	s.spliced = false
	return nil
}

// Reapply moves the content into the container at the engine placeholder
// and merges declared decoration onto the container. No-op when spliced.
func (s *Slot) Reapply() error {
	if !s.attached || s.spliced {
		return nil
	}
	hostParent := s.content.Parent
	if hostParent == nil {
		return fault.Structural("content node is not in the host tree")
	}
	engineParent := s.enginePlace.Parent
	if engineParent == nil {
		return fault.Structural("engine placeholder is detached from the container")
	}
	if err := hostParent.ReplaceChild(s.hostPlace, s.content); err != nil {
		return structural("insert host placeholder", err)
	}
	if err := engineParent.ReplaceChild(s.content, s.enginePlace); err != nil {
		return structural("move content", err)
	}
	s.spliced = true
	s.merge()
	return nil
}

// Detach restores the content for good and removes the engine
// placeholder. Safe to call repeatedly.
func (s *Slot) Detach() error {
	if !s.attached {
		return nil
	}
	if err := s.Restore(); err != nil {
		return err
	}
	s.enginePlace.Remove()
	s.attached = false
	return nil
}

// Decorate sets the classes and inline style the host declares for the
// container. They are merged in on every Reapply, and immediately when
// spliced.
func (s *Slot) Decorate(classes []string, style map[string]string) {
	s.classes = classes
	s.style = style
	if s.spliced {
		s.merge()
	}
}

func (s *Slot) merge() {
	if s.container == nil {
		return
	}
	s.container.SetClasses(MergeClasses(s.container.Classes(), s.classes))
	s.container.ReplaceStyle(MergeStyle(s.container.Style(), s.style))
}

func structural(op string, err error) error {
	e := fault.Structural(op + ": " + err.Error())
	e.Err = err
	return e
}

// MergeClasses returns declared followed by the engine-owned classes of
// current. Declared classes that were dropped disappear; engine classes
// always survive.
func MergeClasses(current, declared []string) []string {
	out := make([]string, 0, len(current)+len(declared))
	seen := make(map[string]bool, len(current)+len(declared))
	add := func(c string) {
		if c == "" || seen[c] {
			return
		}
		seen[c] = true
		out = append(out, c)
	}
	for _, c := range declared {
		add(c)
	}
	for _, c := range current {
		if strings.HasPrefix(c, EngineClassPrefix) {
			add(c)
		}
	}
	return out
}

// MergeStyle returns declared with every transform property of current
// copied over verbatim.
func MergeStyle(current, declared map[string]string) map[string]string {
	out := make(map[string]string, len(declared)+1)
	for k, v := range declared {
		out[k] = v
	}
	for k, v := range current {
		if strings.HasPrefix(k, "transform") {
			out[k] = v
		}
	}
	return out
}
