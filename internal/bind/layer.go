package bind

import (
	"fmt"

	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/diff"
)

// LayerBinding owns one engine layer.
type LayerBinding struct {
	env     Env
	id      string
	lc      *Lifecycle
	layer   *desc.Layer
	before  string
	created bool
}

// NewLayer returns a pending binding for layer id.
func NewLayer(env Env, id string) *LayerBinding {
	return &LayerBinding{env: env, id: id, lc: NewLifecycle("layer:"+id, env.Trace)}
}

func (b *LayerBinding) ID() string { return b.id }

func (b *LayerBinding) State() State { return b.lc.State() }

// Attach adds the layer before the layer named by before, or on top when
// before is empty.
func (b *LayerBinding) Attach(l *desc.Layer, before string) error {
	return b.lc.Attach(func() error {
		l.ID = b.id
		if err := b.env.Map.AddLayer(l.Spec(), before); err != nil {
			return fmt.Errorf("attach layer %q: %w", b.id, err)
		}
		b.created = true
		b.layer = l
		b.before = before
		return nil
	})
}

// Update moves the layer when its insert-before directive changed and then
// applies the bucketed style diff.
func (b *LayerBinding) Update(next *desc.Layer, before string) error {
	return b.lc.Update(func() error {
		next.ID = b.id
		if next.Type != b.layer.Type || next.Source != b.layer.Source {
			b.env.logger().Warn("layer type and source are fixed at creation",
				"layer", b.id, "type", next.Type, "source", next.Source)
		}
		calls := append(diff.Order(b.id, b.before, before), diff.Layer(b.layer, next)...)
		if err := diff.Apply(b.env.Map, calls); err != nil {
			return fmt.Errorf("update layer %q: %w", b.id, err)
		}
		b.layer = next
		b.before = before
		return nil
	})
}

// Detach removes the layer if it was created.
func (b *LayerBinding) Detach() error {
	return b.lc.Detach(func() error {
		if !b.created {
			return nil
		}
		if err := b.env.Map.RemoveLayer(b.id); err != nil {
			return fmt.Errorf("detach layer %q: %w", b.id, err)
		}
		return nil
	})
}
