package bind

import (
	"fmt"

	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/diff"
	"github.com/roach88/mapbind/internal/fault"
)

// SourceBinding owns one engine source.
type SourceBinding struct {
	env     Env
	id      string
	lc      *Lifecycle
	src     desc.Source
	created bool
}

// NewSource returns a pending binding for source id.
func NewSource(env Env, id string) *SourceBinding {
	return &SourceBinding{env: env, id: id, lc: NewLifecycle("source:"+id, env.Trace)}
}

func (b *SourceBinding) ID() string { return b.id }

func (b *SourceBinding) State() State { return b.lc.State() }

// Attach creates the source.
func (b *SourceBinding) Attach(src desc.Source) error {
	return b.lc.Attach(func() error {
		if err := b.env.Map.AddSource(b.id, src.Spec()); err != nil {
			return fmt.Errorf("attach source %q: %w", b.id, err)
		}
		b.created = true
		b.src = src
		return nil
	})
}

// Update moves the source to next. A kind switch is logged and ignored,
// leaving the source untouched.
func (b *SourceBinding) Update(next desc.Source) error {
	return b.lc.Update(func() error {
		calls, err := diff.Source(b.id, b.src, next)
		if fault.IsUnsupportedUpdate(err) {
			b.env.logger().Warn("ignoring source update", "source", b.id, "error", err)
			return nil
		}
		if err != nil {
			return err
		}
		if len(calls) == 0 {
			b.env.logger().Debug("source kind has no live update path", "source", b.id, "kind", next.Kind())
		}
		if err := diff.Apply(b.env.Map, calls); err != nil {
			return fmt.Errorf("update source %q: %w", b.id, err)
		}
		b.src = next
		return nil
	})
}

// Kind returns the kind fixed at creation.
func (b *SourceBinding) Kind() desc.SourceKind {
	if b.src == nil {
		return ""
	}
	return b.src.Kind()
}

// Detach removes the source if it was created.
func (b *SourceBinding) Detach() error {
	return b.lc.Detach(func() error {
		if !b.created {
			return nil
		}
		if err := b.env.Map.RemoveSource(b.id); err != nil {
			return fmt.Errorf("detach source %q: %w", b.id, err)
		}
		return nil
	})
}
