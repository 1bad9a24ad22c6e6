package nodes

import (
	"errors"

	"github.com/roach88/mapbind/internal/bind"
	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/host"
	"github.com/roach88/mapbind/internal/splice"
)

// overlayNode binds a marker or popup. Its children render into a content
// element that is spliced into the engine container after every render
// pass and restored before the next one.
type overlayNode struct {
	cfg   *Config
	popup bool
	b     *bind.OverlayBinding
	slot  *splice.Slot
}

func (n *overlayNode) Wrap() string { return "div" }

func (n *overlayNode) Setup(ctx *host.Context, props desc.Object) error {
	env, err := envFor(ctx)
	if err != nil {
		return err
	}
	ov, err := desc.DecodeOverlay(props)
	if err != nil {
		return wrapDecode(ctx.Kind(), err)
	}
	name := nameFor(ctx, n.cfg)
	if n.popup {
		n.b = bind.NewPopup(env, name)
	} else {
		n.b = bind.NewMarker(env, name)
	}
	n.slot = splice.New(ctx.Element())
	n.slot.Decorate(ov.Class, ov.Style)
	return n.b.Attach(ov)
}

func (n *overlayNode) Update(ctx *host.Context, prev, next desc.Object) error {
	ov, err := desc.DecodeOverlay(next)
	if err != nil {
		return wrapDecode(ctx.Kind(), err)
	}
	n.slot.Decorate(ov.Class, ov.Style)
	return n.b.Update(ov)
}

func (n *overlayNode) BeforeRender(*host.Context) error {
	return n.slot.Restore()
}

func (n *overlayNode) AfterRender(*host.Context) error {
	if !n.slot.Attached() {
		return n.slot.Attach(n.b.Container(), nil)
	}
	return n.slot.Reapply()
}

// Spliced reports whether the content currently sits in the engine
// container.
func (n *overlayNode) Spliced() bool {
	return n.slot != nil && n.slot.Spliced()
}

func (n *overlayNode) Unmount(*host.Context) error {
	var errs []error
	if n.slot != nil {
		errs = append(errs, n.slot.Detach())
	}
	if n.b != nil {
		errs = append(errs, n.b.Detach())
	}
	return errors.Join(errs...)
}
