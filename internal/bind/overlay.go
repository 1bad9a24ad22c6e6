package bind

import (
	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/dom"
	"github.com/roach88/mapbind/internal/mapengine"
)

// OverlayBinding owns a marker or popup.
//
// Update re-applies the position and re-adds the overlay to the map every
// time. The engine may close a popup on its own (an outside click); the
// next update makes it visible again.
type OverlayBinding struct {
	env    Env
	lc     *Lifecycle
	create func(opts desc.Object) mapengine.Overlay
	ov     mapengine.Overlay
}

// NewMarker returns a pending marker binding.
func NewMarker(env Env, name string) *OverlayBinding {
	return &OverlayBinding{
		env: env,
		lc:  NewLifecycle("marker:"+name, env.Trace),
		create: func(opts desc.Object) mapengine.Overlay {
			return env.Map.NewMarker(opts)
		},
	}
}

// NewPopup returns a pending popup binding.
func NewPopup(env Env, name string) *OverlayBinding {
	return &OverlayBinding{
		env: env,
		lc:  NewLifecycle("popup:"+name, env.Trace),
		create: func(opts desc.Object) mapengine.Overlay {
			return env.Map.NewPopup(opts)
		},
	}
}

func (b *OverlayBinding) State() State { return b.lc.State() }

// Attach creates the overlay, positions it and adds it to the map.
func (b *OverlayBinding) Attach(o desc.Overlay) error {
	return b.lc.Attach(func() error {
		b.ov = b.create(o.Options)
		b.place(o.Position)
		return nil
	})
}

// Update re-applies the position and re-adds the overlay.
func (b *OverlayBinding) Update(next desc.Overlay) error {
	return b.lc.Update(func() error {
		b.place(next.Position)
		return nil
	})
}

func (b *OverlayBinding) place(p desc.LngLat) {
	b.ov.SetLngLat(p)
	b.ov.AddTo(b.env.Map)
}

// Container is the engine-owned element overlay content goes into, or nil
// before attach.
func (b *OverlayBinding) Container() *dom.Node {
	if b.ov == nil {
		return nil
	}
	return b.ov.Element()
}

// Overlay returns the engine overlay, or nil before attach.
func (b *OverlayBinding) Overlay() mapengine.Overlay { return b.ov }

// Detach removes the overlay from the map.
func (b *OverlayBinding) Detach() error {
	return b.lc.Detach(func() error {
		if b.ov != nil {
			b.ov.Remove()
		}
		return nil
	})
}
