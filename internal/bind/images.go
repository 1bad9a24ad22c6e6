package bind

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/gate"
	"github.com/roach88/mapbind/internal/mapengine"
)

// ImageSet registers a named set of images through an all-or-nothing
// asset batch. It implements gate.Registrar for the batch.
type ImageSet struct {
	env   Env
	lc    *Lifecycle
	batch *gate.Batch
	set   desc.ImageSet
}

var _ gate.Registrar = (*ImageSet)(nil)

// NewImageSet returns a pending image set.
func NewImageSet(env Env, set desc.ImageSet) *ImageSet {
	return &ImageSet{
		env: env,
		set: set,
		lc:  NewLifecycle("images:"+strings.Join(set.Names(), ","), env.Trace),
	}
}

func (s *ImageSet) State() State { return s.lc.State() }

// Register adds a loaded image to the engine.
func (s *ImageSet) Register(name string, v any) error {
	img, ok := v.(mapengine.Image)
	if !ok {
		return fmt.Errorf("image %q: unexpected payload %T", name, v)
	}
	return s.env.Map.AddImage(name, img)
}

// Unregister removes an image from the engine.
func (s *ImageSet) Unregister(name string) {
	s.env.Map.RemoveImage(name)
}

// Attach starts loading every image. done runs on the UI thread once the
// batch settled, unless the set detached first.
func (s *ImageSet) Attach(ctx context.Context, poster gate.Poster, done func(error)) error {
	return s.lc.Attach(func() error {
		names := s.set.Names()
		assets := make([]gate.Asset, len(names))
		for i, name := range names {
			url := s.set[name]
			assets[i] = gate.Asset{
				Name: name,
				Load: func(ctx context.Context) (any, error) {
					return s.env.Map.LoadImage(ctx, url)
				},
			}
		}
		s.batch = gate.LoadBatch(ctx, poster, s, assets, done, gate.WithLogger(s.env.logger()))
		return nil
	})
}

// Gate flips once every image registered. Nil before attach.
func (s *ImageSet) Gate() *gate.Gate {
	if s.batch == nil {
		return nil
	}
	return s.batch.Gate()
}

// Registered returns the names currently registered by this set.
func (s *ImageSet) Registered() []string {
	if s.batch == nil {
		return nil
	}
	return s.batch.Registered()
}

// Detach cancels pending loads and unregisters every image.
func (s *ImageSet) Detach() error {
	return s.lc.Detach(func() error {
		if s.batch != nil {
			s.batch.Cancel()
		}
		return nil
	})
}
