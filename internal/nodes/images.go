package nodes

import (
	"reflect"

	"github.com/roach88/mapbind/internal/bind"
	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/gate"
	"github.com/roach88/mapbind/internal/host"
)

// imagesNode registers a named image set and holds its children until
// every image is registered. A failed image rolls the whole set back and
// reaches the error boundary.
type imagesNode struct {
	set desc.ImageSet
	s   *bind.ImageSet
}

func (n *imagesNode) Gate() *gate.Gate {
	if n.s == nil {
		return nil
	}
	return n.s.Gate()
}

func (n *imagesNode) Setup(ctx *host.Context, props desc.Object) error {
	env, err := envFor(ctx)
	if err != nil {
		return err
	}
	set, err := desc.DecodeImageSet(props)
	if err != nil {
		return wrapDecode("images", err)
	}
	n.set = set
	n.s = bind.NewImageSet(env, set)
	return n.s.Attach(ctx.Ctx(), ctx.Poster(), func(err error) {
		if err != nil && ctx.Alive() {
			ctx.Fail(err)
		}
	})
}

func (n *imagesNode) Update(ctx *host.Context, prev, next desc.Object) error {
	set, err := desc.DecodeImageSet(next)
	if err != nil {
		return wrapDecode("images", err)
	}
	if !reflect.DeepEqual(set, n.set) {
		ctx.Logger().Warn("image set is fixed at mount; remount to change it")
	}
	return nil
}

func (n *imagesNode) Unmount(*host.Context) error {
	if n.s == nil {
		return nil
	}
	return n.s.Detach()
}
