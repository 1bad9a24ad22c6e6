package nodes

import (
	"github.com/roach88/mapbind/internal/bind"
	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/host"
)

// layerNode binds one layer. Its source defaults to the nearest parent
// entity.
type layerNode struct {
	cfg *Config
	b   *bind.LayerBinding
}

func (n *layerNode) decode(ctx *host.Context, props desc.Object) (*desc.Layer, string, error) {
	l, err := desc.DecodeLayer(props.Without("before"))
	if err != nil {
		return nil, "", wrapDecode("layer", err)
	}
	if l.Source == "" && !Sourceless(l.Type) {
		src, err := host.Use(ctx, ParentEntityKey)
		if err != nil {
			return nil, "", err
		}
		l.Source = src
	}
	return l, props.StringOr("before", ""), nil
}

func (n *layerNode) Setup(ctx *host.Context, props desc.Object) error {
	env, err := envFor(ctx)
	if err != nil {
		return err
	}
	l, before, err := n.decode(ctx, props)
	if err != nil {
		return err
	}
	id, err := n.cfg.entityID("layer", l.ID)
	if err != nil {
		return err
	}
	n.b = bind.NewLayer(env, id)
	return n.b.Attach(l, before)
}

func (n *layerNode) Update(ctx *host.Context, prev, next desc.Object) error {
	l, before, err := n.decode(ctx, next)
	if err != nil {
		return err
	}
	return n.b.Update(l, before)
}

func (n *layerNode) Unmount(*host.Context) error {
	if n.b == nil {
		return nil
	}
	return n.b.Detach()
}
