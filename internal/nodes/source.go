package nodes

import (
	"github.com/roach88/mapbind/internal/bind"
	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/host"
)

// sourceNode binds one source and publishes its id as the parent entity
// of nested layers. forced fixes the kind for typed source nodes.
type sourceNode struct {
	cfg    *Config
	forced desc.SourceKind
	b      *bind.SourceBinding
}

func (n *sourceNode) decode(props desc.Object) (desc.Source, error) {
	raw := props.Without("id")
	if n.forced != "" {
		raw["type"] = string(n.forced)
	}
	src, err := desc.DecodeSource(raw)
	if err != nil {
		return nil, wrapDecode("source", err)
	}
	return src, nil
}

func (n *sourceNode) Setup(ctx *host.Context, props desc.Object) error {
	env, err := envFor(ctx)
	if err != nil {
		return err
	}
	src, err := n.decode(props)
	if err != nil {
		return err
	}
	id, err := n.cfg.entityID("source", props.StringOr("id", ""))
	if err != nil {
		return err
	}
	n.b = bind.NewSource(env, id)
	host.Provide(ctx, ParentEntityKey, id)
	return n.b.Attach(src)
}

func (n *sourceNode) Update(ctx *host.Context, prev, next desc.Object) error {
	if id, ok := next.String("id"); ok && id != n.b.ID() {
		ctx.Logger().Warn("source id is fixed at creation", "source", n.b.ID(), "requested", id)
	}
	src, err := n.decode(next)
	if err != nil {
		return err
	}
	return n.b.Update(src)
}

func (n *sourceNode) Unmount(*host.Context) error {
	if n.b == nil {
		return nil
	}
	return n.b.Detach()
}
