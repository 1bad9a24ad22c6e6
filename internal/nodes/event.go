package nodes

import (
	"fmt"

	"github.com/roach88/mapbind/internal/bind"
	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/host"
)

// eventNode binds one engine event subscription.
type eventNode struct {
	cfg *Config
	b   *bind.EventBinding
}

func (n *eventNode) decode(props desc.Object) (desc.Event, error) {
	ev, err := desc.DecodeEvent(props)
	if err != nil {
		return desc.Event{}, wrapDecode("event", err)
	}
	if name, ok := ev.Listener.(string); ok {
		fn, ok := n.cfg.Listeners[name]
		if !ok {
			return desc.Event{}, fmt.Errorf("event %q: unknown listener %q", ev.Event, name)
		}
		ev.Listener = fn
	}
	return ev, nil
}

func (n *eventNode) Setup(ctx *host.Context, props desc.Object) error {
	env, err := envFor(ctx)
	if err != nil {
		return err
	}
	ev, err := n.decode(props)
	if err != nil {
		return err
	}
	n.b = bind.NewEvent(env, nameFor(ctx, n.cfg))
	return n.b.Attach(ev)
}

func (n *eventNode) Update(ctx *host.Context, prev, next desc.Object) error {
	ev, err := n.decode(next)
	if err != nil {
		return err
	}
	return n.b.Update(ev)
}

func (n *eventNode) Unmount(*host.Context) error {
	if n.b == nil {
		return nil
	}
	return n.b.Detach()
}
