package nodes

import (
	"fmt"

	"github.com/roach88/mapbind/internal/bind"
	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/dom"
	"github.com/roach88/mapbind/internal/gate"
	"github.com/roach88/mapbind/internal/host"
	"github.com/roach88/mapbind/internal/mapengine"
)

// mapNode creates and owns the engine. Its children wait for the style to
// load.
type mapNode struct {
	cfg       *Config
	engine    mapengine.Map
	container *dom.Node
	g         *gate.Gate
}

func (n *mapNode) Wrap() string { return "div" }

func (n *mapNode) Gate() *gate.Gate { return n.g }

func mapOptions(props desc.Object) desc.Object {
	if o, ok := props.Object("options"); ok {
		return o
	}
	return desc.Object{}
}

func (n *mapNode) Setup(ctx *host.Context, props desc.Object) error {
	if n.cfg.Factory == nil {
		return fmt.Errorf("no engine factory configured")
	}
	el := ctx.Element()
	el.SetClasses(host.ClassList(props["class"]))
	el.ReplaceStyle(host.StyleMap(props["style"]))

	n.container = dom.NewElement("div")
	el.AppendChild(n.container)

	eng, err := n.cfg.Factory(n.container, mapOptions(props))
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	n.engine = eng
	ctx.Trace(bind.PhaseAttach, "map")
	host.Provide(ctx, EngineKey, eng)

	n.g = gate.New(eng.IsStyleLoaded, gate.OneShotFunc(func(fn func()) func() {
		return eng.Once(mapengine.EventStyleLoad, fn)
	}))
	return nil
}

func (n *mapNode) Update(ctx *host.Context, prev, next desc.Object) error {
	el := ctx.Element()
	el.SetClasses(host.ClassList(next["class"]))
	el.ReplaceStyle(host.StyleMap(next["style"]))
	ctx.Logger().Debug("engine options are fixed at creation")
	return nil
}

func (n *mapNode) Unmount(ctx *host.Context) error {
	if n.g != nil {
		n.g.Cancel()
	}
	if n.engine != nil {
		n.engine.Remove()
		ctx.Trace(bind.PhaseDetach, "map")
	}
	if n.container != nil {
		n.container.Remove()
	}
	return nil
}
