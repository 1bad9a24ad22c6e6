package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"

	"github.com/roach88/mapbind/internal/dom"
	"github.com/roach88/mapbind/internal/gate"
	"github.com/roach88/mapbind/internal/loop"
	"github.com/roach88/mapbind/internal/scope"
)

// ErrUnmounted is returned by Render after Unmount.
var ErrUnmounted = errors.New("host: root is unmounted")

// Option configures a Root.
type Option func(*Root)

// WithLoop sets the UI thread dispatcher. By default the root creates one
// and the caller drains it through Root.Loop.
func WithLoop(l *loop.Loop) Option {
	return func(r *Root) { r.loop = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Root) { r.logger = l }
}

// WithErrorHandler sets the error boundary called for every fatal error,
// including asynchronous ones.
func WithErrorHandler(fn func(error)) Option {
	return func(r *Root) { r.onError = fn }
}

// WithTrace observes attach and detach of every engine entity.
func WithTrace(fn func(phase, entity string)) Option {
	return func(r *Root) { r.trace = fn }
}

// WithContext sets the parent context of asynchronous work.
func WithContext(ctx context.Context) Option {
	return func(r *Root) { r.ctx = ctx }
}

// WithFrame publishes root-level context values.
func WithFrame(f *scope.Frame) Option {
	return func(r *Root) { r.frame = f }
}

// Root owns a mounted tree.
type Root struct {
	reg     Registry
	loop    *loop.Loop
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	onError func(error)
	trace   func(phase, entity string)
	frame   *scope.Frame

	top       *instance
	current   *Node
	err       error
	rendering bool
	posted    bool
	unmounted bool
}

// NewRoot creates a root rendering into container.
func NewRoot(container *dom.Node, reg Registry, opts ...Option) *Root {
	r := &Root{
		reg:    reg,
		logger: slog.Default(),
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.loop == nil {
		r.loop = loop.New()
	}
	r.ctx, r.cancel = context.WithCancel(r.ctx)
	r.top = &instance{el: container, alive: true, frame: r.frame}
	return r
}

// Loop returns the root's UI thread dispatcher.
func (r *Root) Loop() *loop.Loop { return r.loop }

// Err returns the first fatal error seen by the root.
func (r *Root) Err() error { return r.err }

// Render mounts n, or reconciles the mounted tree against it.
func (r *Root) Render(n *Node) error {
	if r.unmounted {
		return ErrUnmounted
	}
	if r.rendering {
		return errors.New("host: render pass already running")
	}
	r.current = n
	return r.pass(func() error {
		return r.reconcileChildren(r.top, []*Node{n})
	})
}

// Refresh re-renders the current tree.
func (r *Root) Refresh() error {
	if r.current == nil {
		return nil
	}
	return r.Render(r.current)
}

// Invalidate schedules one refresh on the loop.
func (r *Root) Invalidate() {
	if r.posted || r.unmounted {
		return
	}
	r.posted = true
	r.loop.Post(func() {
		r.posted = false
		if r.unmounted {
			return
		}
		if err := r.Refresh(); err != nil {
			r.logger.Debug("refresh failed", "error", err)
		}
	})
}

// Unmount tears the tree down, children before parents and siblings in
// reverse order. Every component is unmounted even when some fail; the
// failures are joined.
func (r *Root) Unmount() error {
	if r.unmounted {
		return nil
	}
	r.unmounted = true
	defer r.cancel()
	var errs []error
	for i := len(r.top.children) - 1; i >= 0; i-- {
		errs = append(errs, r.unmount(r.top.children[i]))
	}
	r.top.children = nil
	if err := errors.Join(errs...); err != nil {
		return r.fail(err)
	}
	return nil
}

func (r *Root) fail(err error) error {
	if err == nil {
		return nil
	}
	if r.err == nil {
		r.err = err
	}
	r.logger.Error("binding failure", "error", err)
	if r.onError != nil {
		r.onError(err)
	}
	return err
}

func (r *Root) pass(body func() error) error {
	r.rendering = true
	defer func() { r.rendering = false }()

	if err := r.hooks(r.top, RenderHooks.BeforeRender); err != nil {
		return r.fail(err)
	}
	if err := body(); err != nil {
		return r.fail(err)
	}
	if err := r.hooks(r.top, RenderHooks.AfterRender); err != nil {
		return r.fail(err)
	}
	return nil
}

func (r *Root) hooks(inst *instance, fn func(RenderHooks, *Context) error) error {
	if h, ok := inst.comp.(RenderHooks); ok && inst.alive {
		if err := fn(h, inst.ctx); err != nil {
			return fmt.Errorf("%s: %w", inst.node.Kind, err)
		}
	}
	for _, c := range inst.children {
		if err := r.hooks(c, fn); err != nil {
			return err
		}
	}
	return nil
}

type instance struct {
	node     *Node
	parent   *instance
	comp     Component
	ctx      *Context
	el       *dom.Node
	frame    *scope.Frame
	gate     *gate.Gate
	children []*instance
	alive    bool
	watching bool
}

// childFrame is the frame handed to children.
func (i *instance) childFrame() *scope.Frame {
	if i.ctx != nil {
		return i.ctx.child
	}
	return i.frame
}

func (i *instance) open() bool {
	return i.gate == nil || i.gate.Ready()
}

func (r *Root) mount(n *Node, parent *instance) (*instance, error) {
	inst := &instance{node: n, parent: parent, alive: true, frame: parent.childFrame()}

	switch {
	case n.Kind == TextKind:
		inst.el = dom.NewText(n.Text)
		return inst, nil

	case r.reg[n.Kind] != nil:
		comp := r.reg[n.Kind]()
		inst.comp = comp
		if w, ok := comp.(Wrapper); ok {
			inst.el = dom.NewElement(w.Wrap())
		}
		inst.ctx = &Context{root: r, inst: inst, frame: inst.frame, child: inst.frame}
		if err := comp.Setup(inst.ctx, n.Props); err != nil {
			err = fmt.Errorf("%s: %w", n.Kind, err)
			if uerr := r.unmount(inst); uerr != nil {
				err = errors.Join(err, uerr)
			}
			return nil, err
		}
		if g, ok := comp.(Gated); ok {
			inst.gate = g.Gate()
		}

	case IsDOMKind(n.Kind):
		inst.el = dom.NewElement(n.Kind)
		applyDOMProps(inst.el, n.Props)

	default:
		return nil, fmt.Errorf("host: unknown node kind %q", n.Kind)
	}

	if err := r.settle(inst); err != nil {
		return inst, err
	}
	return inst, nil
}

// settle mounts or reconciles children when the gate is open and watches
// the gate otherwise.
func (r *Root) settle(inst *instance) error {
	if inst.open() {
		return r.reconcileChildren(inst, inst.node.Children)
	}
	if !inst.watching {
		inst.watching = true
		inst.gate.OnReady(func() {
			if inst.alive {
				r.Invalidate()
			}
		})
	}
	return nil
}

func (r *Root) update(inst *instance, n *Node) error {
	prev := inst.node
	inst.node = n

	switch {
	case inst.comp != nil:
		if !reflect.DeepEqual(prev.Props, n.Props) {
			if err := inst.comp.Update(inst.ctx, prev.Props, n.Props); err != nil {
				return fmt.Errorf("%s: %w", n.Kind, err)
			}
		}
		if g, ok := inst.comp.(Gated); ok {
			if next := g.Gate(); next != inst.gate {
				inst.gate = next
				inst.watching = false
			}
		}
	case n.Kind == TextKind:
		inst.el.Data = n.Text
		return nil
	default:
		applyDOMProps(inst.el, n.Props)
	}
	return r.settle(inst)
}

func keyOf(n *Node, i int) string {
	if n.Key != "" {
		return "k:" + n.Key
	}
	return "i:" + strconv.Itoa(i)
}

// reconcileChildren matches nodes against p's children by key and kind,
// unmounts the leftovers (in reverse), then updates or mounts in order.
func (r *Root) reconcileChildren(p *instance, nodes []*Node) error {
	old := p.children
	byKey := make(map[string]*instance, len(old))
	for i, c := range old {
		byKey[keyOf(c.node, i)] = c
	}

	matched := make([]*instance, len(nodes))
	used := make(map[*instance]bool, len(old))
	for i, n := range nodes {
		if c, ok := byKey[keyOf(n, i)]; ok && c.node.Kind == n.Kind && !used[c] {
			matched[i] = c
			used[c] = true
		}
	}

	var errs []error
	for i := len(old) - 1; i >= 0; i-- {
		if !used[old[i]] {
			errs = append(errs, r.unmount(old[i]))
		}
	}

	next := make([]*instance, 0, len(nodes))
	for i, n := range nodes {
		if c := matched[i]; c != nil {
			next = append(next, c)
			if err := r.update(c, n); err != nil {
				errs = append(errs, err)
				break
			}
			continue
		}
		c, err := r.mount(n, p)
		if c != nil {
			next = append(next, c)
		}
		if err != nil {
			errs = append(errs, err)
			break
		}
	}
	// Keep matched instances that were not reached so Unmount still
	// releases them.
	for _, c := range matched {
		if c != nil && !containsInstance(next, c) {
			next = append(next, c)
		}
	}
	p.children = next
	r.order(p)
	return errors.Join(errs...)
}

func containsInstance(list []*instance, c *instance) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}

func (r *Root) unmount(inst *instance) error {
	if !inst.alive {
		return nil
	}
	inst.alive = false

	var errs []error
	for i := len(inst.children) - 1; i >= 0; i-- {
		errs = append(errs, r.unmount(inst.children[i]))
	}
	inst.children = nil
	if inst.gate != nil {
		inst.gate.Cancel()
	}
	if inst.comp != nil {
		if err := inst.comp.Unmount(inst.ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", inst.node.Kind, err))
		}
	}
	if inst.el != nil && inst.parent != nil {
		inst.el.Remove()
	}
	return errors.Join(errs...)
}

// --- DOM placement ---

// hostEl is the element p's children render into.
func hostEl(p *instance) *dom.Node {
	for cur := p; cur != nil; cur = cur.parent {
		if cur.el != nil {
			return cur.el
		}
	}
	return nil
}

// domNodes are the top-level DOM nodes an instance contributes.
func domNodes(inst *instance) []*dom.Node {
	if inst.el != nil {
		return []*dom.Node{inst.el}
	}
	var out []*dom.Node
	for _, c := range inst.children {
		out = append(out, domNodes(c)...)
	}
	return out
}

// domAfter is the first DOM node following inst in its host element, or
// nil when inst's nodes go last.
func domAfter(inst *instance) *dom.Node {
	for cur := inst; cur.parent != nil; cur = cur.parent {
		sibs := cur.parent.children
		idx := -1
		for i, s := range sibs {
			if s == cur {
				idx = i
				break
			}
		}
		if idx >= 0 {
			for _, s := range sibs[idx+1:] {
				if ns := domNodes(s); len(ns) > 0 {
					return ns[0]
				}
			}
		}
		if cur.parent.el != nil {
			return nil
		}
	}
	return nil
}

// order places p's children's DOM nodes in child order.
func (r *Root) order(p *instance) {
	host := hostEl(p)
	if host == nil {
		return
	}
	var ref *dom.Node
	if p.el == nil {
		ref = domAfter(p)
	}
	if ref != nil && ref.Parent != host {
		ref = nil
	}
	nodes := make([]*dom.Node, 0, len(p.children))
	for _, c := range p.children {
		nodes = append(nodes, domNodes(c)...)
	}
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if n.Parent != host || n.NextSibling() != ref {
			if err := host.InsertBefore(n, ref); err != nil {
				host.AppendChild(n)
			}
		}
		ref = n
	}
}
