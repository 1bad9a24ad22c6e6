package host

import (
	"context"
	"log/slog"

	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/dom"
	"github.com/roach88/mapbind/internal/gate"
	"github.com/roach88/mapbind/internal/scope"
)

// Component is a non-DOM node kind.
type Component interface {
	// Setup runs once when the node mounts, before its children.
	Setup(ctx *Context, props desc.Object) error
	// Update runs when the node's props changed.
	Update(ctx *Context, prev, next desc.Object) error
	// Unmount runs once, after every child unmounted.
	Unmount(ctx *Context) error
}

// Gated components hold their children back until the gate opens. A nil
// gate is open.
type Gated interface {
	Gate() *gate.Gate
}

// Wrapper components render their children inside an element of the
// returned tag, available as Context.Element.
type Wrapper interface {
	Wrap() string
}

// RenderHooks components run around every render pass.
type RenderHooks interface {
	BeforeRender(ctx *Context) error
	AfterRender(ctx *Context) error
}

// Factory creates a component instance.
type Factory func() Component

// Registry maps node kinds to component factories.
type Registry map[string]Factory

// Register adds a kind.
func (r Registry) Register(kind string, f Factory) {
	r[kind] = f
}

// Context is a component's view of the tree.
type Context struct {
	root  *Root
	inst  *instance
	frame *scope.Frame
	child *scope.Frame
}

// Provide publishes v under k for this node's descendants.
func Provide[T any](c *Context, k scope.Key[T], v T) {
	c.child = scope.Publish(c.child, k, v)
}

// Use returns the value of k published by the nearest ancestor, or a
// MISSING_CONTEXT error naming this node's kind.
func Use[T any](c *Context, k scope.Key[T]) (T, error) {
	return scope.Require(c.frame, k, c.inst.node.Kind)
}

// Lookup returns the value of k published by the nearest ancestor.
func Lookup[T any](c *Context, k scope.Key[T]) (T, bool) {
	return scope.Lookup(c.frame, k)
}

// Kind returns the node kind.
func (c *Context) Kind() string { return c.inst.node.Kind }

// Key returns the node key.
func (c *Context) Key() string { return c.inst.node.Key }

// Element returns the wrapper element of a Wrapper component, else nil.
func (c *Context) Element() *dom.Node { return c.inst.el }

// Logger returns the root logger tagged with the node kind.
func (c *Context) Logger() *slog.Logger {
	return c.root.logger.With("node", c.inst.node.Kind)
}

// Poster returns the UI thread dispatcher.
func (c *Context) Poster() gate.Poster { return c.root.loop }

// Ctx is cancelled when the root unmounts.
func (c *Context) Ctx() context.Context { return c.root.ctx }

// Alive reports whether the node is still mounted.
func (c *Context) Alive() bool { return c.inst.alive }

// Invalidate schedules a render pass.
func (c *Context) Invalidate() { c.root.Invalidate() }

// Fail reports an asynchronous failure to the root's error boundary.
func (c *Context) Fail(err error) {
	c.root.fail(err)
}

// Trace reports an attach or detach to the root's trace function.
func (c *Context) Trace(phase, entity string) {
	if c.root.trace != nil {
		c.root.trace(phase, entity)
	}
}
