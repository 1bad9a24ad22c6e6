// Package host is the declarative side of the binding: a small component
// runtime that mounts a tree of Nodes, reconciles it on every render pass
// and tears it down.
//
// Components attach in pre-order (a parent's Setup runs before its
// children exist, so whatever it Provides is visible to them) and detach
// in post-order with siblings in reverse, which makes teardown the exact
// mirror of attach. A component implementing Gated holds its children back
// until its gate opens; the gate flip schedules a refresh on the root's
// loop. Components implementing RenderHooks are called around every render
// pass, tree-wide.
package host
