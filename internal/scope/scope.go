// Package scope implements tree-scoped propagation of ambient values.
//
// A Frame is immutable. Publishing a value returns a child frame that sees
// the new value plus everything its parent saw, so a node hands its frame
// to its descendants and siblings never observe each other's publications.
// Lookup resolves to the nearest publisher of a key.
package scope

import "github.com/roach88/mapbind/internal/fault"

// Key is a typed context key. Keys compare by identity, so two keys with
// the same name never alias.
type Key[T any] struct {
	id *keyID
}

type keyID struct {
	name string
}

// NewKey creates a key. The name is used in error messages only.
func NewKey[T any](name string) Key[T] {
	return Key[T]{id: &keyID{name: name}}
}

// Name returns the key's name.
func (k Key[T]) Name() string {
	if k.id == nil {
		return ""
	}
	return k.id.name
}

// Frame is one level of published context. The nil *Frame is the empty
// root frame and is valid everywhere.
type Frame struct {
	parent *Frame
	key    *keyID
	value  any
}

// Root returns the empty frame.
func Root() *Frame {
	return nil
}

// Publish returns a child of f in which k resolves to v.
func Publish[T any](f *Frame, k Key[T], v T) *Frame {
	return &Frame{parent: f, key: k.id, value: v}
}

// Lookup returns the value published for k by the nearest frame.
func Lookup[T any](f *Frame, k Key[T]) (T, bool) {
	for cur := f; cur != nil; cur = cur.parent {
		if cur.key == k.id {
			v, ok := cur.value.(T)
			return v, ok
		}
	}
	var zero T
	return zero, false
}

// Require is Lookup for keys a node cannot work without. entity names the
// requesting node kind for the error.
func Require[T any](f *Frame, k Key[T], entity string) (T, error) {
	v, ok := Lookup(f, k)
	if !ok {
		var zero T
		return zero, fault.MissingContext(k.Name(), entity)
	}
	return v, nil
}

// Has reports whether any frame up the chain publishes k.
func Has[T any](f *Frame, k Key[T]) bool {
	_, ok := Lookup(f, k)
	return ok
}

// Depth returns the number of publications visible from f.
func (f *Frame) Depth() int {
	n := 0
	for cur := f; cur != nil; cur = cur.parent {
		n++
	}
	return n
}
