package host

import (
	"strings"

	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/dom"
)

// TextKind is the kind of text nodes.
const TextKind = "#text"

// Node is one declarative tree node.
type Node struct {
	Kind     string
	Key      string
	Props    desc.Object
	Children []*Node
	Text     string
}

// El builds a node.
func El(kind string, props desc.Object, children ...*Node) *Node {
	return &Node{Kind: kind, Props: props, Children: children}
}

// Text builds a text node.
func Text(s string) *Node {
	return &Node{Kind: TextKind, Text: s}
}

// Keyed sets the reconciliation key and returns n.
func (n *Node) Keyed(key string) *Node {
	n.Key = key
	return n
}

// domKinds are rendered by the host itself.
var domKinds = map[string]bool{
	"div":     true,
	"span":    true,
	"p":       true,
	"a":       true,
	"b":       true,
	"i":       true,
	"img":     true,
	"button":  true,
	"label":   true,
	"section": true,
	"h1":      true,
	"h2":      true,
	"h3":      true,
}

// IsDOMKind reports whether kind is rendered as a plain element.
func IsDOMKind(kind string) bool {
	return domKinds[kind]
}

// ClassList reads a class prop: a space separated string or a list.
func ClassList(v any) []string {
	switch val := v.(type) {
	case string:
		return strings.Fields(val)
	case []string:
		return val
	case []any:
		var out []string
		for _, elem := range val {
			if s, ok := elem.(string); ok {
				out = append(out, strings.Fields(s)...)
			}
		}
		return out
	}
	return nil
}

// StyleMap reads a style prop mapping.
func StyleMap(v any) map[string]string {
	var m map[string]any
	switch val := v.(type) {
	case desc.Object:
		m = val
	case map[string]any:
		m = val
	case map[string]string:
		return val
	default:
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

func applyDOMProps(el *dom.Node, props desc.Object) {
	el.SetClasses(ClassList(props["class"]))
	el.ReplaceStyle(StyleMap(props["style"]))
}
