// Package dom is a minimal document tree: elements, text and comments with
// parent pointers, class lists and inline styles. The host renders into it
// and the map engine creates its overlay containers in it.
package dom

import (
	"errors"
	"slices"
	"sort"
	"strings"
)

// ErrNotChild is returned when a reference node is not a child of the
// node being modified.
var ErrNotChild = errors.New("dom: node is not a child of this node")

// NodeType distinguishes elements from character data.
type NodeType uint8

const (
	ElementNode NodeType = iota
	TextNode
	CommentNode
)

// Node is a document node. Tag is set for elements, Data for text and
// comments.
type Node struct {
	Type   NodeType
	Tag    string
	Data   string
	Parent *Node

	children []*Node
	classes  []string
	style    map[string]string
}

// NewElement creates a detached element.
func NewElement(tag string) *Node {
	return &Node{Type: ElementNode, Tag: tag}
}

// NewText creates a detached text node.
func NewText(data string) *Node {
	return &Node{Type: TextNode, Data: data}
}

// NewComment creates a detached comment node.
func NewComment(data string) *Node {
	return &Node{Type: CommentNode, Data: data}
}

// --- Tree manipulation ---

// AppendChild appends child, removing it from its current parent first.
// Panics if child is nil or an ancestor of n.
func (n *Node) AppendChild(child *Node) {
	n.checkInsert(child)
	child.detach()
	child.Parent = n
	n.children = append(n.children, child)
}

// InsertBefore inserts child immediately before ref. A nil ref appends.
func (n *Node) InsertBefore(child, ref *Node) error {
	if ref == nil {
		n.AppendChild(child)
		return nil
	}
	if ref.Parent != n {
		return ErrNotChild
	}
	if child == ref {
		return nil
	}
	n.checkInsert(child)
	child.detach()
	i := n.indexOf(ref)
	n.children = slices.Insert(n.children, i, child)
	child.Parent = n
	return nil
}

// RemoveChild detaches child from n.
func (n *Node) RemoveChild(child *Node) error {
	if child == nil || child.Parent != n {
		return ErrNotChild
	}
	child.detach()
	return nil
}

// ReplaceChild puts replacement where old is and detaches old.
func (n *Node) ReplaceChild(replacement, old *Node) error {
	if old == nil || old.Parent != n {
		return ErrNotChild
	}
	if replacement == old {
		return nil
	}
	n.checkInsert(replacement)
	replacement.detach()
	i := n.indexOf(old)
	n.children[i] = replacement
	replacement.Parent = n
	old.Parent = nil
	return nil
}

// Remove detaches n from its parent. No-op without a parent.
func (n *Node) Remove() {
	n.detach()
}

// Children returns the child list. The returned slice MUST NOT be mutated.
func (n *Node) Children() []*Node {
	return n.children
}

// FirstChild returns the first child or nil.
func (n *Node) FirstChild() *Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

// NextSibling returns the node after n in its parent, or nil.
func (n *Node) NextSibling() *Node {
	if n.Parent == nil {
		return nil
	}
	i := n.Parent.indexOf(n)
	if i+1 < len(n.Parent.children) {
		return n.Parent.children[i+1]
	}
	return nil
}

// Contains reports whether other is n or one of its descendants.
func (n *Node) Contains(other *Node) bool {
	for p := other; p != nil; p = p.Parent {
		if p == n {
			return true
		}
	}
	return false
}

func (n *Node) checkInsert(child *Node) {
	if child == nil {
		panic("dom: cannot insert nil node")
	}
	if child.Contains(n) {
		panic("dom: insertion would create a cycle")
	}
}

func (n *Node) indexOf(child *Node) int {
	return slices.Index(n.children, child)
}

func (n *Node) detach() {
	p := n.Parent
	if p == nil {
		return
	}
	if i := p.indexOf(n); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	n.Parent = nil
}

// --- Classes and styles ---

// Classes returns the class list in insertion order.
func (n *Node) Classes() []string {
	return slices.Clone(n.classes)
}

// SetClasses replaces the class list, dropping duplicates and empties.
func (n *Node) SetClasses(classes []string) {
	n.classes = nil
	for _, c := range classes {
		n.AddClass(c)
	}
}

// AddClass appends c unless present.
func (n *Node) AddClass(c string) {
	if c == "" || n.HasClass(c) {
		return
	}
	n.classes = append(n.classes, c)
}

// HasClass reports whether c is in the class list.
func (n *Node) HasClass(c string) bool {
	return slices.Contains(n.classes, c)
}

// Style returns a copy of the inline style.
func (n *Node) Style() map[string]string {
	out := make(map[string]string, len(n.style))
	for k, v := range n.style {
		out[k] = v
	}
	return out
}

// SetStyle sets one inline style property; an empty value removes it.
func (n *Node) SetStyle(prop, value string) {
	if value == "" {
		delete(n.style, prop)
		return
	}
	if n.style == nil {
		n.style = make(map[string]string)
	}
	n.style[prop] = value
}

// ReplaceStyle replaces the whole inline style.
func (n *Node) ReplaceStyle(style map[string]string) {
	n.style = nil
	for k, v := range style {
		n.SetStyle(k, v)
	}
}

// String renders the subtree as markup with sorted style properties.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	switch n.Type {
	case TextNode:
		b.WriteString(n.Data)
		return
	case CommentNode:
		b.WriteString("<!--")
		b.WriteString(n.Data)
		b.WriteString("-->")
		return
	}
	b.WriteByte('<')
	b.WriteString(n.Tag)
	if len(n.classes) > 0 {
		b.WriteString(` class="`)
		b.WriteString(strings.Join(n.classes, " "))
		b.WriteByte('"')
	}
	if len(n.style) > 0 {
		props := make([]string, 0, len(n.style))
		for k := range n.style {
			props = append(props, k)
		}
		sort.Strings(props)
		b.WriteString(` style="`)
		for i, k := range props {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(k)
			b.WriteString(": ")
			b.WriteString(n.style[k])
			b.WriteByte(';')
		}
		b.WriteByte('"')
	}
	b.WriteByte('>')
	for _, c := range n.children {
		c.write(b)
	}
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteByte('>')
}
