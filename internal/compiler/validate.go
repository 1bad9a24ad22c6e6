package compiler

import (
	"fmt"
	"slices"

	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/host"
	"github.com/roach88/mapbind/internal/ident"
	"github.com/roach88/mapbind/internal/nodes"
)

// Validation error codes (E100-E199)
const (
	ErrUnknownKind      = "E100" // node kind is neither a scene kind nor a DOM kind
	ErrOutsideMap       = "E101" // scene node without a map ancestor
	ErrNestedMap        = "E102" // map inside a map
	ErrInvalidProps     = "E103" // props do not decode for the kind
	ErrMissingSource    = "E104" // layer without source and without a source ancestor
	ErrDuplicateKey     = "E105" // two siblings share a key
	ErrUnknownBefore    = "E106" // before names a layer the tree does not declare
	ErrUnknownListener  = "E107" // listener name not in the registry
	ErrDuplicateLayerID = "E108" // two layers share an id
	ErrReservedID       = "E109" // source or layer id uses the generated-id prefix
)

// ValidationError represents a tree validation error.
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
}

// Options tunes validation.
type Options struct {
	// Listeners names the string listeners event nodes may use. Nil skips
	// the check.
	Listeners []string
}

// Validate checks a compiled tree.
// Returns all errors found (does not fail-fast).
func Validate(root *host.Node, opts Options) []ValidationError {
	v := &validator{opts: opts, layers: map[string]string{}}
	v.node(root, "tree", false, false)
	v.befores()
	return v.errs
}

type validator struct {
	opts    Options
	errs    []ValidationError
	layers  map[string]string // layer id -> path
	pending []beforeRef
}

type beforeRef struct {
	path, before string
}

func (v *validator) add(path, code, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{Path: path, Code: code, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) node(n *host.Node, path string, inMap, inSource bool) {
	switch {
	case n.Kind == host.TextKind || host.IsDOMKind(n.Kind):
	case n.Kind == nodes.KindMap:
		if inMap {
			v.add(path, ErrNestedMap, "map nodes cannot nest")
		}
		inMap = true
	case slices.Contains(nodes.Kinds(), n.Kind):
		if !inMap {
			v.add(path, ErrOutsideMap, "%s must be inside a map", n.Kind)
		}
		v.props(n, path, inSource)
		if _, ok := nodes.SourceKindOf(n.Kind); ok {
			inSource = true
		}
	default:
		v.add(path, ErrUnknownKind, "unknown node kind %q", n.Kind)
	}

	seen := map[string]bool{}
	for i, c := range n.Children {
		cp := fmt.Sprintf("%s.children[%d]", path, i)
		if c.Key != "" {
			if seen[c.Key] {
				v.add(cp, ErrDuplicateKey, "duplicate key %q", c.Key)
			}
			seen[c.Key] = true
		}
		v.node(c, cp, inMap, inSource)
	}
}

func (v *validator) props(n *host.Node, path string, inSource bool) {
	var err error
	forced, isSource := nodes.SourceKindOf(n.Kind)
	switch {
	case isSource:
		v.entityID(n, path)
		props := n.Props.Without("id")
		if forced != "" {
			props["type"] = string(forced)
		}
		_, err = desc.DecodeSource(props)
	case n.Kind == nodes.KindLayer:
		v.layer(n, path, inSource)
		return
	case n.Kind == nodes.KindMarker || n.Kind == nodes.KindPopup:
		_, err = desc.DecodeOverlay(n.Props)
	case n.Kind == nodes.KindImages:
		_, err = desc.DecodeImageSet(n.Props)
	case n.Kind == nodes.KindEvent:
		var ev desc.Event
		ev, err = desc.DecodeEvent(n.Props)
		if name, ok := ev.Listener.(string); ok && err == nil && v.opts.Listeners != nil && !slices.Contains(v.opts.Listeners, name) {
			v.add(path, ErrUnknownListener, "unknown listener %q", name)
		}
	}
	if err != nil {
		v.add(path, ErrInvalidProps, "%v", err)
	}
}

func (v *validator) layer(n *host.Node, path string, inSource bool) {
	l, err := desc.DecodeLayer(n.Props.Without("before"))
	if err != nil {
		v.add(path, ErrInvalidProps, "%v", err)
		return
	}
	if l.Source == "" && !inSource && !nodes.Sourceless(l.Type) {
		v.add(path, ErrMissingSource, "layer has no source and no source ancestor")
	}
	v.entityID(n, path)
	if l.ID != "" {
		if prev, ok := v.layers[l.ID]; ok {
			v.add(path, ErrDuplicateLayerID, "layer id %q already declared at %s", l.ID, prev)
		} else {
			v.layers[l.ID] = path
		}
	}
	if before, ok := n.Props.String("before"); ok && before != "" {
		v.pending = append(v.pending, beforeRef{path: path, before: before})
	}
}

func (v *validator) entityID(n *host.Node, path string) {
	if id, ok := n.Props.String("id"); ok && ident.Reserved(id) {
		v.add(path, ErrReservedID, "id %q uses the reserved prefix %q", id, ident.Prefix)
	}
}

func (v *validator) befores() {
	for _, ref := range v.pending {
		if _, ok := v.layers[ref.before]; !ok {
			v.add(ref.path, ErrUnknownBefore, "before references unknown layer %q", ref.before)
		}
	}
}
