// Package compiler turns tree documents into host nodes.
//
// A tree document is CUE or YAML. Both are checked against the embedded
// CUE schema before compilation, so unknown fields and malformed nodes
// fail with a source position.
package compiler

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/host"
)

//go:embed schema.cue
var schemaCUE string

// Schema compiles the document schema in ctx and returns #Document.
func Schema(ctx *cue.Context) (cue.Value, error) {
	v := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return v.LookupPath(cue.ParsePath("#Document")), nil
}

// Document is a compiled tree document.
type Document struct {
	Name        string
	Description string
	Tree        *host.Node
}

// CompileDocument checks v against the schema and compiles its tree.
func CompileDocument(v cue.Value) (*Document, error) {
	schema, err := Schema(v.Context())
	if err != nil {
		return nil, err
	}
	u := schema.Unify(v)
	if err := u.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	doc := &Document{}
	if nv := u.LookupPath(cue.ParsePath("name")); nv.Exists() {
		doc.Name, _ = nv.String()
	}
	if dv := u.LookupPath(cue.ParsePath("description")); dv.Exists() {
		doc.Description, _ = dv.String()
	}
	doc.Tree, err = CompileTree(u.LookupPath(cue.ParsePath("tree")))
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// CompileTree compiles one node value and its descendants.
//
// The value should be a #Node, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`tree: {kind: "map", children: [...]}`)
//	n, err := CompileTree(v.LookupPath(cue.ParsePath("tree")))
func CompileTree(v cue.Value) (*host.Node, error) {
	return compileNode(v, "tree")
}

func compileNode(v cue.Value, path string) (*host.Node, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	kindVal := v.LookupPath(cue.ParsePath("kind"))
	if !kindVal.Exists() {
		return nil, &CompileError{Field: path + ".kind", Message: "kind is required", Pos: v.Pos()}
	}
	kind, err := kindVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	n := &host.Node{Kind: kind}

	if kv := v.LookupPath(cue.ParsePath("key")); kv.Exists() {
		if n.Key, err = kv.String(); err != nil {
			return nil, formatCUEError(err)
		}
	}

	if kind == host.TextKind {
		tv := v.LookupPath(cue.ParsePath("text"))
		if !tv.Exists() {
			return nil, &CompileError{Field: path + ".text", Message: "text nodes need text", Pos: v.Pos()}
		}
		if n.Text, err = tv.String(); err != nil {
			return nil, formatCUEError(err)
		}
		return n, nil
	}

	n.Props = desc.Object{}
	if pv := v.LookupPath(cue.ParsePath("props")); pv.Exists() {
		if n.Props, err = decodeProps(pv); err != nil {
			return nil, &CompileError{Field: path + ".props", Message: err.Error(), Pos: pv.Pos()}
		}
	}

	cv := v.LookupPath(cue.ParsePath("children"))
	if !cv.Exists() {
		return n, nil
	}
	iter, err := cv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		child, err := compileNode(iter.Value(), fmt.Sprintf("%s.children[%d]", path, i))
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

// decodeProps goes through JSON so every number arrives as float64.
func decodeProps(v cue.Value) (desc.Object, error) {
	data, err := v.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return desc.NormalizeObject(m)
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
