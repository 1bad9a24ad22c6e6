package compiler

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// LoadFile reads and compiles a tree document. The extension picks the
// format: .cue, or .yaml/.yml.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return LoadBytes(path, data)
}

// LoadBytes compiles a tree document held in memory. name is used for
// positions and to pick the format.
func LoadBytes(name string, data []byte) (*Document, error) {
	ctx := cuecontext.New()
	var v cue.Value
	switch ext := filepath.Ext(name); ext {
	case ".cue":
		v = ctx.CompileBytes(data, cue.Filename(name))
	case ".yaml", ".yml":
		raw, err := decodeYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		v = ctx.Encode(raw)
	default:
		return nil, fmt.Errorf("%s: unsupported document format %q", name, ext)
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileDocument(v)
}

// FromValue compiles a document already decoded into Go values, such as a
// tree embedded in a scenario file.
func FromValue(raw any) (*Document, error) {
	v := cuecontext.New().Encode(raw)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileDocument(v)
}

func decodeYAML(data []byte) (any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return raw, nil
}
