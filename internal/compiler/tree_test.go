package compiler

import (
	"errors"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/host"
)

func sceneTree() *host.Node {
	return &host.Node{
		Kind:  "map",
		Props: desc.Object{"options": desc.Object{"center": []any{0.0, 0.0}, "zoom": 2.0}},
		Children: []*host.Node{
			{
				Kind:  "geojson-source",
				Props: desc.Object{"id": "pts", "data": "points.json"},
				Children: []*host.Node{{
					Kind:  "layer",
					Props: desc.Object{"id": "dots", "type": "circle", "paint": desc.Object{"circle-radius": 4.0}},
				}},
			},
			{
				Kind:     "marker",
				Key:      "m1",
				Props:    desc.Object{"position": []any{10.0, 20.0}, "class": "pin"},
				Children: []*host.Node{{Kind: host.TextKind, Text: "here"}},
			},
		},
	}
}

func TestLoadFile_CUEAndYAMLAgree(t *testing.T) {
	for _, name := range []string{"scene.cue", "scene.yaml"} {
		t.Run(name, func(t *testing.T) {
			doc, err := LoadFile(filepath.Join("testdata", name))
			require.NoError(t, err)
			assert.Equal(t, "scene", doc.Name)
			assert.Equal(t, "points with a marker", doc.Description)
			if diff := cmp.Diff(sceneTree(), doc.Tree); diff != "" {
				t.Errorf("tree mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadBytes_UnknownFieldRejected(t *testing.T) {
	_, err := LoadBytes("bad.cue", []byte(`tree: {kind: "map", colour: "red"}`))
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.True(t, ce.Pos.IsValid(), "error carries a position")
}

func TestLoadBytes_MissingTree(t *testing.T) {
	_, err := LoadBytes("bad.yaml", []byte("name: x\n"))
	assert.Error(t, err)
}

func TestLoadBytes_EmptyKind(t *testing.T) {
	_, err := LoadBytes("bad.cue", []byte(`tree: {kind: ""}`))
	assert.Error(t, err)
}

func TestLoadBytes_UnsupportedFormat(t *testing.T) {
	_, err := LoadBytes("tree.json", []byte(`{}`))
	assert.ErrorContains(t, err, "unsupported document format")
}

func TestLoadBytes_TextNeedsText(t *testing.T) {
	_, err := LoadBytes("t.cue", []byte(`tree: {kind: "div", children: [{kind: "#text"}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tree.children[0].text")
}

func TestFromValue(t *testing.T) {
	doc, err := FromValue(map[string]any{
		"tree": map[string]any{
			"kind":  "map",
			"props": map[string]any{"class": "full"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, &host.Node{Kind: "map", Props: desc.Object{"class": "full"}}, doc.Tree)
}

func TestCompileTree_PropsDefaultToEmpty(t *testing.T) {
	v := cuecontext.New().CompileString(`tree: {kind: "map", key: "k"}`)
	n, err := CompileTree(v.LookupPath(cue.ParsePath("tree")))
	require.NoError(t, err)
	assert.Equal(t, "k", n.Key)
	assert.NotNil(t, n.Props)
	assert.Empty(t, n.Children)
}
