package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sceneDocument = filepath.Join("..", "compiler", "testdata", "scene.cue")

func writeDocument(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateValidDocument(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{sceneDocument})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "✓ All documents valid")
}

func TestValidateDirectoryJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Dir(sceneDocument)})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	require.Len(t, resp.Data.Documents, 2)
	assert.Equal(t, "scene", resp.Data.Documents[0].Name)
}

func TestValidateNonExistentPath(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/directory/path"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005")
	assert.Contains(t, buf.String(), "not found")
}

func TestValidateEmptyDirectory(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{t.TempDir()})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E003")
	assert.Contains(t, buf.String(), "no documents found")
}

func TestValidateInvalidDocument(t *testing.T) {
	path := writeDocument(t, t.TempDir(), "bad.yaml", `
name: bad
description: a layer with nowhere to draw from
tree:
  kind: map
  children:
    - kind: layer
      props:
        id: orphan
        type: circle
`)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "E104")
	assert.Contains(t, buf.String(), "Validation failed for 1 document(s)")
}

func TestValidateBeforeCycleJSON(t *testing.T) {
	path := writeDocument(t, t.TempDir(), "cycle.yaml", `
name: cycle
description: layers placed before each other
tree:
  kind: map
  children:
    - kind: geojson-source
      props: {id: pts, data: points.json}
      children:
        - kind: layer
          props: {id: a, type: circle, before: b}
        - kind: layer
          props: {id: b, type: circle, before: a}
`)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Documents, 1)
	assert.Empty(t, resp.Data.Documents[0].Errors)
	require.NotEmpty(t, resp.Data.Documents[0].Warnings)
	assert.Equal(t, "error", resp.Data.Documents[0].Warnings[0].Level)
	assert.Contains(t, resp.Error.Message, "cycle")
}

func TestValidateUnknownListener(t *testing.T) {
	path := writeDocument(t, t.TempDir(), "events.yaml", `
name: events
description: a map click with an unregistered listener
tree:
  kind: map
  children:
    - kind: event
      props: {event: click, listener: nope}
`)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, "--listeners", "clicked"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, buf.String(), "E107")
}
