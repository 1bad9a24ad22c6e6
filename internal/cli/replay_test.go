package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayMissingFlags(t *testing.T) {
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", "journal.db"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestReplayRebuildsStyle(t *testing.T) {
	db := filepath.Join(t.TempDir(), "journal.db")
	mountInto(t, db, "demo", "--rerender", "1")

	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", db, "--session", "demo"})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Deterministic)
	assert.Empty(t, resp.Data.Diff)
	assert.Positive(t, resp.Data.Applied)
	assert.Positive(t, resp.Data.Skipped, "create and overlay calls are skipped")

	require.Contains(t, resp.Data.State.Sources, "pts")
	assert.Equal(t, "geojson", resp.Data.State.Sources["pts"]["type"])
	require.Len(t, resp.Data.State.Layers, 1)
	assert.Equal(t, "dots", resp.Data.State.Layers[0].ID)
}

func TestReplayAfterUnmountIsEmpty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "journal.db")
	mountInto(t, db, "gone", "--unmount")

	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", db, "--session", "gone"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "✓ Replayed session gone")
	assert.Contains(t, buf.String(), "sources: -")
	assert.Contains(t, buf.String(), "layers:  -")
}

func TestReplayUnknownSession(t *testing.T) {
	db := filepath.Join(t.TempDir(), "journal.db")
	mountInto(t, db, "demo")

	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", db, "--session", "nope"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
