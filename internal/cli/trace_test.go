package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mapbind/internal/mapengine"
)

func TestTraceMissingDatabaseFlag(t *testing.T) {
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--session", "demo"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTraceNonExistentDatabase(t *testing.T) {
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", "/nonexistent/path/journal.db", "--session", "demo"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "journal not found")
}

func TestTraceListsSessions(t *testing.T) {
	db := filepath.Join(t.TempDir(), "journal.db")
	mountInto(t, db, "first")
	mountInto(t, db, "second")

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", db})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "first  ended  scene")
	assert.Contains(t, buf.String(), "second  ended  scene")
}

func TestTraceSessionText(t *testing.T) {
	db := filepath.Join(t.TempDir(), "journal.db")
	mountInto(t, db, "demo")

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", db, "--session", "demo"})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "Session: demo (ended)")
	assert.Contains(t, out, "add_source pts")
	assert.Contains(t, out, "add_layer dots")
}

func TestTraceSessionJSONFilteredByOp(t *testing.T) {
	db := filepath.Join(t.TempDir(), "journal.db")
	mountInto(t, db, "demo")

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", db, "--session", "demo", "--op", mapengine.OpAddLayer})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "demo", resp.Data.Session.ID)
	require.Len(t, resp.Data.Calls, 1)
	assert.Equal(t, "dots", resp.Data.Calls[0].Target)
	assert.Equal(t, map[string]int{mapengine.OpAddLayer: 1}, resp.Data.Stats.ByOp)
}

func TestTraceUnknownSession(t *testing.T) {
	db := filepath.Join(t.TempDir(), "journal.db")
	mountInto(t, db, "demo")

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", db, "--session", "nope"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "session not found: nope")
}
