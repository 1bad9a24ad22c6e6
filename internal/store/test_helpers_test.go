package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/mapengine"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// beginTestSession opens a session or fails the test.
func beginTestSession(t *testing.T, s *Store, id string, seq int64) {
	t.Helper()
	if err := s.BeginSession(context.Background(), Session{ID: id, Label: "test", StartedSeq: seq}); err != nil {
		t.Fatalf("BeginSession() failed: %v", err)
	}
}

func testCall(session string, seq int64, op, target string, args desc.Object) mapengine.Call {
	return mapengine.Call{Seq: seq, Session: session, Op: op, Target: target, Args: args}
}
