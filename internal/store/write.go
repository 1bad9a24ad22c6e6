package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/mapbind/internal/mapengine"
)

// Session describes one journaled tree mount.
type Session struct {
	ID         string
	Label      string
	TreeHash   string
	StartedSeq int64
	EndedSeq   int64 // 0 while the session is open
}

// Open reports whether the session has not been ended.
func (s Session) Open() bool { return s.EndedSeq == 0 }

// BeginSession inserts a session record. Uses ON CONFLICT(id) DO NOTHING
// for idempotency.
func (s *Store) BeginSession(ctx context.Context, sess Session) error {
	if sess.ID == "" {
		return errors.New("begin session: empty id")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, label, tree_hash, started_seq)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, sess.ID, sess.Label, sess.TreeHash, sess.StartedSeq)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	return nil
}

// EndSession stamps the last seq of a session.
func (s *Store) EndSession(ctx context.Context, id string, seq int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET ended_seq = ? WHERE id = ?`, seq, id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("end session: %w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// RecordCall appends one engine call to its session. Duplicate
// (session, seq) pairs are silently ignored.
//
// The session must exist (foreign key constraint).
func (s *Store) RecordCall(ctx context.Context, c mapengine.Call) error {
	argsJSON, err := marshalArgs(c.Args)
	if err != nil {
		return fmt.Errorf("record call %s: %w", c.Op, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO calls (session_id, seq, op, target, args)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, c.Session, c.Seq, c.Op, c.Target, argsJSON)
	if err != nil {
		return fmt.Errorf("record call %s: %w", c.Op, err)
	}
	return nil
}

var _ mapengine.Recorder = (*Store)(nil)
