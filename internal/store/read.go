package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/mapbind/internal/mapengine"
)

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = errors.New("session not found")

// ReadSession returns a session and its calls ordered by seq.
//
// Returns an empty slice (not nil) if the session has no calls.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, []mapengine.Call, error) {
	var (
		sess  Session
		ended sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, label, tree_hash, started_seq, ended_seq
		FROM sessions WHERE id = ?
	`, id).Scan(&sess.ID, &sess.Label, &sess.TreeHash, &sess.StartedSeq, &ended)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, nil, fmt.Errorf("read session: %w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return Session{}, nil, fmt.Errorf("read session: %w", err)
	}
	sess.EndedSeq = ended.Int64

	calls, err := s.readCalls(ctx, `
		SELECT session_id, seq, op, target, args
		FROM calls
		WHERE session_id = ?
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return Session{}, nil, err
	}
	return sess, calls, nil
}

// CallsByOp returns the calls of a session with the given op, ordered by seq.
func (s *Store) CallsByOp(ctx context.Context, id, op string) ([]mapengine.Call, error) {
	return s.readCalls(ctx, `
		SELECT session_id, seq, op, target, args
		FROM calls
		WHERE session_id = ? AND op = ?
		ORDER BY seq ASC
	`, id, op)
}

// Sessions lists every session ordered by start seq, then id.
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, tree_hash, started_seq, ended_seq
		FROM sessions
		ORDER BY started_seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := []Session{}
	for rows.Next() {
		var (
			sess  Session
			ended sql.NullInt64
		)
		if err := rows.Scan(&sess.ID, &sess.Label, &sess.TreeHash, &sess.StartedSeq, &ended); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.EndedSeq = ended.Int64
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

func (s *Store) readCalls(ctx context.Context, query string, args ...any) ([]mapengine.Call, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	calls := []mapengine.Call{}
	for rows.Next() {
		var (
			c        mapengine.Call
			argsJSON string
		)
		if err := rows.Scan(&c.Session, &c.Seq, &c.Op, &c.Target, &argsJSON); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		c.Args, err = unmarshalArgs(argsJSON)
		if err != nil {
			return nil, fmt.Errorf("call %d: %w", c.Seq, err)
		}
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}
	return calls, nil
}
