package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/harness"
	"github.com/roach88/mapbind/internal/mapengine"
	"github.com/roach88/mapbind/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string // optional - lists sessions when empty
	Op       string // optional - filter to one engine operation
}

// TraceCall is one journaled engine call.
type TraceCall struct {
	Seq    int64       `json:"seq"`
	Op     string      `json:"op"`
	Target string      `json:"target,omitempty"`
	Args   desc.Object `json:"args"`
}

// TraceSession describes a journaled session.
type TraceSession struct {
	ID         string `json:"id"`
	Label      string `json:"label,omitempty"`
	TreeHash   string `json:"tree_hash,omitempty"`
	StartedSeq int64  `json:"started_seq"`
	EndedSeq   int64  `json:"ended_seq,omitempty"`
	Open       bool   `json:"open"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Session TraceSession `json:"session"`
	Calls   []TraceCall  `json:"calls"`
	Stats   TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalCalls int            `json:"total_calls"`
	ByOp       map[string]int `json:"by_op"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the journaled engine calls of a session",
		Long: `Show the engine calls journaled for a session, in the order they were
made. Without --session, lists the sessions in the journal.

Examples:
  mapbind trace --db ./journal.db
  mapbind trace --db ./journal.db --session demo
  mapbind trace --db ./journal.db --session demo --op add_layer
  mapbind trace --db ./journal.db --session demo --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to trace (lists sessions when empty)")
	cmd.Flags().StringVar(&opts.Op, "op", "", "filter to one engine operation")

	return cmd
}

// openJournal opens an existing journal; a missing file is a command error
// rather than a fresh empty database.
func openJournal(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "journal not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openJournal(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.Session == "" {
		return listSessions(ctx, st, formatter)
	}

	sess, calls, err := st.ReadSession(ctx, opts.Session)
	if errors.Is(err, store.ErrSessionNotFound) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("session not found: %s", opts.Session), nil)
		return WrapExitError(ExitCommandError, "session not found", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}
	if opts.Op != "" {
		calls, err = st.CallsByOp(ctx, opts.Session, opts.Op)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read calls", err)
		}
	}

	result := buildTraceResult(sess, calls)
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return outputTraceText(formatter, result, calls)
}

func traceSession(s store.Session) TraceSession {
	return TraceSession{
		ID:         s.ID,
		Label:      s.Label,
		TreeHash:   s.TreeHash,
		StartedSeq: s.StartedSeq,
		EndedSeq:   s.EndedSeq,
		Open:       s.Open(),
	}
}

func buildTraceResult(sess store.Session, calls []mapengine.Call) TraceResult {
	result := TraceResult{
		Session: traceSession(sess),
		Calls:   make([]TraceCall, 0, len(calls)),
		Stats:   TraceStats{TotalCalls: len(calls), ByOp: map[string]int{}},
	}
	for _, c := range calls {
		result.Calls = append(result.Calls, TraceCall{Seq: c.Seq, Op: c.Op, Target: c.Target, Args: c.Args})
		result.Stats.ByOp[c.Op]++
	}
	return result
}

func outputTraceText(f *OutputFormatter, result TraceResult, calls []mapengine.Call) error {
	w := f.Writer
	s := result.Session
	state := "ended"
	if s.Open {
		state = "open"
	}
	fmt.Fprintf(w, "Session: %s (%s)\n", s.ID, state)
	if s.Label != "" {
		fmt.Fprintf(w, "Label:   %s\n", s.Label)
	}
	f.VerboseLog("Tree hash: %s", s.TreeHash)
	fmt.Fprintln(w)

	for _, c := range calls {
		line, err := harness.FormatCall(c)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s\n", line)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d call(s)\n", result.Stats.TotalCalls)
	return nil
}

func listSessions(ctx context.Context, st *store.Store, f *OutputFormatter) error {
	sessions, err := st.Sessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	out := make([]TraceSession, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, traceSession(s))
	}
	if f.Format == "json" {
		return f.Success(out)
	}

	if len(out) == 0 {
		fmt.Fprintln(f.Writer, "No sessions found.")
		return nil
	}
	for _, s := range out {
		state := "ended"
		if s.Open {
			state = "open"
		}
		fmt.Fprintf(f.Writer, "%s  %s  %s\n", s.ID, state, s.Label)
	}
	return nil
}
