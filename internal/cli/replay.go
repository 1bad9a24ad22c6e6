package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/dom"
	"github.com/roach88/mapbind/internal/mapengine/memmap"
	"github.com/roach88/mapbind/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string
}

// StyleState is the engine style state a replay ends in.
type StyleState struct {
	Sources map[string]desc.Object `json:"sources"`
	Layers  []ReplayLayer          `json:"layers"`
	Images  []string               `json:"images"`
}

// ReplayLayer is one layer in stack order.
type ReplayLayer struct {
	ID   string      `json:"id"`
	Spec desc.Object `json:"spec"`
}

// ReplayResult holds the outcome of a replay.
type ReplayResult struct {
	Session       string     `json:"session"`
	Applied       int        `json:"applied"`
	Skipped       int        `json:"skipped"`
	Deterministic bool       `json:"deterministic"`
	Diff          string     `json:"diff,omitempty"`
	State         StyleState `json:"state"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a journaled session against a fresh engine",
		Long: `Replay the style calls of a journaled session against a fresh in-memory
engine, twice, and check both runs end in the same style state.

Overlay, listener and engine lifecycle calls are skipped.

Exit codes:
  0 - Replay succeeded and both runs agree
  1 - The engine rejected a call or the runs disagree
  2 - Command error (journal or session not found, etc.)

Examples:
  mapbind replay --db ./journal.db --session demo
  mapbind replay --db ./journal.db --session demo --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to replay (required)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(opts.RootOptions, formatter.GetErrWriter())

	st, err := openJournal(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	first, stats, err := replayOnce(ctx, st, opts.Session, logger)
	if errors.Is(err, store.ErrSessionNotFound) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("session not found: %s", opts.Session), nil)
		return WrapExitError(ExitCommandError, "session not found", err)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "replay failed", err)
	}
	second, _, err := replayOnce(ctx, st, opts.Session, logger)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "replay failed", err)
	}

	result := ReplayResult{
		Session: opts.Session,
		Applied: stats.Applied,
		Skipped: stats.Skipped,
		State:   first,
	}
	result.Diff = cmp.Diff(first, second)
	result.Deterministic = result.Diff == ""

	if formatter.Format == "json" {
		if !result.Deterministic {
			if err := formatter.Failure(ErrCodeGeneric, "replays disagree", result); err != nil {
				return err
			}
			return NewExitError(ExitFailure, "replay not deterministic")
		}
		return formatter.Success(result)
	}

	outputReplayText(formatter, result)
	if !result.Deterministic {
		return NewExitError(ExitFailure, "replay not deterministic")
	}
	return nil
}

// replayOnce replays the session into a fresh engine and captures its
// style state.
func replayOnce(ctx context.Context, st *store.Store, session string, logger *slog.Logger) (StyleState, store.ReplayStats, error) {
	m := memmap.New(dom.NewElement("div"), nil,
		memmap.WithStyleLoaded(),
		memmap.WithLogger(logger),
	)
	defer m.Remove()

	stats, err := st.Replay(ctx, session, m)
	if err != nil {
		return StyleState{}, stats, err
	}
	return captureStyle(m), stats, nil
}

func captureStyle(m *memmap.Map) StyleState {
	state := StyleState{
		Sources: map[string]desc.Object{},
		Layers:  []ReplayLayer{},
		Images:  nonNil(m.Images()),
	}
	for _, id := range m.SourceIDs() {
		spec, _ := m.SourceSpec(id)
		state.Sources[id] = spec
	}
	for _, id := range m.LayerIDs() {
		spec, _ := m.LayerSpec(id)
		state.Layers = append(state.Layers, ReplayLayer{ID: id, Spec: spec})
	}
	return state
}

func outputReplayText(f *OutputFormatter, r ReplayResult) {
	w := f.Writer
	fmt.Fprintf(w, "%s Replayed session %s\n", f.Mark(r.Deterministic), r.Session)
	fmt.Fprintf(w, "  applied: %d\n", r.Applied)
	fmt.Fprintf(w, "  skipped: %d\n", r.Skipped)
	fmt.Fprintf(w, "  sources: %s\n", listOrDash(sortedSourceIDs(r.State)))
	ids := make([]string, 0, len(r.State.Layers))
	for _, l := range r.State.Layers {
		ids = append(ids, l.ID)
	}
	fmt.Fprintf(w, "  layers:  %s\n", listOrDash(ids))
	fmt.Fprintf(w, "  images:  %s\n", listOrDash(r.State.Images))

	if !r.Deterministic {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Replays disagree (-first +second):")
		fmt.Fprintln(w, r.Diff)
	}
}

func sortedSourceIDs(s StyleState) []string {
	ids := make([]string, 0, len(s.Sources))
	for id := range s.Sources {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
