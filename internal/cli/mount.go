package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mapbind/internal/fault"
	"github.com/roach88/mapbind/internal/harness"
	"github.com/roach88/mapbind/internal/ident"
	"github.com/roach88/mapbind/internal/store"
)

// MountOptions holds flags for the mount command.
type MountOptions struct {
	*RootOptions
	Database      string
	Session       string
	DeferStyle    bool
	Rerender      int
	Unmount       bool
	FailingImages []string
	Listeners     []string

	// Sessions generates the session id when Session is empty.
	Sessions ident.SessionGenerator
}

// MountResult holds the outcome of one mount.
type MountResult struct {
	Session   string   `json:"session"`
	Document  string   `json:"document"`
	Calls     int      `json:"calls"`
	Lifecycle []string `json:"lifecycle"`
	Sources   []string `json:"sources"`
	Layers    []string `json:"layers"`
	Images    []string `json:"images"`
	Overlays  int      `json:"overlays"`
	DOM       string   `json:"dom"`
	Failures  []string `json:"failures,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// NewMountCommand creates the mount command.
func NewMountCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MountOptions{RootOptions: rootOpts, Sessions: ident.UUIDv7Generator{}}

	cmd := &cobra.Command{
		Use:   "mount <document>",
		Short: "Mount a tree document on the in-memory engine",
		Long: `Mount a tree document on the in-memory map engine and journal every
engine call it makes.

The tree is mounted, given time for asset batches to settle, re-rendered
--rerender times and, with --unmount, torn down again. The engine state
after the last step is reported.

Exit codes:
  0 - Mounted without binding failures
  1 - A binding failure reached the error boundary
  2 - Command error (document not found, database error, etc.)

Examples:
  mapbind mount ./scene.cue
  mapbind mount ./scene.cue --db ./journal.db --session demo --rerender 3
  mapbind mount ./scene.yaml --defer-style --unmount --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMount(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal database path (in-memory when empty)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "journal session id (generated when empty)")
	cmd.Flags().BoolVar(&opts.DeferStyle, "defer-style", false, "create the engine with its style unloaded and load it after mounting")
	cmd.Flags().IntVar(&opts.Rerender, "rerender", 0, "number of re-render passes after mounting")
	cmd.Flags().BoolVar(&opts.Unmount, "unmount", false, "unmount the tree and journal the teardown")
	cmd.Flags().StringSliceVar(&opts.FailingImages, "failing-image", nil, "image urls whose load fails")
	cmd.Flags().StringSliceVar(&opts.Listeners, "listeners", nil, "listener names event nodes may reference")

	return cmd
}

func runMount(opts *MountOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if _, err := FindDocuments(path); err != nil {
		return outputLoadError(formatter, err)
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = store.MemoryPath
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	session := opts.Session
	if session == "" {
		session = opts.Sessions.Generate()
	}

	scenario := mountScenario(opts, path, session)
	formatter.VerboseLog("Mounting %s as session %s (%d step(s))", path, session, len(scenario.Steps))

	result, err := harness.Run(scenario,
		harness.WithStore(st),
		harness.WithLogger(newLogger(opts.RootOptions, formatter.GetErrWriter())),
	)
	if err != nil {
		return outputLoadError(formatter, convertCompileError(err, path))
	}

	out := MountResult{
		Session:   session,
		Document:  path,
		Calls:     len(result.Calls),
		Lifecycle: result.Lifecycle,
		Sources:   nonNil(result.State.Sources),
		Layers:    nonNil(result.State.Layers),
		Images:    nonNil(result.State.Images),
		Overlays:  result.State.Overlays,
		Errors:    result.Errors,
	}
	if n := len(result.Snapshots); n > 0 {
		out.DOM = result.Snapshots[n-1]
	}
	for _, f := range result.Failures {
		out.Failures = append(out.Failures, f.Error())
	}

	if formatter.Format == "json" {
		if !result.Pass {
			if err := formatter.Failure(ErrCodeMountFailed, mountFailureMessage(result), out); err != nil {
				return err
			}
			return NewExitError(ExitFailure, "mount failed")
		}
		return formatter.Success(out)
	}
	return outputMountText(formatter, out, result.Pass, opts.Database == "")
}

// mountScenario builds the scenario the mount command runs.
func mountScenario(opts *MountOptions, path, session string) *harness.Scenario {
	steps := []harness.Step{{Action: harness.StepMount}}
	if opts.DeferStyle {
		steps = append(steps, harness.Step{Action: harness.StepStyleLoaded})
	}
	steps = append(steps, harness.Step{Action: harness.StepSettle})
	if opts.Rerender > 0 {
		steps = append(steps, harness.Step{Action: harness.StepRerender, Times: opts.Rerender})
	}
	steps = append(steps, harness.Step{Action: harness.StepSnapshot})
	if opts.Unmount {
		steps = append(steps, harness.Step{Action: harness.StepUnmount})
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &harness.Scenario{
		Name:          name,
		Description:   "mount " + path,
		Session:       session,
		Document:      path,
		StyleLoaded:   !opts.DeferStyle,
		FailingImages: opts.FailingImages,
		Listeners:     opts.Listeners,
		Steps:         steps,
	}
}

func mountFailureMessage(r *harness.Result) string {
	if len(r.Failures) > 0 {
		if code := fault.CodeOf(r.Failures[0]); code != "" {
			return fmt.Sprintf("%s: %v", code, r.Failures[0])
		}
		return r.Failures[0].Error()
	}
	if len(r.Errors) > 0 {
		return r.Errors[0]
	}
	return "mount failed"
}

func outputMountText(f *OutputFormatter, out MountResult, pass, ephemeral bool) error {
	w := f.Writer
	fmt.Fprintf(w, "%s %s\n", f.Mark(pass), out.Document)
	fmt.Fprintf(w, "  session:  %s\n", out.Session)
	fmt.Fprintf(w, "  calls:    %d\n", out.Calls)
	fmt.Fprintf(w, "  sources:  %s\n", listOrDash(out.Sources))
	fmt.Fprintf(w, "  layers:   %s\n", listOrDash(out.Layers))
	fmt.Fprintf(w, "  images:   %s\n", listOrDash(out.Images))
	fmt.Fprintf(w, "  overlays: %d\n", out.Overlays)
	if f.Verbose {
		for _, e := range out.Lifecycle {
			fmt.Fprintf(w, "  %s\n", e)
		}
		fmt.Fprintf(w, "  dom: %s\n", out.DOM)
	}
	for _, e := range out.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
	if ephemeral {
		f.VerboseLog("Journal was in-memory; pass --db to keep it")
	}
	if !pass {
		return NewExitError(ExitFailure, "mount failed")
	}
	return nil
}

func listOrDash(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ", ")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
