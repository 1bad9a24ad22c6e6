package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mapbind/internal/compiler"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Listeners []string
}

// DocumentReport holds the validation outcome of one document.
type DocumentReport struct {
	Path     string                     `json:"path"`
	Name     string                     `json:"name,omitempty"`
	Valid    bool                       `json:"valid"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.OrderWarning    `json:"warnings,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool             `json:"valid"`
	Documents []DocumentReport `json:"documents"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <document|dir>",
		Short: "Validate tree documents without mounting them",
		Long: `Validate CUE or YAML tree documents without mounting them.

Checks the document schema, node placement (scene nodes under a map,
layers under a source), props of every scene node, sibling keys and the
before ordering of layers.

Examples:
  mapbind validate ./scene.cue
  mapbind validate ./documents --listeners clicked,closed
  mapbind validate ./documents --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Listeners, "listeners", nil, "listener names event nodes may reference (unchecked when empty)")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	files, err := FindDocuments(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Found %d document(s) in %s", len(files), path)

	result := ValidationResult{Valid: true, Documents: make([]DocumentReport, 0, len(files))}
	for _, file := range files {
		report := validateDocument(file, opts.Listeners)
		formatter.VerboseLog("Validated %s: %d error(s), %d warning(s)", file, len(report.Errors), len(report.Warnings))
		if !report.Valid {
			result.Valid = false
		}
		result.Documents = append(result.Documents, report)
	}

	if formatter.Format == "json" {
		if !result.Valid {
			first := firstError(result)
			if err := formatter.Failure(first.Code, first.Message, result); err != nil {
				return err
			}
			return NewExitError(ExitFailure, "validation failed")
		}
		return formatter.Success(result)
	}
	return outputValidateText(formatter, result)
}

// validateDocument compiles and validates one document.
func validateDocument(path string, listeners []string) DocumentReport {
	report := DocumentReport{Path: path}

	doc, err := LoadDocument(path)
	if err != nil {
		var loadErr *LoadError
		msg := err.Error()
		if errors.As(err, &loadErr) {
			msg = loadErr.Error()
		}
		report.Errors = []compiler.ValidationError{{Path: "document", Message: msg, Code: ErrCodeLoadFailed}}
		return report
	}
	report.Name = doc.Name

	report.Errors = compiler.Validate(doc.Tree, compiler.Options{Listeners: listeners})
	report.Warnings = compiler.AnalyzeOrder(doc.Tree)

	report.Valid = len(report.Errors) == 0
	for _, w := range report.Warnings {
		if w.Level == "error" {
			report.Valid = false
		}
	}
	return report
}

func firstError(result ValidationResult) compiler.ValidationError {
	for _, d := range result.Documents {
		if len(d.Errors) > 0 {
			return d.Errors[0]
		}
		for _, w := range d.Warnings {
			if w.Level == "error" {
				return compiler.ValidationError{Path: strings.Join(w.Path, " -> "), Message: w.Message, Code: ErrCodeGeneric}
			}
		}
	}
	return compiler.ValidationError{Code: ErrCodeGeneric, Message: "validation failed"}
}

// outputValidateText prints one block per document.
func outputValidateText(f *OutputFormatter, result ValidationResult) error {
	w := f.Writer
	failed := 0
	for _, d := range result.Documents {
		fmt.Fprintf(w, "%s %s\n", f.Mark(d.Valid), d.Path)
		for _, e := range d.Errors {
			fmt.Fprintf(w, "  %s %s: %s\n", e.Code, e.Path, e.Message)
		}
		for _, warn := range d.Warnings {
			fmt.Fprintf(w, "  %s: %s\n", warn.Level, warn.Message)
		}
		if !d.Valid {
			failed++
		}
	}

	if failed > 0 {
		fmt.Fprintf(w, "\n%s Validation failed for %d document(s)\n", f.Mark(false), failed)
		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed for %d document(s)", failed))
	}
	fmt.Fprintf(w, "\n%s All documents valid\n", f.Mark(true))
	return nil
}

// outputLoadError reports a command-level load failure (exit code 2).
func outputLoadError(f *OutputFormatter, err error) error {
	code, msg := ErrCodeGeneric, err.Error()
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		code, msg = loadErr.Code, loadErr.Message
	}
	_ = f.Error(code, msg, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, msg))
}
