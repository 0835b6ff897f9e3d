package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationResult holds config validation results.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Entities []string `json:"entities,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config-dir>",
		Short: "Validate entity configs",
		Long: `Validate CUE entity declarations without touching a database.

Checks that every declared entity has a non-empty collection name and
well-formed unique field sets. Reports every problem found, not just the
first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, configDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	result, loadErrors := LoadEntities(configDir, LoadModeCollectAll)

	// Handle load errors (directory not found, no files, etc.)
	if result == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", loadErr.Code, loadErr.Message))
		}
		_ = formatter.Error(ErrCodeGeneric, loadErrors[0].Error(), nil)
		return NewExitError(ExitCommandError, loadErrors[0].Error())
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", result.FileCount, configDir)

	names := make([]string, 0, len(result.Entities))
	for _, cfg := range result.Entities {
		formatter.VerboseLog("Validated entity: %s (collection %s)", cfg.Name, cfg.Collection)
		names = append(names, cfg.Name)
	}

	if len(loadErrors) > 0 {
		messages := make([]string, 0, len(loadErrors))
		for _, err := range loadErrors {
			messages = append(messages, err.Error())
		}

		if formatter.Format == "json" {
			if err := formatter.Summary(ValidationResult{Valid: false, Entities: names, Errors: messages}); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(formatter.Writer, "✗ Validation failed")
			fmt.Fprintln(formatter.Writer)
			for _, msg := range messages {
				fmt.Fprintf(formatter.Writer, "  %s\n", msg)
			}
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(loadErrors)))
	}

	if formatter.Format == "json" {
		return formatter.Summary(ValidationResult{Valid: true, Entities: names})
	}

	fmt.Fprintf(formatter.Writer, "✓ %d entity config(s) valid\n", len(names))
	return nil
}
