package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/recline-db/recline/internal/doc"
	"github.com/recline-db/recline/internal/history"
	"github.com/recline-db/recline/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	ConfigDir string
	Database  string
	At        string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <entity> <id>",
		Short: "Inspect a record's history",
		Long: `List every history snapshot of a record, most recent first, or
reconstruct the record's state at a point in time with --at.

Example:
  recline history users 42 --db ./app.db --config ./entities
  recline history users 42 --db ./app.db --config ./entities --at 2026-08-01T00:00:00Z`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigDir, "config", "", "path to entity config directory (required)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.At, "at", "", "reconstruct the record as of this RFC 3339 time")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, entityName, id string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	sess, err := openSession(opts.ConfigDir, opts.Database, entityName)
	if err != nil {
		return err
	}
	defer sess.Close()

	if sess.model.Entity.HistoryCollection() == "" {
		_ = formatter.Error(ErrCodeUnknownEntity, fmt.Sprintf("entity %q declares no history collection", entityName), nil)
		return NewExitError(ExitCommandError, "no history collection")
	}

	if opts.At != "" {
		at, err := time.Parse(time.RFC3339, opts.At)
		if err != nil {
			_ = formatter.Error(ErrCodeInvalidInput, fmt.Sprintf("invalid --at: %v", err), nil)
			return NewExitError(ExitCommandError, "invalid timestamp")
		}

		record, err := history.FindRecordAt(cmd.Context(), sess.model, id, at)
		if errors.Is(err, store.ErrNotFound) {
			_ = formatter.Error(ErrCodeRecordNotFound, fmt.Sprintf("no state of %s %q at %s", entityName, id, opts.At), nil)
			return NewExitError(ExitFailure, "record not found")
		}
		if errors.Is(err, doc.ErrInvalidID) {
			_ = formatter.Error(ErrCodeInvalidInput, err.Error(), nil)
			return NewExitError(ExitCommandError, "invalid identifier")
		}
		if err != nil {
			return WrapExitError(ExitFailure, "history lookup failed", err)
		}
		return formatter.Record(record)
	}

	records, err := history.FindAllByRecordID(cmd.Context(), sess.model, id)
	if errors.Is(err, doc.ErrInvalidID) {
		_ = formatter.Error(ErrCodeInvalidInput, err.Error(), nil)
		return NewExitError(ExitCommandError, "invalid identifier")
	}
	if err != nil {
		return WrapExitError(ExitFailure, "history lookup failed", err)
	}

	formatter.VerboseLog("found %d history record(s) for %s %q", len(records), entityName, id)
	return formatter.Records(records)
}
