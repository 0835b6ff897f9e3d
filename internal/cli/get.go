package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recline-db/recline/internal/doc"
	"github.com/recline-db/recline/internal/lifecycle"
	"github.com/recline-db/recline/internal/store"
)

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	ConfigDir string
	Database  string
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <entity> <id>",
		Short: "Fetch one record by identifier",
		Long: `Fetch one record from an entity's collection by its identifier.

Example:
  recline get users 42 --db ./app.db --config ./entities`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigDir, "config", "", "path to entity config directory (required)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runGet(opts *GetOptions, entityName, id string, cmd *cobra.Command) error {
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

	record, err := lifecycle.FindByID(cmd.Context(), sess.model, id)
	if errors.Is(err, store.ErrNotFound) {
		_ = formatter.Error(ErrCodeRecordNotFound, fmt.Sprintf("no %s record with id %q", entityName, id), nil)
		return NewExitError(ExitFailure, "record not found")
	}
	if errors.Is(err, doc.ErrInvalidID) {
		_ = formatter.Error(ErrCodeInvalidInput, err.Error(), nil)
		return NewExitError(ExitCommandError, "invalid identifier")
	}
	if err != nil {
		return WrapExitError(ExitFailure, "fetch failed", err)
	}

	return formatter.Record(record)
}
