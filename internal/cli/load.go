package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/recline-db/recline/internal/doc"
	"github.com/recline-db/recline/internal/lifecycle"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	ConfigDir string
	Database  string
}

// LoadSummary is the JSON payload reporting a bulk load.
type LoadSummary struct {
	Created  int      `json:"created"`
	Rejected int      `json:"rejected"`
	IDs      []string `json:"ids,omitempty"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <entity> <file.yaml>",
		Short: "Create records from a YAML file",
		Long: `Create records from a YAML file through the full lifecycle: hooks run,
validators run, and timestamps are stamped exactly as for any other create.

The file holds a YAML list of documents:

  - name: alice
    email: alice@example.com
  - name: bob
    email: bob@example.com

Records rejected by validation are reported and skipped; the rest are
created. A rejected record does not abort the load.

Example:
  recline load users ./seed/users.yaml --db ./app.db --config ./entities`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigDir, "config", "", "path to entity config directory (required)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runLoad(opts *LoadOptions, entityName, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("cannot read %s: %v", path, err), nil)
		return NewExitError(ExitCommandError, "cannot read input file")
	}

	var decoded []map[string]any
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		_ = formatter.Error(ErrCodeInvalidInput, fmt.Sprintf("invalid YAML in %s: %v", path, err), nil)
		return NewExitError(ExitCommandError, "invalid input file")
	}

	records := make([]doc.Record, 0, len(decoded))
	for i, m := range decoded {
		record, err := doc.RecordFromGo(m)
		if err != nil {
			_ = formatter.Error(ErrCodeInvalidInput, fmt.Sprintf("document %d: %v", i, err), nil)
			return NewExitError(ExitCommandError, "invalid input file")
		}
		records = append(records, record)
	}

	sess, err := openSession(opts.ConfigDir, opts.Database, entityName)
	if err != nil {
		return err
	}
	defer sess.Close()

	summary := LoadSummary{}
	for i, record := range records {
		created, err := lifecycle.Create(cmd.Context(), sess.model, record)
		var validationErr *lifecycle.ValidationError
		if errors.As(err, &validationErr) {
			summary.Rejected++
			_ = formatter.Error(ErrCodeWriteRejected, fmt.Sprintf("document %d rejected: %v", i, validationErr), validationErr.Errors)
			continue
		}
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("document %d failed", i), err)
		}
		summary.Created++
		if idValue, present := doc.RecordID(created); present {
			if s, ok := idValue.(doc.String); ok {
				summary.IDs = append(summary.IDs, string(s))
			}
		}
	}

	if formatter.Format == "json" {
		if err := formatter.Summary(summary); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "created %d record(s), rejected %d\n", summary.Created, summary.Rejected)
	}

	if summary.Rejected > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d document(s) rejected", summary.Rejected))
	}
	return nil
}
