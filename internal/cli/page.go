package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recline-db/recline/internal/doc"
	"github.com/recline-db/recline/internal/pagination"
	"github.com/recline-db/recline/internal/query"
)

// PageOptions holds flags for the page command.
type PageOptions struct {
	*RootOptions
	ConfigDir string
	Database  string
	Size      int
	SortField string
	SortDesc  bool
	Cursor    string
	Where     string
}

// PageResult is the JSON payload for a page of records.
type PageResult struct {
	Items             []doc.Record `json:"items"`
	NextPageStart     doc.Record   `json:"next_page_start,omitempty"`
	PreviousPageStart doc.Record   `json:"previous_page_start,omitempty"`
}

// NewPageCommand creates the page command.
func NewPageCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PageOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "page <entity>",
		Short: "Fetch one page of records",
		Long: `Fetch one page of records using range-based pagination.

The cursor printed as next_page_start resumes the walk; pass it back
verbatim via --cursor. Filters are equality matches given as a JSON object.

Example:
  recline page users --db ./app.db --config ./entities --size 20 --sort name
  recline page users --db ./app.db --config ./entities --cursor '{"_id":"42","name":"bob"}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPage(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigDir, "config", "", "path to entity config directory (required)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().IntVar(&opts.Size, "size", 25, "page size")
	cmd.Flags().StringVar(&opts.SortField, "sort", "", "sort field (identifier order when empty)")
	cmd.Flags().BoolVar(&opts.SortDesc, "desc", false, "sort descending")
	cmd.Flags().StringVar(&opts.Cursor, "cursor", "", "resume cursor from a previous page (JSON)")
	cmd.Flags().StringVar(&opts.Where, "where", "", "equality filter as a JSON object")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runPage(opts *PageOptions, entityName string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	q := pagination.Query{}
	if opts.SortField != "" {
		q.Sort = []query.Sort{{Field: opts.SortField, Desc: opts.SortDesc}}
	}

	if opts.Where != "" {
		where, err := parseWhere(opts.Where)
		if err != nil {
			_ = formatter.Error(ErrCodeInvalidInput, fmt.Sprintf("invalid --where: %v", err), nil)
			return NewExitError(ExitCommandError, "invalid filter")
		}
		q.Where = where
	}

	var cursor pagination.Cursor
	if opts.Cursor != "" {
		parsed, err := doc.UnmarshalRecord([]byte(opts.Cursor))
		if err != nil {
			_ = formatter.Error(ErrCodeInvalidInput, fmt.Sprintf("invalid --cursor: %v", err), nil)
			return NewExitError(ExitCommandError, "invalid cursor")
		}
		cursor = parsed
	}

	sess, err := openSession(opts.ConfigDir, opts.Database, entityName)
	if err != nil {
		return err
	}
	defer sess.Close()

	page, err := pagination.Paginate(cmd.Context(), sess.model, q, cursor, opts.Size)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "page fetch failed", err)
	}

	formatter.VerboseLog("fetched %d record(s) from %s", len(page.Items), entityName)

	if formatter.Format == "json" {
		return formatter.Summary(PageResult{
			Items:             page.Items,
			NextPageStart:     page.NextPageStart,
			PreviousPageStart: page.PreviousPageStart,
		})
	}

	if err := formatter.Records(page.Items); err != nil {
		return err
	}
	if page.NextPageStart != nil {
		raw, err := json.Marshal(page.NextPageStart)
		if err != nil {
			return err
		}
		fmt.Fprintf(formatter.Writer, "next: %s\n", raw)
	}
	if page.PreviousPageStart != nil {
		raw, err := json.Marshal(page.PreviousPageStart)
		if err != nil {
			return err
		}
		fmt.Fprintf(formatter.Writer, "previous: %s\n", raw)
	}
	return nil
}

// parseWhere turns a JSON object of field/value pairs into a conjunction of
// equality predicates.
func parseWhere(raw string) (query.Predicate, error) {
	filter, err := doc.UnmarshalRecord([]byte(raw))
	if err != nil {
		return nil, err
	}
	predicates := make([]query.Predicate, 0, len(filter))
	for _, field := range filter.SortedKeys() {
		predicates = append(predicates, query.Cmp{Field: field, Op: query.Eq, Value: filter[field]})
	}
	if len(predicates) == 0 {
		return nil, nil
	}
	return query.And{Predicates: predicates}, nil
}
