package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/medisync/medisync/internal/app"
	"github.com/medisync/medisync/internal/gateway"
)

// NewQueryCommand creates the query command: it runs one read-only SQL
// statement through the gateway and prints the rows.
func NewQueryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a read-only SQL query against the store",
		Long:  "Runs one SELECT statement through the query gateway. Any other statement kind is rejected before reaching the store.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")

			return withApp(opts, func(ctx context.Context, a *app.App) error {
				out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

				res, err := a.Gateway.ExecuteReadOnly(ctx, text)
				if err != nil {
					// The formatter is the single reporting channel; the
					// returned ExitError carries only the exit status.
					if ferr := out.Failure(err); ferr != nil {
						return WrapExitError(ExitFailure, "render query error", ferr)
					}
					return &ExitError{Code: ExitFailure, Message: "query rejected"}
				}

				return out.Success(res, func(w io.Writer) {
					printResult(w, res)
				})
			})
		},
	}
}

// printResult renders a query result as aligned text.
func printResult(w io.Writer, res gateway.Result) {
	fmt.Fprintln(w, strings.Join(res.Columns, "\t"))
	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "NULL"
				continue
			}
			cells[i] = fmt.Sprintf("%v", v)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	fmt.Fprintf(w, "%d row(s) in %.3f ms\n", res.RowCount, res.ExecutionTimeMs)
}
