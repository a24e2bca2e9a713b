package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/medisync/medisync/internal/app"
)

// NewSchemaCommand creates the schema command: it prints the store's
// domain tables and columns.
func NewSchemaCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Show the store's tables and columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app.App) error {
				tables, err := a.Gateway.SchemaInfo(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "introspect schema", err)
				}

				out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
				return out.Success(tables, func(w io.Writer) {
					for _, table := range tables {
						fmt.Fprintf(w, "%s\n", table.TableName)
						for _, col := range table.Columns {
							flags := ""
							if col.IsPrimaryKey {
								flags += " PRIMARY KEY"
							}
							if col.NotNull {
								flags += " NOT NULL"
							}
							fmt.Fprintf(w, "  %s %s%s\n", col.Name, col.Type, flags)
						}
					}
				})
			})
		},
	}
}
