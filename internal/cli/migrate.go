package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/medisync/medisync/internal/migrate"
	"github.com/medisync/medisync/internal/store"
)

// NewMigrateCommand creates the migrate command: it opens the store and
// applies every unapplied schema migration.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(opts)
			if err != nil {
				return err
			}
			defer log.Sync()

			manager := store.NewManager(cfg.StoreConfig())
			st, err := manager.Open()
			if err != nil {
				return WrapExitError(ExitFailure, "open store", err)
			}
			defer manager.Close()

			applied, err := migrate.NewRunner(st, log).Run(context.Background())
			if err != nil {
				return WrapExitError(ExitFailure, "run migrations", err)
			}

			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(map[string]any{"applied": applied}, func(w io.Writer) {
				if len(applied) == 0 {
					fmt.Fprintln(w, "no pending migrations")
					return
				}
				for _, name := range applied {
					fmt.Fprintf(w, "applied %s\n", name)
				}
			})
		},
	}
}
