package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/medisync/medisync/internal/app"
)

// NewSyncCommand creates the sync command: it runs one cache-to-store
// synchronization pass and reports the outcome.
func NewSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push the local cache into the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app.App) error {
				res := a.Syncer.Sync(ctx)
				a.Notifier.NotifyDataChanged("patients")

				out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
				return out.Success(res, func(w io.Writer) {
					fmt.Fprintf(w, "synced %d, failed %d, removed %d\n",
						res.Synced, res.Failed, res.Removed)
				})
			})
		},
	}
}
