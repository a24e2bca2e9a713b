package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/medisync/medisync/internal/app"
	"github.com/medisync/medisync/internal/patient"
)

// NewSeedCommand creates the seed command: it loads patient fixtures from a
// YAML file through the regular mutation path (cache, sync, notify).
func NewSeedCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load patient records from a YAML fixture file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readFixtures(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "read fixtures", err)
			}

			return withApp(opts, func(ctx context.Context, a *app.App) error {
				saved := 0
				for _, rec := range records {
					if _, err := a.SavePatient(ctx, rec); err != nil {
						return WrapExitError(ExitFailure,
							fmt.Sprintf("save fixture record %q", rec.ID), err)
					}
					saved++
				}

				out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
				return out.Success(map[string]any{"saved": saved}, func(w io.Writer) {
					fmt.Fprintf(w, "saved %d patient(s)\n", saved)
				})
			})
		},
	}
}

// readFixtures decodes a YAML list of patient records.
func readFixtures(path string) ([]patient.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var records []patient.Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}
