package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/medisync/medisync/internal/app"
	"github.com/medisync/medisync/internal/patient"
)

// NewListCommand creates the list command: all patients, ordered by name.
func NewListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all patients in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app.App) error {
				records, err := a.Patients.List(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "list patients", err)
				}

				out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
				return out.Success(records, func(w io.Writer) {
					printPatients(w, records)
				})
			})
		},
	}
}

// NewShowCommand creates the show command: one patient with its medical
// history and allergies.
func NewShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one patient record in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app.App) error {
				rec, found, err := a.Patients.GetByID(ctx, args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "load patient", err)
				}
				if !found {
					return WrapExitError(ExitFailure,
						fmt.Sprintf("patient %s not found", args[0]), nil)
				}

				out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
				return out.Success(rec, func(w io.Writer) {
					printPatient(w, rec)
				})
			})
		},
	}
}

// NewSearchCommand creates the search command: patients matching a term
// across name, email, phone, and address.
func NewSearchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Search patients by name, email, phone, or address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app.App) error {
				records, err := a.Patients.Search(ctx, args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "search patients", err)
				}

				out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
				return out.Success(records, func(w io.Writer) {
					printPatients(w, records)
				})
			})
		},
	}
}

// NewDeleteCommand creates the delete command: it removes a patient through
// the regular mutation path (cache, sync, notify), so the store converges
// on the next pass.
func NewDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a patient record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app.App) error {
				if err := a.DeletePatient(ctx, args[0]); err != nil {
					return WrapExitError(ExitFailure, "delete patient", err)
				}

				out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
				return out.Success(map[string]any{"deleted": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "deleted %s\n", args[0])
				})
			})
		},
	}
}

// printPatients renders one line per patient plus a count footer.
func printPatients(w io.Writer, records []patient.Record) {
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s, %s\t%s\n", rec.ID, rec.LastName, rec.FirstName, rec.DateOfBirth)
	}
	fmt.Fprintf(w, "%d patient(s)\n", len(records))
}

// printPatient renders a full record with child entries.
func printPatient(w io.Writer, rec patient.Record) {
	fmt.Fprintf(w, "%s, %s (%s)\n", rec.LastName, rec.FirstName, rec.ID)
	fmt.Fprintf(w, "  born:    %s\n", rec.DateOfBirth)
	if rec.Gender != "" {
		fmt.Fprintf(w, "  gender:  %s\n", rec.Gender)
	}
	if rec.Email != "" {
		fmt.Fprintf(w, "  email:   %s\n", rec.Email)
	}
	if rec.PhoneNumber != "" {
		fmt.Fprintf(w, "  phone:   %s\n", rec.PhoneNumber)
	}
	if rec.Address != "" {
		fmt.Fprintf(w, "  address: %s\n", rec.Address)
	}
	for _, h := range rec.MedicalHistory {
		fmt.Fprintf(w, "  history: %s", h.Condition)
		if h.DiagnosisDate != "" {
			fmt.Fprintf(w, " (%s)", h.DiagnosisDate)
		}
		fmt.Fprintln(w)
	}
	for _, a := range rec.Allergies {
		fmt.Fprintf(w, "  allergy: %s", a.Allergen)
		if a.Severity != "" {
			fmt.Fprintf(w, " (%s)", a.Severity)
		}
		fmt.Fprintln(w)
	}
}
