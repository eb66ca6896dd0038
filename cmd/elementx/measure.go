package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/elementx"
	"github.com/aretw0/elementx/internal/cli"
	"github.com/aretw0/elementx/pkg/domain"
	"github.com/aretw0/elementx/pkg/export"
	"github.com/spf13/cobra"
)

func runImport(cmd *cobra.Command, path string, kind domain.MeasurementKind) error {
	sampleID, _ := cmd.Flags().GetString("sample")
	notes, _ := cmd.Flags().GetString("notes")
	asJSON, _ := cmd.Flags().GetBool("json")
	sweep := ""
	if kind == domain.KindMagnetic {
		sweep, _ = cmd.Flags().GetString("type")
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return withUser(cmd, func(app *cli.App, user *domain.User) error {
		up := elementx.Upload{
			UserID:          user.ID,
			SampleID:        sampleID,
			Filename:        filepath.Base(path),
			Notes:           notes,
			MeasurementType: sweep,
			Data:            f,
		}
		var m *domain.Measurement
		var err error
		if kind == domain.KindXRD {
			m, err = app.Lab.ImportXRD(cmd.Context(), up)
		} else {
			m, err = app.Lab.ImportMagnetic(cmd.Context(), up)
		}
		if err != nil {
			return err
		}
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(m)
		}
		return printMarkdown(cmd, export.MeasurementMarkdown(*m))
	})
}

func addImportFlags(cmd *cobra.Command) {
	cmd.Flags().String("sample", "", "ID of the saved sample this file belongs to")
	cmd.Flags().String("notes", "", "Free-text notes")
	cmd.Flags().Bool("json", false, "Print the stored measurement as JSON")
}

func newXRDCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xrd <file>",
		Short: "Import a 2θ/intensity scan and list its peaks",
		Long: `Reads a two-column text export (whitespace, comma or semicolon separated),
skipping comment and header lines, finds the diffraction peaks and stores the scan.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], domain.KindXRD)
		},
	}
	addImportFlags(cmd)
	return cmd
}

func newMagneticCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "magnetic <file>",
		Short: "Import a magnetometry curve and derive Ms, Mr and Hc",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], domain.KindMagnetic)
		},
	}
	addImportFlags(cmd)
	cmd.Flags().String("type", domain.SweepFieldM, "Sweep type: M-H or M-T")
	return cmd
}

func newMeasurementsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "measurements [id]",
		Short: "List imported files, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd, func(app *cli.App, user *domain.User) error {
				if len(args) == 1 {
					m, err := app.Lab.GetMeasurement(cmd.Context(), user.ID, args[0])
					if err != nil {
						return err
					}
					return printMarkdown(cmd, export.MeasurementMarkdown(*m))
				}

				list, err := app.Lab.ListMeasurements(cmd.Context(), user.ID)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No imported measurements.")
					return nil
				}
				var b strings.Builder
				b.WriteString("| ID | Kind | File | Points | Imported |\n|---|---|---|---:|---|\n")
				for _, m := range list {
					kind := string(m.Kind)
					if m.MeasurementType != "" {
						kind += " " + m.MeasurementType
					}
					fmt.Fprintf(&b, "| %s | %s | %s | %d | %s |\n",
						m.ID, kind, m.Filename, len(m.Points), m.CreatedAt.Local().Format("2006-01-02 15:04"))
				}
				return printMarkdown(cmd, b.String())
			})
		},
	}
	return cmd
}
