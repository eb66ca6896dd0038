package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/elementx/internal/cli"
	"github.com/aretw0/elementx/pkg/domain"
	"github.com/aretw0/elementx/pkg/export"
	"github.com/spf13/cobra"
)

// withUser opens the app and resolves the logged-in account.
func withUser(cmd *cobra.Command, fn func(app *cli.App, user *domain.User) error) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	user, err := app.CurrentUser(cmd.Context())
	if err != nil {
		return err
	}
	return fn(app, user)
}

func newSamplesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "samples",
		Short: "Manage your saved calculations",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved samples, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd, func(app *cli.App, user *domain.User) error {
				samples, err := app.Lab.ListSamples(cmd.Context(), user.ID)
				if err != nil {
					return err
				}
				if len(samples) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No saved samples.")
					return nil
				}
				var b strings.Builder
				b.WriteString("| ID | Name | Formula | Target | Total (g) | Saved |\n|---|---|---|---|---:|---|\n")
				for _, s := range samples {
					fmt.Fprintf(&b, "| %s | %s | %s | %s g %s | %.6f | %s |\n",
						s.ID, s.DisplayName(), s.Result.Formula,
						strconv.FormatFloat(s.Result.TargetMass, 'f', -1, 64),
						s.Result.Target, s.Result.Total, s.CreatedAt.Local().Format("2006-01-02 15:04"))
				}
				return printMarkdown(cmd, b.String())
			})
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one saved sample",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			return withUser(cmd, func(app *cli.App, user *domain.User) error {
				sample, err := app.Lab.GetSample(cmd.Context(), user.ID, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(sample)
				}
				return printMarkdown(cmd, export.Markdown(sample.DisplayName(), sample.Result))
			})
		},
	}
	show.Flags().Bool("json", false, "Print as JSON")

	del := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete one or more saved samples",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd, func(app *cli.App, user *domain.User) error {
				var failed int
				for _, id := range args {
					if err := app.Lab.DeleteSample(cmd.Context(), user.ID, id); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", id, err)
						failed++
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed sample '%s'\n", id)
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d samples could not be removed", failed, len(args))
				}
				return nil
			})
		},
	}

	exp := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a saved sample as CSV",
		Long:  "Writes <name>_calculation.csv in the current directory, or the path given with --output (- for stdout).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			return withUser(cmd, func(app *cli.App, user *domain.User) error {
				sample, err := app.Lab.GetSample(cmd.Context(), user.ID, args[0])
				if err != nil {
					return err
				}
				if output == "-" {
					return export.WriteCSV(cmd.OutOrStdout(), sample.Result)
				}
				if output == "" {
					output = export.Filename(sample.DisplayName())
				}
				if err := writeCSVFile(output, sample.Result); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
				return nil
			})
		},
	}
	exp.Flags().StringP("output", "o", "", "Output path")

	cmd.AddCommand(list, show, del, exp)
	return cmd
}
