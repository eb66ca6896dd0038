package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/elementx"
	"github.com/aretw0/elementx/pkg/chem"
	"github.com/aretw0/elementx/pkg/export"
	"github.com/spf13/cobra"
)

func newCalcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc <formula> <target-element> <mass-g>",
		Short: "Compute the mass of each element to weigh out",
		Long: `Scales a formula so that the target element weighs mass-g grams and prints
the required mass of every element.

The target may be a symbol in any case or an element name:
  elementx calc Fe2MoGe Ge 1
  elementx calc "Bi2 Te3" tellurium 2.5 --save "BT-07"`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			saveAs, _ := cmd.Flags().GetString("save")
			csvPath, _ := cmd.Flags().GetString("csv")
			asJSON, _ := cmd.Flags().GetBool("json")

			mass, err := chem.ParseMass(args[2])
			if err != nil {
				return err
			}

			var res chem.Result
			if cmd.Flags().Changed("save") {
				app, err := openApp(cmd)
				if err != nil {
					return err
				}
				defer app.Close()

				user, err := app.CurrentUser(cmd.Context())
				if err != nil {
					return err
				}
				if res, err = app.Lab.Calculate(args[0], args[1], mass); err != nil {
					return err
				}
				sample, err := app.Lab.SaveSample(cmd.Context(), user.ID, saveAs, res)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Saved as %s (%s)\n", sample.DisplayName(), sample.ID)
			} else if res, err = elementx.New().Calculate(args[0], args[1], mass); err != nil {
				return err
			}

			if csvPath != "" {
				if err := writeCSVFile(csvPath, res); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", csvPath)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			return printMarkdown(cmd, export.Markdown(res.Formula, res))
		},
	}
	cmd.Flags().String("save", "", "Save the result to your sample history under this name (empty uses the formula)")
	cmd.Flags().String("csv", "", "Also write the result as CSV to this path")
	cmd.Flags().Bool("json", false, "Print the result as JSON")
	return cmd
}

func writeCSVFile(path string, res chem.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.WriteCSV(f, res); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
