package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"belgeno/internal/app"
	"belgeno/internal/core/numerator"
)

var (
	generateDate   string
	generateRemote bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <kind>",
	Short: "Produce the next unused document number",
	Long: `generate produces the next number for a document kind without saving a
document. The number is not reserved: a document must be stored with it
before another caller can see it as used.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		date, err := parseDate(generateDate)
		if err != nil {
			return err
		}

		return withCompany(cmd, func(ctx context.Context, a *app.App, companyID string) error {
			number, err := a.Numbering.GetNextNumber(ctx, kind, companyID, &numerator.Options{
				Date:        date,
				CheckRemote: generateRemote,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), number)
			return nil
		})
	},
}

func init() {
	generateCmd.Flags().StringVarP(&generateDate, "date", "d", "", "Document date (YYYY-MM-DD), default today")
	generateCmd.Flags().BoolVar(&generateRemote, "remote", false, "Reconcile with the e-invoice vendor first")

	rootCmd.AddCommand(generateCmd)
}
