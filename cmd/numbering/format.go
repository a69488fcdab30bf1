package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"belgeno/internal/app"
)

var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Read and store company number formats",
}

var formatGetCmd = &cobra.Command{
	Use:   "get <kind>",
	Short: "Print the effective format of a kind",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		return withCompany(cmd, func(ctx context.Context, a *app.App, companyID string) error {
			fmt.Fprintln(cmd.OutOrStdout(), a.Numbering.GetNumberFormat(ctx, kind, companyID))
			return nil
		})
	},
}

var formatSetCmd = &cobra.Command{
	Use:   "set <kind> <format>",
	Short: "Validate and store a format",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		return withCompany(cmd, func(ctx context.Context, a *app.App, companyID string) error {
			stored, err := a.Numbering.SaveFormat(ctx, kind, companyID, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", kind.FormatKey(), stored)
			return nil
		})
	},
}

func init() {
	formatCmd.AddCommand(formatGetCmd, formatSetCmd)
	rootCmd.AddCommand(formatCmd)
}
