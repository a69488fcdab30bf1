package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"belgeno/internal/app"
)

var sequenceCmd = &cobra.Command{
	Use:   "sequence",
	Short: "Inspect and manage per-kind counters",
}

var sequenceShowCmd = &cobra.Command{
	Use:   "show <kind>",
	Short: "Print the current counter value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		return withCompany(cmd, func(ctx context.Context, a *app.App, companyID string) error {
			value, err := a.Numbering.CurrentSequence(ctx, kind, companyID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", kind.SequenceKey(), value)
			return nil
		})
	},
}

var sequenceNextCmd = &cobra.Command{
	Use:   "next <kind>",
	Short: "Advance the counter and print the new value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		return withCompany(cmd, func(ctx context.Context, a *app.App, companyID string) error {
			fmt.Fprintln(cmd.OutOrStdout(), a.Numbering.NextSequence(ctx, kind, companyID))
			return nil
		})
	},
}

var sequenceResetCmd = &cobra.Command{
	Use:   "reset <kind> <start-value>",
	Short: "Set the counter to start-value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		start, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || start < 0 {
			return fmt.Errorf("invalid start value %q", args[1])
		}
		return withCompany(cmd, func(ctx context.Context, a *app.App, companyID string) error {
			if err := a.Numbering.ResetSequence(ctx, kind, companyID, start); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", kind.SequenceKey(), start)
			return nil
		})
	},
}

func init() {
	sequenceCmd.AddCommand(sequenceShowCmd, sequenceNextCmd, sequenceResetCmd)
	rootCmd.AddCommand(sequenceCmd)
}
