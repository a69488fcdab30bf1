package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"belgeno/internal/app"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history <kind>",
	Short: "Show recorded format changes and counter resets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		return withCompany(cmd, func(ctx context.Context, a *app.App, companyID string) error {
			entries, err := a.Numbering.History(ctx, kind, companyID, historyLimit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "AT\tACTION\tUSER\tOLD\tNEW")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					e.At.Local().Format(time.DateTime), e.Action, e.UserID, e.Old, e.New)
			}
			return w.Flush()
		})
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of entries")

	rootCmd.AddCommand(historyCmd)
}
