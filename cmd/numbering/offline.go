package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"belgeno/internal/core/numerator"
)

var errInvalidFormat = errors.New("invalid format")

var (
	previewKind     string
	previewSequence int64
	previewDate     string
	validateKind    string
)

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List document kinds and their default formats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, k := range numerator.Kinds() {
			fmt.Fprintf(out, "%-18s %-8s %s\n", k, k.Scheme(), k.DefaultFormat())
		}
		return nil
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview <format>",
	Short: "Render a format with a sample sequence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDate(previewDate)
		if err != nil {
			return err
		}
		if date.IsZero() {
			date = time.Now()
		}

		format := numerator.SanitizeFormat(args[0])
		preview := numerator.PreviewNumber(format, previewSequence, date)
		if previewKind != "" {
			kind, err := parseKind(previewKind)
			if err != nil {
				return err
			}
			preview = kind.Preview(format, previewSequence, date)
		}

		fmt.Fprintln(cmd.OutOrStdout(), preview)
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <format>",
	Short: "Check a format and list every problem",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format := numerator.SanitizeFormat(args[0])
		result := numerator.ValidateFormat(format)
		if validateKind != "" {
			kind, err := parseKind(validateKind)
			if err != nil {
				return err
			}
			result = kind.ValidateFormat(format)
		}

		out := cmd.OutOrStdout()
		if result.Valid {
			fmt.Fprintf(out, "%s: valid\n", format)
			return nil
		}
		fmt.Fprintf(out, "%s: invalid\n", format)
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  - %s\n", e)
		}
		return errInvalidFormat
	},
}

func init() {
	previewCmd.Flags().StringVarP(&previewKind, "kind", "k", "", "Render with the rules of this document kind")
	previewCmd.Flags().Int64VarP(&previewSequence, "sequence", "s", 1, "Sample sequence value")
	previewCmd.Flags().StringVarP(&previewDate, "date", "d", "", "Document date (YYYY-MM-DD), default today")

	validateCmd.Flags().StringVarP(&validateKind, "kind", "k", "", "Apply the rules of this document kind")

	rootCmd.AddCommand(kindsCmd, previewCmd, validateCmd)
}
