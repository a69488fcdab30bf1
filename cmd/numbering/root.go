package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"belgeno/internal/app"
	"belgeno/internal/core/id"
	"belgeno/internal/core/numerator"
	"belgeno/internal/core/tenant"
	"belgeno/pkg/config"
	"belgeno/pkg/logger"
)

const dateLayout = "2006-01-02"

var (
	verbose   bool
	configDir string
	companyID string

	log = logger.NewNop()
)

var errNoCompany = errors.New("--company is required")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "numbering",
	Short: "Document numbering for the ERP",
	Long: `numbering previews and validates number formats, and manages the
formats, counters and generated numbers stored for a company.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		l, err := logger.New(logger.Config{
			Level:       level,
			Development: true,
			OutputPaths: []string{"stderr"},
		})
		if err != nil {
			return err
		}
		log = l
		cmd.SetContext(logger.WithLogger(cmd.Context(), log))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "Extra directory to look up .env / config.env in")
	rootCmd.PersistentFlags().StringVarP(&companyID, "company", "c", "", "Company ID the command acts for")
}

// parseKind resolves a document kind argument.
func parseKind(s string) (numerator.DocumentKind, error) {
	kind, ok := numerator.ParseDocumentKind(s)
	if !ok {
		names := make([]string, 0, len(numerator.Kinds()))
		for _, k := range numerator.Kinds() {
			names = append(names, k.String())
		}
		return "", fmt.Errorf("unknown document kind %q (one of: %s)", s, strings.Join(names, ", "))
	}
	return kind, nil
}

// parseDate reads a YYYY-MM-DD flag value; empty means the zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

// loadConfig reads the configuration the same way the server does.
func loadConfig() (*config.Config, error) {
	var paths []string
	if configDir != "" {
		paths = append(paths, configDir)
	}
	return config.Load(paths...)
}

// withCompany connects to the database and runs fn for the --company company.
func withCompany(cmd *cobra.Command, fn func(ctx context.Context, a *app.App, companyID string) error) error {
	if companyID == "" {
		return errNoCompany
	}
	cid, err := id.ParseCompanyID(companyID)
	if err != nil {
		return fmt.Errorf("invalid --company: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DB.URL == "" {
		return config.ErrMissingDatabaseURL
	}

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(tenant.WithCompanyID(ctx, cid), a, cid)
}
