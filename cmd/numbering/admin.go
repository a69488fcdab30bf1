package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"belgeno/internal/app"
	appctx "belgeno/internal/core/context"
	"belgeno/internal/core/id"
	"belgeno/internal/domain/auth"
	"belgeno/pkg/config"
)

var (
	tokenUser  string
	tokenRoles []string
	tokenAdmin bool
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the service tables if they do not exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.DB.URL == "" {
			return config.ErrMissingDatabaseURL
		}

		a, err := app.New(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.EnsureSchema(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema ready")
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an access token for --company (development and scripts)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
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
		if cfg.JWT.Secret == "" {
			return config.ErrMissingJWTSecret
		}

		jwtCfg := auth.DefaultJWTConfig(cfg.JWT.Secret)
		jwtCfg.Issuer = cfg.JWT.Issuer
		if cfg.JWT.TTL > 0 {
			jwtCfg.AccessTokenTTL = cfg.JWT.TTL
		}

		token, expires, err := auth.NewJWTService(jwtCfg).GenerateAccessToken(appctx.UserContext{
			UserID:    tokenUser,
			CompanyID: cid,
			Roles:     tokenRoles,
			IsAdmin:   tokenAdmin,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, token)
		log.Debugw("token issued",
			"user_id", tokenUser,
			"roles", strings.Join(tokenRoles, ","),
			"expires_at", expires)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "cli", "User ID placed in the token")
	tokenCmd.Flags().StringSliceVar(&tokenRoles, "role", nil, "Role granted by the token (repeatable)")
	tokenCmd.Flags().BoolVar(&tokenAdmin, "admin", false, "Mark the token as an administrator")

	rootCmd.AddCommand(schemaCmd, tokenCmd)
}
