package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/petrijr/stepform/internal/httpapi"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an admin bearer token for the submissions API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := loadedConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if c.Admin.JWTSecret == "" {
			return errors.New("admin.jwt_secret is not set")
		}

		tok, err := httpapi.IssueToken(c.Admin.JWTSecret, tokenSubject, httpapi.RoleAdmin, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "admin", "token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}
