package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/enrich/auth"
	"github.com/randalmurphal/enrich/config"
	enricherrors "github.com/randalmurphal/enrich/errors"
)

func newTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue credentials for the HTTP server",
	}
	cmd.AddCommand(newTokenIssueCmd(a), newTokenAPIKeyCmd(a))
	return cmd
}

func newTokenIssueCmd(a *app) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
		scopes  []string
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a signed bearer token",
		Long: `Issue a JWT signed with server.jwt_secret. Without --scope the token
may call every endpoint.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if subject == "" {
				return enricherrors.NewInvalidInputError("--subject", nil)
			}
			if a.settings.JWTSecret == "" {
				return fmt.Errorf("%s is not set: %w", config.KeyServerJWTSecret, config.ErrInvalidValue)
			}
			tokens, err := auth.NewTokenService(auth.JWTConfig{Secret: a.settings.JWTSecret})
			if err != nil {
				return err
			}
			token, claims, err := tokens.Issue(subject, ttl, scopes...)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, token)
			a.logger.Info("token issued", "subject", subject, "id", claims.ID,
				"expires", claims.ExpiresAt.Time.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "token subject (required)")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTokenTTL, "token lifetime")
	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "restrict the token to a scope (enrich, validate)")
	return cmd
}

func newTokenAPIKeyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "apikey",
		Short: "Generate an API key",
		Long: `Generate a random API key. The key is printed once; store its hash in
server.api_keys so the plain key never touches the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := auth.GenerateAPIKey()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Key:  %s\nHash: %s\n", key.Secret, key.Hash)
			return nil
		},
	}
}
