package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"sitelog/internal/cli"
	"sitelog/internal/transfer/sheets"
)

// sheetsAuthCmd obtains a user token for the spreadsheet mirror when no
// service account is available.
func sheetsAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets-auth",
		Short: "Authorize spreadsheet access with a Google account and save the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			oc, err := sheets.OAuthConfig(cfg.GoogleOAuthClientJSON, cfg.GoogleOAuthClientFile)
			if err != nil {
				return err
			}
			tokenFile := cfg.GoogleOAuthTokenFile
			if tokenFile == "" {
				tokenFile = "token.json"
			}

			// The redirect URI http://localhost:<port>/callback must be authorized on the OAuth client.
			ln, err := net.Listen("tcp", "localhost:"+cfg.OAuthRedirectPort)
			if err != nil {
				return fmt.Errorf("listen for oauth callback: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			defer cancel()

			tok, err := sheets.Authorize(ctx, oc, ln, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := sheets.SaveToken(tokenFile, tok); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved token to %s\n", tokenFile)
			return nil
		},
	}
}
