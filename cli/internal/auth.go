package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/devilmonastery/procorepress/internal/auth"
	"github.com/devilmonastery/procorepress/internal/config"
	"github.com/devilmonastery/procorepress/internal/pkg/timeutil"
	"github.com/devilmonastery/procorepress/internal/procore"
	"github.com/devilmonastery/procorepress/internal/settings"
)

func newAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage Procore API credentials and tokens",
	}

	cmd.AddCommand(newAuthConfigureCommand())
	cmd.AddCommand(newAuthTestCommand())
	cmd.AddCommand(newAuthStatusCommand())
	cmd.AddCommand(newAuthClearCommand())
	cmd.AddCommand(newAuthAdminTokenCommand())

	return cmd
}

func newAuthConfigureCommand() *cobra.Command {
	var clientID, clientSecret, apiURL, companyID string

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Store Procore API credentials in the settings store",
		Long: `Store the client ID, client secret, API URL and default company ID.
The client secret is prompted for when not given as a flag.
Changing credentials discards any cached token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)

			if clientID != "" && clientSecret == "" && term.IsTerminal(int(os.Stdin.Fd())) {
				secret, err := promptSecret("Client Secret: ")
				if err != nil {
					return err
				}
				clientSecret = secret
			}

			err := cliCtx.Settings.Update(cmd.Context(), func(s *settings.Settings) {
				changed := false
				set := func(dst *string, v string) {
					if v != "" && *dst != v {
						*dst = v
						changed = true
					}
				}
				set(&s.ClientID, clientID)
				set(&s.ClientSecret, clientSecret)
				set(&s.APIURL, apiURL)
				set(&s.DefaultCompanyID, companyID)
				if changed {
					*s = s.WithTokenState(procore.TokenState{})
				}
			})
			if err != nil {
				return fmt.Errorf("failed to save settings: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "✓ Settings saved")
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "Procore OAuth client ID")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "Procore OAuth client secret")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "Procore API URL (default https://api.procore.com)")
	cmd.Flags().StringVar(&companyID, "company-id", "", "Default Procore company ID")

	return cmd
}

func newAuthTestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test the Procore API connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)

			result := procore.TestConnection(cmd.Context(), cliCtx.Tokens)
			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
			if !result.OK {
				return fmt.Errorf("connection test failed")
			}
			return nil
		},
	}
}

func newAuthStatusCommand() *cobra.Command {
	var timezone string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configured credentials and token state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if timezone != "" && !timeutil.IsValidTimezone(timezone) {
				return fmt.Errorf("unknown timezone %q", timezone)
			}

			cliCtx := getCliContext(cmd)
			creds := cliCtx.Settings.Credentials()
			state := cliCtx.Tokens.State()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "API URL: %s\n", creds.BaseURL())
			fmt.Fprintf(out, "Client ID: %s\n", valueOrNone(creds.ClientID))
			fmt.Fprintf(out, "Client Secret: %s\n", maskSecret(creds.ClientSecret))
			fmt.Fprintf(out, "Default Company: %s\n", valueOrNone(creds.DefaultCompanyID))

			if state.AccessToken == "" {
				fmt.Fprintln(out, "Token: none - one will be requested on the next API call")
				return nil
			}

			expiry := timeutil.InTimezone(state.Expiry(), timezone)
			fmt.Fprintf(out, "Token expires: %s\n", expiry.Format(timeutil.ExpiryLayout))
			if state.Valid(time.Now()) {
				fmt.Fprintf(out, "✓  %s\n", timeutil.DescribeExpiry(state.ExpiresAt, time.Now()))
			} else {
				fmt.Fprintf(out, "⚠  Token %s - a new one will be requested on the next API call\n",
					timeutil.DescribeExpiry(state.ExpiresAt, time.Now()))
			}
			if state.RefreshToken != "" {
				fmt.Fprintln(out, "Refresh token: present")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone for the expiry time (default local)")
	return cmd
}

func newAuthClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Discard the cached access and refresh tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			if err := cliCtx.Tokens.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear tokens: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Tokens cleared")
			return nil
		},
	}
}

func newAuthAdminTokenCommand() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Mint a bearer token for the web host's admin routes",
		Long: `Mint an admin bearer token signed with server.admin_secret, for example:

  curl -X POST -H "Authorization: Bearer $(procorepress auth admin-token)" \
    http://localhost:8080/admin/test-connection`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			server := cliCtx.AppConfig.Server

			if ttl <= 0 {
				ttl = server.AdminTokenTTL
			}
			jwtManager, err := auth.NewJWTManager(server.AdminSecret, ttl)
			if err != nil {
				return fmt.Errorf("%w (set server.admin_secret or %s)", err, config.EnvAdminSecret)
			}

			token, expiresAt, err := jwtManager.GenerateToken(subject)
			if err != nil {
				return err
			}
			cliCtx.Logger.Debug("minted admin token",
				"subject", subject,
				"expires_at", expiresAt.Format(time.RFC3339))

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "cli", "Subject recorded in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default server.admin_token_ttl)")

	return cmd
}

func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimSpace(string(secret)), nil
}

func valueOrNone(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

// maskSecret keeps the last four characters of a secret
func maskSecret(s string) string {
	switch {
	case s == "":
		return "(not set)"
	case len(s) <= 4:
		return strings.Repeat("*", len(s))
	default:
		return strings.Repeat("*", 8) + s[len(s)-4:]
	}
}
