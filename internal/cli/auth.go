package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/siva673/loop-agent/internal/browser"
	"github.com/siva673/loop-agent/internal/spotify/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Spotify authentication",
	Long:  `Commands for managing Spotify OAuth authentication.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with Spotify",
	Long: `Opens a browser to authenticate with Spotify using the PKCE flow.

The callback is received on the loopback address of spotify.redirect_uri,
so stop a running 'loop-agent serve' on the same port first.`,
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored Spotify credentials",
	Long:  `Removes the stored Spotify OAuth tokens from the local machine.`,
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long:  `Shows the current Spotify authentication status.`,
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(true)
	if err != nil {
		return err
	}
	st, err := newStack(logger)
	if err != nil {
		return err
	}

	pkce, err := auth.NewPKCE()
	if err != nil {
		return fmt.Errorf("failed to generate PKCE: %w", err)
	}

	callback, err := auth.ListenCallback(st.oauth.RedirectURI, pkce.State)
	if err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}
	defer func() { _ = callback.Close(context.Background()) }()

	authURL := st.oauth.BuildAuthURL(pkce)

	fmt.Println("Opening browser for Spotify authentication...")
	if err := browser.Open(authURL); err != nil {
		fmt.Printf("Could not open browser automatically.\n")
		fmt.Printf("Please open this URL in your browser:\n\n%s\n\n", authURL)
	}

	fmt.Println("Waiting for authentication...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	code, err := callback.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("authentication timed out: %w", err)
	}
	if err != nil {
		return err
	}

	token, err := st.oauth.ExchangeCode(ctx, code, pkce.Verifier)
	if err != nil {
		return err
	}
	if err := st.client.SetToken(token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	user, err := st.client.GetCurrentUser(ctx)
	if err != nil {
		fmt.Println("Authentication successful! Token stored.")
		return nil
	}

	if JSONOutput() {
		return printJSON(os.Stdout, map[string]any{
			"status":       "authenticated",
			"user_id":      user.ID,
			"display_name": user.DisplayName,
			"product":      user.Product,
		})
	}
	fmt.Printf("Successfully authenticated as %s\n", titleStyle.Render(user.DisplayName))
	if !user.IsPremium() {
		fmt.Println(warnStyle.Render("! Playback control requires Spotify Premium."))
	}
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	c, err := newTokenClient()
	if err != nil {
		return err
	}

	if !c.HasToken() {
		if JSONOutput() {
			return printJSON(os.Stdout, map[string]string{"status": "not_authenticated"})
		}
		fmt.Println("Not authenticated with Spotify.")
		return nil
	}

	if err := c.ClearToken(); err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(os.Stdout, map[string]string{"status": "logged_out"})
	}
	fmt.Println("Logged out of Spotify.")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	c, err := newTokenClient()
	if err != nil {
		return err
	}
	if err := c.LoadToken(); err != nil {
		return fmt.Errorf("failed to load token: %w", err)
	}

	if !c.HasToken() {
		if JSONOutput() {
			return printJSON(os.Stdout, map[string]any{"authenticated": false})
		}
		fmt.Println("Not authenticated with Spotify.")
		fmt.Println("Run 'loop-agent auth login' to authenticate.")
		return nil
	}

	if cfg.Spotify.ClientID == "" {
		expired := !c.IsAuthenticated()
		if JSONOutput() {
			return printJSON(os.Stdout, map[string]any{
				"authenticated": true,
				"expired":       expired,
			})
		}
		if expired {
			fmt.Println("Authenticated but token expired.")
		} else {
			fmt.Println("Authenticated with Spotify.")
		}
		return nil
	}

	logger, err := newLogger(true)
	if err != nil {
		return err
	}
	st, err := newStack(logger)
	if err != nil {
		return err
	}

	user, err := st.client.GetCurrentUser(context.Background())
	if err != nil {
		if JSONOutput() {
			return printJSON(os.Stdout, map[string]any{
				"authenticated": true,
				"expired":       true,
				"error":         err.Error(),
			})
		}
		fmt.Printf("Token may be expired or invalid: %v\n", err)
		fmt.Println("Run 'loop-agent auth login' to re-authenticate.")
		return nil
	}

	// The client may have refreshed; report the stored expiry.
	token, err := st.storage.Load()
	if err != nil || token == nil {
		return fmt.Errorf("failed to load token: %w", err)
	}

	if JSONOutput() {
		return printJSON(os.Stdout, map[string]any{
			"authenticated": true,
			"expired":       false,
			"user_id":       user.ID,
			"display_name":  user.DisplayName,
			"product":       user.Product,
			"expires_at":    token.ExpiresAt,
		})
	}
	fmt.Printf("Authenticated as: %s\n", titleStyle.Render(user.DisplayName))
	fmt.Printf("Account type: %s\n", user.Product)
	fmt.Printf("Token expires: %s\n", humanize.Time(token.ExpiresAt))
	return nil
}
