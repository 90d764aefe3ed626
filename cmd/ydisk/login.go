package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yadisk-unofficial/yadisk-go"
	"github.com/yadisk-unofficial/yadisk-go/internal/tokenfile"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate with Yandex.Disk using the device code flow",
		RunE:  runLogin,
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke and remove the saved token",
		RunE:  runLogout,
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Display the authenticated user",
		RunE:  runWhoami,
	}
}

func runLogin(_ *cobra.Command, _ []string) error {
	logger := buildLogger()
	ctx := context.Background()

	if loadedCfg.ClientID == "" {
		return fmt.Errorf("client_id missing from config: register an app at https://oauth.yandex.ru and set client_id/client_secret in the config file")
	}

	auth := authenticator()

	da, err := auth.DeviceAuth(ctx)
	if err != nil {
		return fmt.Errorf("starting device authorization: %w", err)
	}

	// Device code prompts must always be visible, even under --quiet.
	fmt.Fprintf(os.Stderr, "To sign in, visit: %s\n", da.VerificationURI)
	fmt.Fprintf(os.Stderr, "Enter code: %s\n", da.UserCode)

	tok, err := auth.WaitForDeviceToken(ctx, da)
	if err != nil {
		return fmt.Errorf("waiting for device authorization: %w", err)
	}

	meta, err := accountMeta(ctx, tok.AccessToken)
	if err != nil {
		logger.Warn("could not fetch account info", "error", err)
	}

	if err := tokenfile.Save(loadedCfg.TokenPath(), tok, meta); err != nil {
		return err
	}

	logger.Info("login successful")
	statusf("Login successful.\n")

	return nil
}

func runLogout(_ *cobra.Command, _ []string) error {
	logger := buildLogger()
	ctx := context.Background()

	tok, _, err := tokenfile.Load(loadedCfg.TokenPath())
	if err != nil {
		return err
	}

	if tok == nil {
		statusf("Not logged in.\n")

		return nil
	}

	if loadedCfg.ClientID != "" {
		if err := authenticator().Revoke(ctx, tok.AccessToken); err != nil {
			// Removing the local token still succeeds; the server-side
			// revocation is best effort.
			logger.Warn("revoking token", "error", err)
		}
	}

	if err := tokenfile.Delete(loadedCfg.TokenPath()); err != nil {
		return err
	}

	logger.Info("logout successful")
	statusf("Logged out.\n")

	return nil
}

// whoamiOutput is the JSON schema for `whoami --json`.
type whoamiOutput struct {
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
	UID         string `json:"uid"`
}

func runWhoami(_ *cobra.Command, _ []string) error {
	logger := buildLogger()
	ctx := context.Background()

	client, err := newClient(logger)
	if err != nil {
		return err
	}
	defer client.Close()

	disk, err := client.DiskInfo(ctx, yadisk.WithFields("user"))
	if err != nil {
		return fmt.Errorf("fetching account info: %w", err)
	}

	if disk.User == nil {
		return fmt.Errorf("account info missing from response")
	}

	if flagJSON {
		out := whoamiOutput{
			Login:       disk.User.Login,
			DisplayName: disk.User.DisplayName,
			UID:         disk.User.UID,
		}

		return json.NewEncoder(os.Stdout).Encode(out)
	}

	fmt.Printf("%s (%s)\n", disk.User.Login, disk.User.DisplayName)

	return nil
}

// authenticator builds an Authenticator from the loaded config.
func authenticator() *yadisk.Authenticator {
	var opts []yadisk.AuthOption
	if loadedCfg.OAuthBaseURL != "" {
		opts = append(opts, yadisk.WithAuthBaseURL(loadedCfg.OAuthBaseURL))
	}

	return yadisk.NewAuthenticator(loadedCfg.ClientID, loadedCfg.ClientSecret, "", opts...)
}

// accountMeta fetches login and display name to cache in the token file.
func accountMeta(ctx context.Context, accessToken string) (map[string]string, error) {
	var opts []yadisk.ClientOption
	if loadedCfg.BaseURL != "" {
		opts = append(opts, yadisk.WithBaseURL(loadedCfg.BaseURL))
	}

	client, err := yadisk.New(accessToken, opts...)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	disk, err := client.DiskInfo(ctx, yadisk.WithFields("user"))
	if err != nil || disk.User == nil {
		return nil, err
	}

	return map[string]string{
		"login":        disk.User.Login,
		"display_name": disk.User.DisplayName,
	}, nil
}
