package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/yadisk-unofficial/yadisk-go"
	"github.com/yadisk-unofficial/yadisk-go/internal/cliconfig"
	"github.com/yadisk-unofficial/yadisk-go/internal/tokenfile"
	"github.com/yadisk-unofficial/yadisk-go/transport"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
)

// loadedCfg holds the configuration loaded by PersistentPreRunE. Available
// to all subcommands after the pre-run phase completes.
var loadedCfg *cliconfig.Config

// newRootCmd builds the fully assembled root command. Called once from
// main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ydisk",
		Short:   "Yandex.Disk CLI client",
		Long:    "A command-line client for Yandex.Disk: transfers, listings and sharing.",
		Version: version,
		// Silence cobra's default error/usage printing; main handles it.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newInfoCmd())
	cmd.AddCommand(newLsCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newPutCmd())
	cmd.AddCommand(newRmCmd())
	cmd.AddCommand(newMkdirCmd())
	cmd.AddCommand(newMvCmd())
	cmd.AddCommand(newCpCmd())
	cmd.AddCommand(newPublishCmd())

	return cmd
}

// loadConfig reads the config file (or defaults when it does not exist) and
// stores the result for subcommands.
func loadConfig() error {
	path := flagConfigPath
	if path == "" {
		path = cliconfig.DefaultConfigPath()
	}

	cfg, err := cliconfig.LoadOrDefault(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	loadedCfg = cfg

	return nil
}

// buildLogger creates an slog.Logger from the config log level; --verbose
// and --quiet win over the config file.
func buildLogger() *slog.Logger {
	level := slog.LevelInfo

	if loadedCfg != nil {
		switch loadedCfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newClient builds an API client from the saved token and the loaded
// config.
func newClient(logger *slog.Logger) (*yadisk.Client, error) {
	tok, _, err := tokenfile.Load(loadedCfg.TokenPath())
	if err != nil {
		return nil, err
	}

	if tok == nil {
		return nil, fmt.Errorf("not logged in, run 'ydisk login' first")
	}

	opts := []yadisk.ClientOption{
		yadisk.WithLogger(logger),
		yadisk.WithDefaultTimeout(transport.Timeout{
			Connect: loadedCfg.ConnectTimeoutDuration(),
			Read:    loadedCfg.ReadTimeoutDuration(),
		}),
		yadisk.WithDefaultRetries(loadedCfg.Retries),
		yadisk.WithDefaultRetryInterval(loadedCfg.RetryIntervalDuration()),
	}

	if loadedCfg.BaseURL != "" {
		opts = append(opts, yadisk.WithBaseURL(loadedCfg.BaseURL))
	}

	if loadedCfg.OAuthBaseURL != "" {
		opts = append(opts, yadisk.WithOAuthBaseURL(loadedCfg.OAuthBaseURL))
	}

	return yadisk.New(tok.AccessToken, opts...)
}

// statusf prints a status message to stderr unless quiet mode is set.
func statusf(format string, args ...any) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
