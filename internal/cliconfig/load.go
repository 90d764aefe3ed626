package cliconfig

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// knownKeys are the valid top-level keys in the config file, kept in sync
// with the toml tags on Config.
var knownKeys = map[string]bool{
	"client_id": true, "client_secret": true, "token_file": true,
	"base_url": true, "oauth_base_url": true,
	"connect_timeout": true, "read_timeout": true,
	"retries": true, "retry_interval": true,
	"parallel_transfers": true, "log_level": true,
}

// knownKeysList is the sorted slice form for error messages.
var knownKeysList = func() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}()

// Load reads and parses a TOML config file. Unknown keys are fatal: silently
// ignoring a typo in a config file leads to hard-to-debug behavior.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns a
// Config populated with defaults. Supports the zero-config first run.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// checkUnknownKeys inspects TOML metadata for undecoded keys.
func checkUnknownKeys(md *toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	var errs []error

	for _, key := range undecoded {
		errs = append(errs, fmt.Errorf("unknown config key %q (valid keys: %s)",
			key.String(), strings.Join(knownKeysList, ", ")))
	}

	return errors.Join(errs...)
}

// validLogLevels are the accepted log_level values.
var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Retries < 0 {
		errs = append(errs, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries))
	}

	if cfg.RetryInterval < 0 {
		errs = append(errs, fmt.Errorf("retry_interval must be >= 0, got %d", cfg.RetryInterval))
	}

	if cfg.ConnectTimeout < 0 || cfg.ReadTimeout < 0 {
		errs = append(errs, errors.New("timeouts must be >= 0"))
	}

	if cfg.ParallelTransfers < 1 {
		errs = append(errs, fmt.Errorf("parallel_transfers must be >= 1, got %d", cfg.ParallelTransfers))
	}

	if !validLogLevels[cfg.LogLevel] {
		errs = append(errs, fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", cfg.LogLevel))
	}

	return errors.Join(errs...)
}
