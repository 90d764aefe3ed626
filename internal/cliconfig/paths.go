package cliconfig

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// appName is the application directory name.
const appName = "ydisk"

// configFileName is the config file name inside the app directory.
const configFileName = "config.toml"

// tokenFileName is the default token file name inside the app directory.
const tokenFileName = "token.json"

// DefaultConfigDir returns the directory for config and token files.
// Respects XDG_CONFIG_HOME, defaulting to ~/.config/ydisk.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}

	home, err := homedir.Dir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", appName)
}

// DefaultConfigPath returns the full path to the default config file.
func DefaultConfigPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}

	return filepath.Join(dir, configFileName)
}

// TokenPath returns the token file location: the configured override if
// set, otherwise the default next to the config file.
func (c *Config) TokenPath() string {
	if c.TokenFile != "" {
		expanded, err := homedir.Expand(c.TokenFile)
		if err == nil {
			return expanded
		}

		return c.TokenFile
	}

	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}

	return filepath.Join(dir, tokenFileName)
}
