// Package cliconfig loads the ydisk CLI configuration: a TOML file with
// application credentials, client tuning and output preferences. Unknown
// keys are fatal so a typo never silently degrades into default behavior.
package cliconfig

import "time"

// Config is the on-disk configuration. Zero values mean "use the library
// default".
type Config struct {
	// OAuth application credentials, required for login.
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`

	// TokenFile overrides where the issued token is stored.
	TokenFile string `toml:"token_file"`

	// Endpoint overrides, mainly for testing against a mock server.
	BaseURL      string `toml:"base_url"`
	OAuthBaseURL string `toml:"oauth_base_url"`

	// Timeouts in seconds.
	ConnectTimeout int `toml:"connect_timeout"`
	ReadTimeout    int `toml:"read_timeout"`

	// Retry tuning. RetryInterval is in milliseconds.
	Retries       int `toml:"retries"`
	RetryInterval int `toml:"retry_interval"`

	// ParallelTransfers bounds concurrent file transfers for multi-file
	// put and get.
	ParallelTransfers int `toml:"parallel_transfers"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`
}

// defaultParallelTransfers bounds multi-file transfer concurrency when the
// config does not set it.
const defaultParallelTransfers = 4

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		ConnectTimeout:    10,
		ReadTimeout:       15,
		Retries:           3,
		ParallelTransfers: defaultParallelTransfers,
		LogLevel:          "info",
	}
}

// ConnectTimeoutDuration returns the connect timeout as a duration.
func (c *Config) ConnectTimeoutDuration() time.Duration {
	return time.Duration(c.ConnectTimeout) * time.Second
}

// ReadTimeoutDuration returns the read timeout as a duration.
func (c *Config) ReadTimeoutDuration() time.Duration {
	return time.Duration(c.ReadTimeout) * time.Second
}

// RetryIntervalDuration returns the retry interval as a duration.
func (c *Config) RetryIntervalDuration() time.Duration {
	return time.Duration(c.RetryInterval) * time.Millisecond
}
