// Package types defines the shared configuration, sentinel errors, and
// lifecycle events for the Larder persistence system.
package types

import "errors"

// RemoteConfig holds the connection parameters for the remote REST resource
// backend. BaseURL is the API root; resource names are appended per request.
type RemoteConfig struct {
	BaseURL string            `json:"base_url" yaml:"base_url"`
	APIKey  string            `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	// TimeoutSeconds bounds each remote call. Zero means the default (30s).
	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

// Config holds backend parameters for opening the local store and the remote
// resource client. Either side may be left empty; entities select which
// stores participate through their schema flags.
type Config struct {
	DataDir string `json:"data_dir" yaml:"data_dir"`
	// Database is the SQLite file name inside DataDir. Defaults to larder.db.
	Database string       `json:"database,omitempty" yaml:"database,omitempty"`
	Remote   RemoteConfig `json:"remote,omitempty" yaml:"remote,omitempty"`
}

// DefaultDatabase is the SQLite file name used when Config.Database is empty.
const DefaultDatabase = "larder.db"

// Config validation errors.
var (
	ErrNoStore       = errors.New("no store configured")
	ErrRemoteBaseURL = errors.New("remote base URL must not be empty")
)

// Validate checks that the Config names at least one usable backend. It
// returns a sentinel error from this package on failure.
func (c Config) Validate() error {
	if c.DataDir == "" && c.Remote.BaseURL == "" {
		return ErrNoStore
	}
	return nil
}

// DatabaseFile returns the configured SQLite file name, applying the default.
func (c Config) DatabaseFile() string {
	if c.Database == "" {
		return DefaultDatabase
	}
	return c.Database
}
