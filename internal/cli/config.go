// Config loading for the larder CLI.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/larder/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFile     = "config.yaml"

	cfgKeyDataDir       = "data_dir"
	cfgKeyDatabase      = "database"
	cfgKeyRemoteBaseURL = "remote.base_url"
	cfgKeyRemoteAPIKey  = "remote.api_key"
	cfgKeyRemoteTimeout = "remote.timeout_seconds"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# Larder configuration

# Data directory holding the local SQLite database
# (overridable by --data-dir flag)
# data_dir:

# Local SQLite database file name
database: larder.db

# Remote REST resource backend (optional)
remote:
  base_url: ""
  # api_key: ""
  # timeout_seconds: 30
`

// loadConfig reads config.yaml from the resolved config directory using
// Viper. It creates the config directory and a default config.yaml on first
// run. A missing config.yaml is not an error.
func loadConfig(configDir string) (types.Config, error) {
	var cfg types.Config

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return cfg, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return cfg, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyDatabase, types.DefaultDatabase)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	cfg.DataDir = v.GetString(cfgKeyDataDir)
	cfg.Database = v.GetString(cfgKeyDatabase)
	cfg.Remote.BaseURL = v.GetString(cfgKeyRemoteBaseURL)
	cfg.Remote.APIKey = v.GetString(cfgKeyRemoteAPIKey)
	cfg.Remote.TimeoutSeconds = v.GetInt(cfgKeyRemoteTimeout)
	return cfg, nil
}

// ensureDefaultConfigFile creates a default config.yaml if the file does
// not exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFile)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
