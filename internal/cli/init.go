package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/larder/internal/paths"
	"github.com/mesh-intelligence/larder/pkg/sqlite"
	"github.com/mesh-intelligence/larder/pkg/types"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize larder storage",
		Long:  "Create configuration and data directories, then create the local SQLite database.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("resolve config directory: %s", err))
	}

	// Load data_dir from existing config.yaml if the flag was not given.
	dataDir := flags.dataDir
	if dataDir == "" {
		dataDir = loadDataDirFromConfig(configDir)
	}
	dataDir, err = paths.ResolveDataDir(flags.dataDir, dataDir)
	if err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("resolve data directory: %s", err))
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("create config directory: %s", err))
	}
	configPath := filepath.Join(configDir, configFile)
	if err := writeConfigIfMissing(configPath, dataDir); err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("write config: %s", err))
	}

	// Create the database file by opening and closing the store.
	store, err := sqlite.OpenConfig(types.Config{DataDir: dataDir})
	if err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("initialize storage: %s", err))
	}
	if err := store.Close(); err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("finalize storage: %s", err))
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Larder initialized successfully")
	return nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. If it already exists, the function returns nil.
func writeConfigIfMissing(path, dataDir string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	cfg := types.Config{
		DataDir:  dataDir,
		Database: types.DefaultDatabase,
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// loadDataDirFromConfig reads data_dir from an existing config.yaml.
// Returns empty string if the file does not exist or cannot be read.
func loadDataDirFromConfig(configDir string) string {
	data, err := os.ReadFile(filepath.Join(configDir, configFile))
	if err != nil {
		return ""
	}
	var cfg types.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ""
	}
	return cfg.DataDir
}
