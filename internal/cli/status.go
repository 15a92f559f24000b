package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/larder/internal/paths"
	"github.com/mesh-intelligence/larder/pkg/rest"
	"github.com/mesh-intelligence/larder/pkg/sqlite"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check local and remote store health",
		Long:  "Open the local SQLite database and probe the remote backend, reporting per-store health.",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	log := logger()

	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("resolve config directory: %s", err))
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("load config: %s", err))
	}
	cfg.DataDir, err = paths.ResolveDataDir(flags.dataDir, cfg.DataDir)
	if err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("resolve data directory: %s", err))
	}

	out := cmd.OutOrStdout()

	store, err := sqlite.OpenConfig(cfg)
	if err != nil {
		fmt.Fprintf(out, "local:  unavailable (%s)\n", err)
	} else {
		if err := store.DB().Ping(); err != nil {
			fmt.Fprintf(out, "local:  unavailable (%s)\n", err)
		} else {
			fmt.Fprintln(out, "local:  ok")
		}
		_ = store.Close()
	}

	if cfg.Remote.BaseURL == "" {
		fmt.Fprintln(out, "remote: not configured")
		return nil
	}

	client, err := rest.NewConfig(cfg.Remote, rest.WithLogger(log))
	if err != nil {
		fmt.Fprintf(out, "remote: unavailable (%s)\n", err)
		return nil
	}
	resp, err := client.Index(cmd.Context(), "health")
	switch {
	case err != nil:
		fmt.Fprintf(out, "remote: unavailable (%s)\n", err)
	case !resp.OK():
		fmt.Fprintf(out, "remote: unhealthy (status %d)\n", resp.Status)
	default:
		fmt.Fprintln(out, "remote: ok")
	}
	return nil
}
