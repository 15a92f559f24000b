// Package cli implements the larder command-line interface.
package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Version is the larder release version.
const Version = "0.3.0"

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	verbose   bool
}

var flags rootFlags

// NewRootCmd creates the top-level "larder" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "larder",
		Short: "Hybrid local/remote entity persistence",
		Long: "Larder synchronizes entity state between a local SQLite store\n" +
			"and a remote REST resource backend.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: .larder)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: .larder-db)")
	root.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newStatusCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitUserError)
	}
}

// logger builds the CLI logger; debug level only with --verbose.
func logger() zerolog.Logger {
	level := zerolog.InfoLevel
	if flags.verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// exitError prints the message and returns an error carrying the exit code.
func exitError(cmd *cobra.Command, code int, msg string) error {
	cmd.PrintErrln("Error: " + msg)
	os.Exit(code)
	return nil
}
