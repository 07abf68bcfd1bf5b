// harborctl is the operator CLI: it edits the gateway config, inspects the
// credential-profile order, and reads the message journal.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:     "harborctl",
		Short:   "Harbor gateway operator CLI",
		Long:    "harborctl edits the Harbor gateway configuration, inspects credential profile order, and reads the message journal.",
		Version: version,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.toml (default: $CONFIG_PATH)")

	root.AddCommand(modelsCmd())
	root.AddCommand(profilesCmd())
	root.AddCommand(configCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(tokenCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from the --config flag or the
// CONFIG_PATH environment variable.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return os.Getenv("CONFIG_PATH")
}
