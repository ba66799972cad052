package main

import (
	"fmt"
	"os"

	"github.com/amaumene/rankboard/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "rankd",
		Short:         "Ranked lists of movies, shows, books, podcasts, albums, anime and sports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config-dir", "", "directory holding local.db, remote.db and discovery_terms.txt")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "", "log format (text, json)")
	bindFlag(root, "config-dir", "CONFIG_DIR")
	bindFlag(root, "log-level", "LOG_LEVEL")
	bindFlag(root, "log-format", "LOG_FORMAT")

	root.AddCommand(
		newServeCommand(),
		newSearchCommand(),
		newDiscoverCommand(),
		newImportCommand(),
	)
	return root
}

func bindFlag(cmd *cobra.Command, flag, key string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}

// loadConfig reads .env and the environment. One-shot commands log at warn
// unless a level was asked for, so their output stays readable.
func loadConfig(cmd *cobra.Command, quiet bool) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if quiet && !cmd.Flags().Changed("log-level") && os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}
	return cfg, nil
}
