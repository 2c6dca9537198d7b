// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the worldbuild CLI: ingest campaign
// documents into the ledger and answer questions over them.
// See docs/ARCHITECTURE § CLI Surface.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/worldbuild/internal/ledger"
	"github.com/pdiddy/worldbuild/internal/logging"
	"github.com/pdiddy/worldbuild/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg holds the resolved configuration for the current invocation.
var cfg types.Config

// logger is the CLI-wide structured logger, built in PersistentPreRunE.
var logger *slog.Logger

// rootCmd is the base command for the worldbuild CLI.
var rootCmd = &cobra.Command{
	Use:   "worldbuild",
	Short: "A ledger for worldbuilding documents and the entities in them",
	Long: `worldbuild ingests campaign documents (plain text or Markdown), splits
them into chunks, extracts entity mentions (characters, locations,
organizations, items), and resolves repeated mentions into canonical
entities with a full merge audit trail.

Query the ingested world with "chat" for an interactive loop or "query"
for one-shot retrieval; inspect resolved entities with "entity".

All state lives in a single SQLite file (world.db by default). Deleting
that file resets everything.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(".env"); err == nil {
			if err := godotenv.Load(); err != nil {
				return fmt.Errorf("loading .env: %w", err)
			}
		}

		loaded := types.DefaultConfig()
		if err := viper.Unmarshal(&loaded); err != nil {
			return fmt.Errorf("reading configuration: %w", err)
		}
		if store, _ := cmd.Flags().GetString("store"); store != "" {
			loaded.Store.Path = store
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded

		level := logging.ParseLevel(cfg.Log.Level)
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = slog.LevelDebug
		}
		logger = logging.New(os.Stderr, level)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./worldbuild.yaml or ~/.config/worldbuild/config.yaml)")
	rootCmd.PersistentFlags().String("store", "", "ledger store file (overrides store.path)")
	rootCmd.PersistentFlags().Bool("verbose", false, "log at debug level")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("worldbuild")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "worldbuild"))
		}
	}

	viper.SetEnvPrefix("WORLDBUILD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// openLedger opens the configured store with the resolved settings.
func openLedger() (*ledger.Ledger, error) {
	return ledger.Open(ledger.Config{
		Path:           cfg.Store.Path,
		FuzzyThreshold: cfg.Resolve.FuzzyThreshold,
		Aliases:        cfg.Resolve.Aliases,
		Logger:         logger,
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
