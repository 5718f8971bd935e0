// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"teralink/internal/config"
	"teralink/internal/extract"
	"teralink/internal/logger"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagConfig  string
	flagPort    int
	flagQuality string
	flagJSON    bool
	flagDebug   bool
)

// cfg holds the loaded configuration (merged: defaults < config file < env < flags).
var cfg *config.Config

var log = zerolog.Nop()

var rootCmd = &cobra.Command{
	Use:   "teralink",
	Short: "Resolve Terabox share links into direct download links",
	Long: `Teralink is a small HTTP relay for Terabox share links.
It tries a list of mirror endpoints in order and returns the first
direct download link found, as JSON.

Run without a subcommand to start the HTTP server.`,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              serveRun,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	// No config needed.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "teralink %s\n", Version)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config file (default: $XDG_CONFIG_HOME/teralink/config.toml)")
	rootCmd.PersistentFlags().IntVarP(&flagPort, "port", "P", 0, "Listening port (default: $PORT or 5000)")
	rootCmd.PersistentFlags().StringVarP(&flagQuality, "quality", "q", "", `Quality label to pick from legacy responses (default: "HD Video")`)
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Always print results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration, then builds the logger.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file and environment values
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = flagPort
	}
	if flagQuality != "" {
		cfg.Resolver.Quality = flagQuality
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err = logger.New(cfg.Log, cfg.Debug)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}

	return nil
}

func newResolver() (*extract.Resolver, error) {
	r, err := extract.New(cfg.Resolver, extract.WithLogger(logger.Component(log, "resolver")))
	if err != nil {
		return nil, fmt.Errorf("creating resolver: %w", err)
	}
	return r, nil
}
