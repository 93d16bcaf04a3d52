// Package cli provides the command-line interface for gepetto.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/raphaelgruber/gepetto/internal/client"
	"github.com/raphaelgruber/gepetto/internal/config"
	"github.com/raphaelgruber/gepetto/internal/models"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose  bool
	proxyURL string

	// Global config and logger
	cfg      config.Config
	logger   = slog.New(slog.DiscardHandler)
	closeLog = func() error { return nil }
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "gepetto",
	Short: "Chat with a language model through the gepetto proxy",
	Long: `Gepetto is a small chat client for the gepetto proxy.

The proxy forwards prompts to a remote inference endpoint; this CLI talks to
the proxy the same way the web client does.`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		if err := config.LoadDotEnv(".env"); err != nil {
			return fmt.Errorf("load .env: %w", err)
		}
		cfg = config.Load()

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		// Log lines go to the file only; the terminal belongs to the UI.
		logger, closeLog = config.SetupFileLogger(cfg.LogFile, level, "cli")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
	},
}

// newClient creates a proxy client honoring the --proxy flag.
func newClient() *client.Client {
	url := proxyURL
	if url == "" {
		url = cfg.ProxyURL
	}
	return client.New(url, cfg.ClientTimeout)
}

// loadCatalog returns the configured model selector entries.
func loadCatalog() ([]models.ModelOption, error) {
	options, err := models.LoadCatalog(cfg.ModelsFile)
	if err != nil {
		return nil, fmt.Errorf("load model catalog: %w", err)
	}
	return options, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging to the log file")
	rootCmd.PersistentFlags().StringVar(&proxyURL, "proxy", "", "proxy base URL (default $GEPETTO_PROXY_URL or http://localhost:3000)")

	// Add subcommands
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(versionCmd)
}
