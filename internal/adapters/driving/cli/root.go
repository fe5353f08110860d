// Package cli implements the askdocs command line with cobra.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdocs/internal/adapters/driven/config/file"
	"github.com/custodia-labs/askdocs/internal/app"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath string
	envPath    string
	verbose    bool
)

// settings holds the effective configuration once the root pre-run has loaded it.
var settings domain.Settings

// Seams replaced by tests.
var (
	lookupEnv  file.LookupFunc = os.LookupEnv
	appOptions []app.Option
)

var rootCmd = &cobra.Command{
	Use:   "askdocs",
	Short: "Ask questions of a folder of PDFs",
	Long: `askdocs indexes the PDFs in a knowledge-base folder and answers questions
about them with a language model, citing the pages it used.

Run 'askdocs serve' for the HTTP API and Slack bot, or 'askdocs ask' for a
one-off question from the terminal.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./askdocs.toml)")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", "", "dotenv file (default ./.env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute(ctx context.Context, v string) error {
	if v != "" {
		version = v
	}
	// cobra's Print helpers default to stderr.
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

func loadSettings(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if err := file.LoadDotEnv(envPath); err != nil {
		return err
	}
	s, err := file.NewSettingsStore(configPath).WithLookup(lookupEnv).Load()
	if err != nil {
		return err
	}
	settings = s
	return nil
}

// openApp assembles the application from the loaded settings.
func openApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, settings, appOptions...)
}
