package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdocs/internal/adapters/driven/ai"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/config/file"
	"github.com/custodia-labs/askdocs/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Prints the configuration after defaults, the config file and environment
overrides are applied. Secrets are redacted.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the AI providers are reachable",
	Args:  cobra.NoArgs,
	RunE:  runConfigCheck,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
	configCmd.AddCommand(configCheckCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	data, err := file.Encode(file.Redacted(settings))
	if err != nil {
		return err
	}
	cmd.Print(string(data))
	return nil
}

// checkAI is replaced by tests.
var checkAI = ai.Check

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	st := stylesFor(cmd.OutOrStdout())

	failed := 0
	for _, r := range checkAI(cmd.Context(), settings) {
		label := fmt.Sprintf("%-9s %s/%s", r.Component, r.Provider, r.Model)
		if r.OK() {
			cmd.Printf("%s %s\n", st.Success.Render("ok  "), label)
			continue
		}
		failed++
		cmd.Printf("%s %s: %v\n", st.Error.Render("FAIL"), label, r.Err)
	}
	if failed > 0 {
		return fmt.Errorf("%d provider(s) unreachable", failed)
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return fmt.Errorf("getting force flag: %w", err)
	}

	store := file.NewSettingsStore(configPath)
	if !force {
		if _, err := os.Stat(store.Path()); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", store.Path())
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	if err := store.Save(domain.DefaultSettings()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	cmd.Printf("Wrote %s\n", store.Path())
	return nil
}
