package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for askdocs.

The ask pane sends questions to the knowledge base and shows the answer
with its citations. The ledger pane lists processed files, shows the
index status and can reconcile the knowledge base.

Controls:
  Enter      - Ask the typed question
  PgUp/PgDn  - Scroll the answer
  Tab        - Switch between ask and ledger
  r          - Reconcile (ledger pane)
  ctrl+l     - Refresh the ledger
  Esc        - Back to ask
  ctrl+c     - Quit`,
	RunE: runTUI,
}

// runProgram runs the bubbletea program. Tests replace it.
var runProgram = func(ctx context.Context, m tea.Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	app, err := tui.NewApp(&tui.Ports{
		Query:     a.PooledQuery(),
		Ingestion: a.PooledIngestion(),
		Status:    a,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	// Log lines would tear the alternate screen.
	logger.SetOutput(io.Discard)
	defer logger.SetOutput(os.Stderr)

	if err := runProgram(cmd.Context(), app); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
