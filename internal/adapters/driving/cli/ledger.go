package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ledgerJSON bool

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "List processed files",
	Long:  `Lists the knowledge-base files recorded as processed, in sorted order.`,
	Args:  cobra.NoArgs,
	RunE:  runLedger,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	ledgerCmd.Flags().BoolVar(&ledgerJSON, "json", false, "output as JSON")
	statusCmd.Flags().BoolVar(&ledgerJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(statusCmd)
}

func runLedger(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	files, err := a.Ingestion.Processed(cmd.Context())
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}

	if ledgerJSON {
		if files == nil {
			files = []string{}
		}
		return printJSON(cmd, files)
	}
	if len(files) == 0 {
		cmd.Println("No files processed yet.")
		return nil
	}
	for _, f := range files {
		cmd.Println(f)
	}
	return nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("read status: %w", err)
	}

	if ledgerJSON {
		return printJSON(cmd, st)
	}
	sty := stylesFor(cmd.OutOrStdout())
	ready := sty.Warning.Render("not initialized")
	if st.Ready {
		ready = sty.Success.Render("ready")
	}
	cmd.Printf("Index:           %s\n", ready)
	cmd.Printf("Chunks:          %d\n", st.Chunks)
	cmd.Printf("Processed files: %d\n", st.ProcessedFiles)
	cmd.Printf("Vector store:    %s\n", a.Settings.VectorStore.Kind)
	return nil
}
