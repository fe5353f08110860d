package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

var ingestJSON bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Index knowledge-base PDFs",
	Long: `Loads, splits and indexes the named PDFs from the knowledge-base folder.
Files already in the ledger are skipped. With no arguments every file not yet
in the ledger is ingested.`,
	RunE: runIngest,
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Index every knowledge-base PDF missing from the ledger",
	Long: `Compares the knowledge-base folder with the ledger of processed files and
ingests the difference. 'askdocs serve' runs this at startup.`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the report as JSON")
	reconcileCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(reconcileCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return runReconcile(cmd, nil)
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	// Accept paths into the folder as well as bare names.
	names := make([]string, len(args))
	for i, arg := range args {
		names[i] = filepath.Base(arg)
	}

	report, err := a.Ingestion.Ingest(cmd.Context(), names)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	return printReport(cmd, report)
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Reconcile(cmd.Context())
	if err != nil {
		return err
	}
	return printReport(cmd, report)
}

func printReport(cmd *cobra.Command, report *domain.IngestionReport) error {
	if ingestJSON {
		if err := printJSON(cmd, report); err != nil {
			return err
		}
	} else {
		st := stylesFor(cmd.OutOrStdout())
		for _, name := range report.Succeeded {
			cmd.Printf("%s %s (%d chunks)\n", st.Success.Render("indexed"), name, report.ChunksPerFile[name])
		}
		for _, name := range report.Skipped {
			cmd.Printf("%s %s (already processed)\n", st.Muted.Render("skipped"), name)
		}
		for _, f := range report.Failed {
			cmd.Printf("%s  %s: %s\n", st.Error.Render("failed"), f.File, f.Err)
		}
		if len(report.Succeeded)+len(report.Skipped)+len(report.Failed) == 0 {
			cmd.Println("Nothing to ingest.")
		} else {
			cmd.Printf("\n%d indexed, %d skipped, %d failed, %d chunks\n",
				len(report.Succeeded), len(report.Skipped), len(report.Failed), report.Chunks)
		}
	}

	if report.HasFailures() {
		return fmt.Errorf("%d file(s) failed to ingest", len(report.Failed))
	}
	return nil
}
