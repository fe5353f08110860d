package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/chat"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/askdocs/internal/core/domain"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the knowledge base",
	Long: `Retrieves the passages most relevant to the question, asks the language
model to answer from them, and prints the answer with its sources.

Nothing is ingested; run 'askdocs ingest' first if the index is empty.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.Query.Answer(cmd.Context(), question)
	if err != nil {
		if errors.Is(err, domain.ErrNotReady) {
			return errors.New("vector store is not initialized: run 'askdocs ingest' first")
		}
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		if result.Sources == nil {
			result.Sources = []domain.Citation{}
		}
		return printJSON(cmd, result)
	}
	printAnswer(cmd, stylesFor(cmd.OutOrStdout()), result)
	return nil
}

func printAnswer(cmd *cobra.Command, st *styles.Styles, result *domain.QueryResult) {
	cmd.Println(st.Title.Render("Answer"))
	cmd.Println(st.Answer.Render(chat.CleanAnswer(result.Answer)))
	cmd.Println()

	if len(result.Sources) == 0 {
		cmd.Println(st.Muted.Render("No sources matched."))
		return
	}
	cmd.Println(st.Subtitle.Render("Sources"))
	for i, s := range result.Sources {
		cmd.Printf("  [%d] %s %s\n", i+1, s.Source, st.Muted.Render("(page "+s.Page+")"))
	}
}
