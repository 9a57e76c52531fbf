package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"phptdd/config"
	"phptdd/internal/adapter/analyzer"
	"phptdd/internal/adapter/retriever"
	"phptdd/internal/adapter/store"
)

var (
	searchTopK int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Search indexed entities by name",
	Long: `Search the classes, methods and functions of the indexed workspace. Names are
split on namespace separators, camelCase and snake_case, so "cart total" finds
Shop\Cart::getTotal.

Examples:
  phptdd search cart total
  phptdd search TotalPrice --top-k 5 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
}

type searchResult struct {
	Path      string  `json:"path"`
	Kind      string  `json:"kind"`
	Name      string  `json:"name"`
	StartLine int     `json:"start_line"`
	EndLine   int     `json:"end_line"`
	Score     float64 `json:"score"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	query := strings.Join(args, " ")

	dbPath := config.IndexDBPath(GetRootDir())
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("no index found. Run 'phptdd index' first")
	}

	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer st.Close()

	bm25 := retriever.NewBM25Retriever(st, analyzer.NewTokenizer(), cfg.Search.K1, cfg.Search.B, cfg.Search.PathBoostWeight)

	topK := cfg.Search.TopK
	if searchTopK > 0 {
		topK = searchTopK
	}

	hits, err := bm25.Search(query, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	results := make([]searchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, searchResult{
			Path:      h.Doc.Path,
			Kind:      h.Entity.Kind.String(),
			Name:      h.Entity.FullName(),
			StartLine: h.Entity.StartLine,
			EndLine:   h.Entity.EndLine,
			Score:     h.Score,
		})
	}

	out := cmd.OutOrStdout()
	if searchJSON {
		return writeJSON(out, results)
	}
	if len(results) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}
	fmt.Fprintf(out, "Found %d results for: %s\n\n", len(results), query)
	for i, r := range results {
		fmt.Fprintf(out, "[%d] %s %s %s (score: %.2f)\n",
			i+1,
			kindStyle.Sprintf("%-8s", r.Kind),
			nameStyle.Sprint(r.Name),
			lineStyle.Sprintf("%s:L%d-%d", r.Path, r.StartLine, r.EndLine),
			r.Score,
		)
	}
	return nil
}
