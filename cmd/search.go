package cmd

import (
	"encoding/json"
	"strings"

	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"

	"github.com/conneroisu/cheatsheet/internal/content"
	"github.com/conneroisu/cheatsheet/internal/output"
)

var (
	searchJSON  bool
	searchLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search <words...>",
	Short: "Find entries by keyword",
	Long: `Find entries whose question, answer, code or table contain every word of
the query. A query word matches any word it is a prefix of, ignoring case.
Results are listed in document order.

Examples:
  cheatsheet search memo              # useMemo, React.memo, memoization...
  cheatsheet search context provider  # Both words must appear
  cheatsheet search xss --json        # Full entries as JSON`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output matching entries as JSON")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "show at most this many results (0 for all)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	doc, _, err := loadDocument(cmd.Context(), cmd)
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	hits := content.NewStore(doc).Search(query)
	total := len(hits)
	if searchLimit > 0 && len(hits) > searchLimit {
		hits = hits[:searchLimit]
	}

	if searchJSON {
		if hits == nil {
			hits = []content.Hit{}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(hits)
	}

	if total == 0 {
		printer.Warning("No entries match %q", query)
		return nil
	}

	table := output.NewTable(cmd.OutOrStdout(), []string{"Section", "Question"})
	for _, h := range hits {
		table.AddRow(h.Section, printer.Bold(h.Entry.Question))
	}
	if err := table.Render(); err != nil {
		return err
	}

	if len(hits) < total {
		printer.Info("Showing %d of %s", len(hits), english.Plural(total, "match", "matches"))
	} else {
		printer.Info("%s for %q", english.Plural(total, "match", "matches"), query)
	}
	return nil
}
