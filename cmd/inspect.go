package cmd

import (
	"strings"

	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"

	"github.com/conneroisu/cheatsheet/internal/content"
)

var inspectStats bool

var inspectCmd = &cobra.Command{
	Use:   "inspect [topic]",
	Short: "Dump the parsed content model",
	Long: `Pretty-print the loaded document, or one section, as Go values. Useful
for checking how headings, code blocks and tables were split into entries.

Examples:
  cheatsheet inspect                 # Whole document
  cheatsheet inspect security        # One section
  cheatsheet inspect --stats         # Counts only`,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().BoolVar(&inspectStats, "stats", false, "print section, entry, code and table counts only")
	inspectCmd.Flags().String("color", "auto", "colour the dump (auto, always, never)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	doc, _, err := loadDocument(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	store := content.NewStore(doc)
	out := cmd.OutOrStdout()

	pp.ColoringEnabled = colorText(out)

	if inspectStats {
		_, err := pp.Fprintln(out, store.Stats())
		return err
	}

	if len(args) > 0 {
		sec, err := store.FindByTopic(strings.Join(args, " "))
		if err != nil {
			return err
		}
		_, err = pp.Fprintln(out, sec)
		return err
	}

	_, err = pp.Fprintln(out, doc)
	return err
}
