package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/cheatsheet/internal/content"
	"github.com/conneroisu/cheatsheet/internal/renderer"
)

var findCmd = &cobra.Command{
	Use:   "find <topic>",
	Short: "Show the section matching a topic",
	Long: `Show one section. The topic matches a section title exactly, ignoring
case, or failing that as a prefix of the title; the first match in document
order wins.

Examples:
  cheatsheet find performance          # "Performance Optimization"
  cheatsheet find state management     # Words are joined with spaces
  cheatsheet find hooks -f json        # As JSON`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFind,
}

func init() {
	rootCmd.AddCommand(findCmd)

	addOutputFlags(findCmd.Flags())
	addRenderFlags(findCmd.Flags())
}

func runFind(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	f, err := renderer.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	doc, _, err := loadDocument(ctx, cmd)
	if err != nil {
		return err
	}

	topic := strings.Join(args, " ")
	sec, err := content.NewStore(doc).FindByTopic(topic)
	if err != nil {
		return err
	}
	logger.Debug(ctx, "Topic matched", "topic", topic, "section", sec.Title)

	return writeRendered(ctx, cmd.OutOrStdout(), &content.Document{Sections: []content.Section{*sec}}, f)
}
