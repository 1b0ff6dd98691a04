package cmd

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/conneroisu/cheatsheet/internal/content"
	"github.com/conneroisu/cheatsheet/internal/output"
)

var topicsJSON bool

var topicsCmd = &cobra.Command{
	Use:     "topics",
	Aliases: []string{"ls", "list"},
	Short:   "List the cheat sheet sections",
	Long: `List every section in document order with its entry, code sample and
table counts.

Examples:
  cheatsheet topics            # Table of sections
  cheatsheet topics --json     # Machine-readable listing`,
	Args: cobra.NoArgs,
	RunE: runTopics,
}

func init() {
	rootCmd.AddCommand(topicsCmd)

	topicsCmd.Flags().BoolVar(&topicsJSON, "json", false, "output as JSON")
}

// topicRow is one section in the listing.
type topicRow struct {
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Anchor  string `json:"anchor"`
	Entries int    `json:"entries"`
	Code    int    `json:"code_samples"`
	Tables  int    `json:"tables"`
}

func topicRows(doc *content.Document) []topicRow {
	rows := make([]topicRow, 0, len(doc.Sections))
	for i := range doc.Sections {
		sec := &doc.Sections[i]
		row := topicRow{Index: i + 1, Title: sec.Title, Anchor: sec.Anchor(), Entries: len(sec.Entries)}
		for _, e := range sec.Entries {
			if e.Code != nil {
				row.Code++
			}
			if e.Table != nil {
				row.Tables++
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func runTopics(cmd *cobra.Command, args []string) error {
	doc, path, err := loadDocument(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	rows := topicRows(doc)

	if topicsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	title := doc.Title
	if title == "" {
		title = "Topics"
	}
	printer.Header(title)

	table := output.NewTable(cmd.OutOrStdout(), []string{"#", "Section", "Entries", "Code", "Tables"})
	for _, r := range rows {
		table.AddRow(strconv.Itoa(r.Index), printer.Bold(r.Title),
			humanize.Comma(int64(r.Entries)), humanize.Comma(int64(r.Code)), humanize.Comma(int64(r.Tables)))
	}
	if err := table.Render(); err != nil {
		return err
	}

	printer.Info("%s sections, %s entries from %s", humanize.Comma(int64(len(rows))),
		humanize.Comma(int64(doc.EntryCount())), describeSource(path))
	return nil
}

// describeSource names the source with its size and age when it is a file.
func describeSource(path string) string {
	if path == "" {
		return "the bundled sheet (" + humanize.Bytes(uint64(len(content.Bundled()))) + ")"
	}
	info, err := os.Stat(path)
	if err != nil {
		return path
	}
	return path + " (" + humanize.Bytes(uint64(info.Size())) + ", modified " + humanize.Time(info.ModTime()) + ")"
}
