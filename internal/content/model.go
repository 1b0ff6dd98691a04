// Package content loads a Markdown question-and-answer cheat sheet into an
// ordered, read-only model and answers lookups against it.
//
// A document is split on headings. The shallowest heading level (below an
// optional lone document title) starts a Section; every deeper heading starts
// an Entry whose question is the heading text. Prose under an entry becomes
// its answer, the first code block its code sample and the first pipe table
// its comparison table. Order always follows the source.
package content

import (
	"regexp"
	"strings"
)

// Document is the parsed cheat sheet.
type Document struct {
	Title       string    `json:"title,omitempty" yaml:"title,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Sections    []Section `json:"sections" yaml:"sections"`
}

// Section is a titled group of entries.
type Section struct {
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Entries     []Entry `json:"entries" yaml:"entries"`
}

// Entry is one question with its answer.
type Entry struct {
	Question string      `json:"question" yaml:"question"`
	Answer   string      `json:"answer" yaml:"answer"`
	Code     *CodeSample `json:"code,omitempty" yaml:"code,omitempty"`
	Table    *Table      `json:"table,omitempty" yaml:"table,omitempty"`
}

// CodeSample is a verbatim, language-tagged snippet.
type CodeSample struct {
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
	Source   string `json:"source" yaml:"source"`
}

// Table keeps header order in Columns; each Row maps a column header to its
// cell text.
type Table struct {
	Columns []string `json:"columns" yaml:"columns"`
	Rows    []Row    `json:"rows" yaml:"rows"`
}

// Row is one table row keyed by column header.
type Row map[string]string

// Cells returns the row's cells in column order.
func (t *Table) Cells(r Row) []string {
	cells := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		cells[i] = r[col]
	}
	return cells
}

// EntryCount returns the number of entries across all sections.
func (d *Document) EntryCount() int {
	n := 0
	for _, s := range d.Sections {
		n += len(s.Entries)
	}
	return n
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a heading into an anchor id.
func Slug(s string) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(s), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "section"
	}
	return slug
}

// Anchor returns the section's HTML anchor.
func (s *Section) Anchor() string {
	return Slug(s.Title)
}
