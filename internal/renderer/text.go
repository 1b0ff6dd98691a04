package renderer

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/conneroisu/cheatsheet/internal/content"
)

const textIndent = "   "

type palette struct {
	title    *color.Color
	section  *color.Color
	question *color.Color
	label    *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		title:    color.New(color.FgMagenta, color.Bold),
		section:  color.New(color.FgCyan, color.Bold),
		question: color.New(color.FgYellow, color.Bold),
		label:    color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.title, p.section, p.question, p.label} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// textWriter keeps the first write error so the render loop stays linear.
type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func renderText(w io.Writer, doc *content.Document, opts Options) error {
	p := newPalette(opts.Color)
	out := &textWriter{w: w}

	title := doc.Title
	if opts.Title != "" {
		title = opts.Title
	}
	if title != "" {
		out.printf("%s\n%s\n\n", p.title.Sprint(title), strings.Repeat("=", utf8.RuneCountInString(title)))
	}
	if doc.Description != "" {
		out.printf("%s\n\n", doc.Description)
	}

	for i, sec := range doc.Sections {
		if i > 0 {
			out.printf("\n")
		}
		out.printf("%s\n%s\n\n", p.section.Sprint(sec.Title), strings.Repeat("-", utf8.RuneCountInString(sec.Title)))
		if sec.Description != "" {
			out.printf("%s\n\n", sec.Description)
		}
		for _, e := range sec.Entries {
			writeTextEntry(out, p, e)
		}
	}
	return out.err
}

func writeTextEntry(w *textWriter, p palette, e content.Entry) {
	w.printf("%s %s\n", p.label.Sprint("Q:"), p.question.Sprint(e.Question))
	if e.Answer != "" {
		w.printf("%s %s\n", p.label.Sprint("A:"), indent(e.Answer, textIndent))
	}

	if e.Code != nil {
		lang := e.Code.Language
		if lang == "" {
			lang = "code"
		}
		w.printf("\n%s%s\n", textIndent, p.label.Sprintf("[%s]", lang))
		w.printf("%s%s\n", textIndent, indent(e.Code.Source, textIndent))
	}

	if e.Table != nil && len(e.Table.Columns) > 0 {
		var buf bytes.Buffer
		if err := writeTable(&buf, e.Table); err != nil {
			if w.err == nil {
				w.err = err
			}
			return
		}
		w.printf("\n%s%s\n", textIndent, indent(strings.TrimRight(buf.String(), "\n"), textIndent))
	}
	w.printf("\n")
}

// writeTable draws t as a bordered grid with headers kept verbatim.
func writeTable(w io.Writer, t *content.Table) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.Off},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
	)
	table.Header(t.Columns)

	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, t.Cells(r))
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// indent prefixes every line after the first.
func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = prefix + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}
