package content

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	cserrors "github.com/conneroisu/cheatsheet/internal/errors"
)

var markdown = goldmark.New(
	goldmark.WithParser(newParser()),
	goldmark.WithExtensions(extension.Table, extension.Strikethrough),
)

// LoadFile reads path and parses it with Load.
func LoadFile(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cserrors.NewIOError(cserrors.ErrCodeFileNotFound, "source not found: "+path, err)
		}
		return nil, cserrors.WrapIO(err, cserrors.ErrCodeIO, "reading "+path)
	}

	doc, err := Load(raw)
	if err != nil {
		return nil, cserrors.WithFile(err, path)
	}
	return doc, nil
}

// Load parses raw Markdown into a Document. It returns a MalformedDocument
// error naming the offending line when the heading structure cannot be
// mapped onto sections and entries.
func Load(raw []byte) (*Document, error) {
	src := bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))

	pc := parser.NewContext()
	root := markdown.Parser().Parse(text.NewReader(src), parser.WithContext(pc))
	l := &loader{src: src, lines: newLineIndex(src), marks: marksOf(pc)}
	return l.build(root)
}

type loader struct {
	src   []byte
	lines lineIndex
	marks *blockMarks
}

// headingLevels picks the title level (0 when there is no title) and the
// section level from the top-level headings.
func headingLevels(headings []*ast.Heading) (titleLevel, sectionLevel int) {
	counts := make(map[int]int)
	for _, h := range headings {
		counts[h.Level]++
	}
	levels := make([]int, 0, len(counts))
	for lvl := range counts {
		levels = append(levels, lvl)
	}
	sort.Ints(levels)

	if len(levels) >= 3 && counts[levels[0]] == 1 && headings[0].Level == levels[0] {
		return levels[0], levels[1]
	}
	return 0, levels[0]
}

func (l *loader) build(root ast.Node) (*Document, error) {
	// An open fence runs to the end of the document, so only the last
	// top-level block can be one.
	if fc, ok := root.LastChild().(*ast.FencedCodeBlock); ok && !l.marks.closed[fc] {
		return nil, cserrors.MalformedDocument(l.lineOf(fc), "unterminated code fence")
	}

	var headings []*ast.Heading
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			headings = append(headings, h)
		}
	}
	if len(headings) == 0 {
		return nil, cserrors.MalformedDocument(1, "missing section heading")
	}
	titleLevel, sectionLevel := headingLevels(headings)

	doc := &Document{Sections: []Section{}}
	var (
		hasTitle bool
		section  *Section
		entry    *Entry
		parts    []string
	)

	flushEntry := func() {
		if entry == nil {
			return
		}
		entry.Answer = strings.Join(parts, "\n\n")
		section.Entries = append(section.Entries, *entry)
		entry, parts = nil, nil
	}
	flushSection := func() {
		flushEntry()
		if section == nil {
			if hasTitle {
				doc.Description = strings.Join(parts, "\n\n")
			}
			parts = nil
			return
		}
		if len(section.Entries) == 0 {
			section.Description = strings.Join(parts, "\n\n")
		}
		doc.Sections = append(doc.Sections, *section)
		section, parts = nil, nil
	}

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			title := l.headingText(h)
			if title == "" {
				return nil, cserrors.MalformedDocument(l.lineOf(h), "empty heading")
			}
			switch {
			case titleLevel > 0 && h.Level == titleLevel:
				doc.Title = title
				hasTitle = true
			case h.Level == sectionLevel:
				flushSection()
				section = &Section{Title: title, Entries: []Entry{}}
			default:
				if section == nil {
					return nil, cserrors.MalformedDocument(l.lineOf(h),
						fmt.Sprintf("question %q appears before the first section heading", title))
				}
				if entry == nil && len(parts) > 0 {
					section.Description = strings.Join(parts, "\n\n")
					parts = nil
				}
				flushEntry()
				entry = &Entry{Question: title}
			}
			continue
		}

		if section == nil && !hasTitle {
			return nil, cserrors.MalformedDocument(l.lineOf(n), "content before the first section heading")
		}

		if entry != nil {
			switch v := n.(type) {
			case *ast.FencedCodeBlock:
				if entry.Code == nil {
					entry.Code = &CodeSample{Language: string(v.Language(l.src)), Source: l.codeText(v)}
					continue
				}
			case *ast.CodeBlock:
				if entry.Code == nil {
					entry.Code = &CodeSample{Source: l.codeText(v)}
					continue
				}
			case *east.Table:
				if entry.Table == nil {
					entry.Table = l.table(v)
					continue
				}
			}
		}

		if md := l.markdown(n); md != "" {
			parts = append(parts, md)
		}
	}
	flushSection()

	if len(doc.Sections) == 0 {
		return nil, cserrors.MalformedDocument(l.lineOf(headings[0]), "missing section heading")
	}
	return doc, nil
}

func (l *loader) headingText(h *ast.Heading) string {
	lines := h.Lines()
	parts := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		parts = append(parts, strings.TrimSpace(string(seg.Value(l.src))))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func (l *loader) codeText(n ast.Node) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(l.src))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (l *loader) table(t *east.Table) *Table {
	tbl := &Table{Columns: []string{}, Rows: []Row{}}
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		cells := l.cells(row)
		switch row.(type) {
		case *east.TableHeader:
			tbl.Columns = uniqueColumns(cells)
		case *east.TableRow:
			r := make(Row, len(tbl.Columns))
			for i, col := range tbl.Columns {
				if i < len(cells) {
					r[col] = cells[i]
				} else {
					r[col] = ""
				}
			}
			tbl.Rows = append(tbl.Rows, r)
		}
	}
	return tbl
}

func (l *loader) cells(row ast.Node) []string {
	var cells []string
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		cells = append(cells, l.cellText(c))
	}
	return cells
}

func (l *loader) cellText(cell ast.Node) string {
	if lines := cell.Lines(); lines.Len() > 0 {
		var b strings.Builder
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.Write(seg.Value(l.src))
		}
		return strings.TrimSpace(strings.ReplaceAll(b.String(), `\|`, "|"))
	}
	var b bytes.Buffer
	l.inlineText(cell, &b)
	return strings.TrimSpace(b.String())
}

func (l *loader) inlineText(n ast.Node, b *bytes.Buffer) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(l.src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		default:
			l.inlineText(c, b)
		}
	}
}

// uniqueColumns makes header cells usable as map keys. A repeated name gets
// the first free "name (n)" suffix, counting names written in the header.
func uniqueColumns(cells []string) []string {
	cols := make([]string, len(cells))
	taken := make(map[string]bool, len(cells))
	first := make([]bool, len(cells))
	for i, c := range cells {
		if c == "" {
			c = fmt.Sprintf("Column %d", i+1)
		}
		cols[i] = c
		if !taken[c] {
			taken[c], first[i] = true, true
		}
	}
	for i, c := range cols {
		if first[i] {
			continue
		}
		name := c
		for n := 2; taken[name]; n++ {
			name = fmt.Sprintf("%s (%d)", c, n)
		}
		taken[name] = true
		cols[i] = name
	}
	return cols
}

// offsetOf returns the byte offset of the first source text belonging to n,
// or -1 when n carries none.
func (l *loader) offsetOf(n ast.Node) int {
	if off, ok := l.marks.start[n]; ok {
		return off
	}
	if t, ok := n.(*ast.Text); ok {
		return t.Segment.Start
	}
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		return n.Lines().At(0).Start
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if off := l.offsetOf(c); off >= 0 {
			return off
		}
	}
	return -1
}

func (l *loader) lineOf(n ast.Node) int {
	off := l.offsetOf(n)
	if off < 0 {
		return 1
	}
	return l.lines.lineOf(off)
}

// lineIndex holds the starting offset of every line.
type lineIndex []int

func newLineIndex(src []byte) lineIndex {
	idx := lineIndex{0}
	for i, b := range src {
		if b == '\n' && i+1 < len(src) {
			idx = append(idx, i+1)
		}
	}
	return idx
}

// lineOf returns the 1-based line containing offset.
func (li lineIndex) lineOf(offset int) int {
	return sort.Search(len(li), func(i int) bool { return li[i] > offset })
}
