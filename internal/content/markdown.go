package content

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
)

// markdown re-emits a block as Markdown. Answers keep their inline markup so
// each renderer can decide how to present it.
func (l *loader) markdown(n ast.Node) string {
	switch v := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return l.rawLines(n)
	case *ast.Heading:
		return strings.Repeat("#", v.Level) + " " + l.headingText(v)
	case *ast.FencedCodeBlock:
		return fence(string(v.Language(l.src)), l.codeText(v))
	case *ast.CodeBlock:
		return fence("", l.codeText(v))
	case *ast.List:
		return l.list(v)
	case *ast.Blockquote:
		body := l.children(v, "\n\n")
		lines := strings.Split(body, "\n")
		for i, line := range lines {
			if line == "" {
				lines[i] = ">"
			} else {
				lines[i] = "> " + line
			}
		}
		return strings.Join(lines, "\n")
	case *ast.HTMLBlock:
		out := l.rawLines(v)
		if v.HasClosure() {
			out += "\n" + strings.TrimRight(string(v.ClosureLine.Value(l.src)), "\n")
		}
		return out
	case *ast.ThematicBreak:
		return "---"
	case *east.Table:
		return tableMarkdown(l.table(v))
	}

	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		return l.rawLines(n)
	}
	return l.children(n, "\n\n")
}

func (l *loader) children(n ast.Node, sep string) string {
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if md := l.markdown(c); md != "" {
			parts = append(parts, md)
		}
	}
	return strings.Join(parts, sep)
}

func (l *loader) rawLines(n ast.Node) string {
	lines := n.Lines()
	out := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, strings.TrimRight(string(seg.Value(l.src)), "\n"))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func (l *loader) list(v *ast.List) string {
	sep := "\n"
	if !v.IsTight {
		sep = "\n\n"
	}

	var items []string
	i := 0
	for item := v.FirstChild(); item != nil; item = item.NextSibling() {
		marker := string(v.Marker) + " "
		if v.IsOrdered() {
			marker = fmt.Sprintf("%d%c ", v.Start+i, v.Marker)
		}
		body := l.children(item, sep)
		items = append(items, marker+indentTail(body, len(marker)))
		i++
	}
	return strings.Join(items, sep)
}

// indentTail indents every line but the first.
func indentTail(s string, width int) string {
	pad := strings.Repeat(" ", width)
	lines := strings.Split(s, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = pad + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

func fence(lang, code string) string {
	marker := "```"
	for strings.Contains(code, marker) {
		marker += "`"
	}
	return marker + lang + "\n" + code + "\n" + marker
}

func tableMarkdown(t *Table) string {
	var b strings.Builder
	row := func(cells []string) {
		b.WriteString("|")
		for _, c := range cells {
			b.WriteString(" ")
			b.WriteString(strings.ReplaceAll(c, "|", `\|`))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	row(t.Columns)
	b.WriteString("|")
	for range t.Columns {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, r := range t.Rows {
		row(t.Cells(r))
	}
	return strings.TrimRight(b.String(), "\n")
}
