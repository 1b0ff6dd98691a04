package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/conneroisu/cheatsheet/internal/content"
)

const defaultPageTitle = "Cheat Sheet"

type htmlRenderer struct {
	opts   Options
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func newHTMLRenderer(opts Options) *htmlRenderer {
	h := &htmlRenderer{
		opts: opts,
		md:   goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
	if opts.Sanitize {
		h.policy = bluemonday.UGCPolicy()
		h.policy.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w+-]+$`)).OnElements("code")
	}
	return h
}

// markdown converts answer Markdown to HTML.
func (h *htmlRenderer) markdown(src string) (string, error) {
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	out := buf.String()
	if h.policy != nil {
		out = h.policy.Sanitize(out)
	}
	return strings.TrimSpace(out), nil
}

// inline converts a single line of Markdown without the paragraph wrapper.
func (h *htmlRenderer) inline(src string) (string, error) {
	out, err := h.markdown(src)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(out, "<p>") && strings.HasSuffix(out, "</p>") && strings.Count(out, "<p>") == 1 {
		out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")
	}
	return out, nil
}

// heading converts question text to inline HTML. Text that Markdown would
// read as a block, such as "1. Setup", is escaped as it is.
func (h *htmlRenderer) heading(src string) (string, error) {
	out, err := h.markdown(src)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(out, "<p>") || !strings.HasSuffix(out, "</p>") || strings.Count(out, "<p>") != 1 {
		return templ.EscapeString(src), nil
	}
	return strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>"), nil
}

func (h *htmlRenderer) title(doc *content.Document) string {
	switch {
	case h.opts.Title != "":
		return h.opts.Title
	case doc.Title != "":
		return doc.Title
	default:
		return defaultPageTitle
	}
}

// pageView is the page with every Markdown fragment already converted to
// HTML, so the components only lay it out.
type pageView struct {
	Title       string
	Description string
	TOC         bool
	Sections    []sectionView
	LiveReload  string
}

type sectionView struct {
	Anchor      string
	Title       string
	Description string
	Entries     []entryView
}

type entryView struct {
	Question string
	Answer   string
	Code     *content.CodeSample
	Table    *tableView
}

type tableView struct {
	Columns []string
	Rows    [][]string
}

// page renders doc as a standalone HTML page.
func (h *htmlRenderer) page(doc *content.Document) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		v, err := h.view(doc)
		if err != nil {
			return err
		}
		return cheatSheetPage(v).Render(ctx, w)
	})
}

func (h *htmlRenderer) view(doc *content.Document) (pageView, error) {
	v := pageView{
		Title:    h.title(doc),
		TOC:      h.opts.TOC,
		Sections: make([]sectionView, 0, len(doc.Sections)),
	}

	var err error
	if v.Description, err = h.markdown(doc.Description); err != nil {
		return v, err
	}
	if h.opts.LiveReload != "" {
		if v.LiveReload, err = liveReloadScript(h.opts.LiveReload); err != nil {
			return v, err
		}
	}

	anchors := anchorsFor(doc.Sections)
	for i, sec := range doc.Sections {
		sv := sectionView{Anchor: anchors[i], Title: sec.Title, Entries: make([]entryView, 0, len(sec.Entries))}
		if sv.Description, err = h.markdown(sec.Description); err != nil {
			return v, err
		}
		for _, e := range sec.Entries {
			ev, err := h.entryView(e)
			if err != nil {
				return v, err
			}
			sv.Entries = append(sv.Entries, ev)
		}
		v.Sections = append(v.Sections, sv)
	}
	return v, nil
}

func (h *htmlRenderer) entryView(e content.Entry) (entryView, error) {
	ev := entryView{Code: e.Code}

	var err error
	if ev.Question, err = h.heading(e.Question); err != nil {
		return ev, err
	}
	if ev.Answer, err = h.markdown(e.Answer); err != nil {
		return ev, err
	}
	if e.Table == nil {
		return ev, nil
	}

	tv := &tableView{Columns: make([]string, 0, len(e.Table.Columns))}
	for _, col := range e.Table.Columns {
		cell, err := h.inline(col)
		if err != nil {
			return ev, err
		}
		tv.Columns = append(tv.Columns, cell)
	}
	for _, r := range e.Table.Rows {
		cells := e.Table.Cells(r)
		row := make([]string, 0, len(cells))
		for _, text := range cells {
			cell, err := h.inline(text)
			if err != nil {
				return ev, err
			}
			row = append(row, cell)
		}
		tv.Rows = append(tv.Rows, row)
	}
	ev.Table = tv
	return ev, nil
}

// anchorsFor returns one unique anchor per section.
func anchorsFor(sections []content.Section) []string {
	seen := make(map[string]int, len(sections))
	anchors := make([]string, len(sections))
	for i := range sections {
		a := sections[i].Anchor()
		seen[a]++
		if n := seen[a]; n > 1 {
			a = fmt.Sprintf("%s-%d", a, n)
		}
		anchors[i] = a
	}
	return anchors
}

// liveReloadScript returns the script element that reloads the page when
// the server says so. path is embedded as a JSON string.
func liveReloadScript(path string) (string, error) {
	quoted, err := json.Marshal(path)
	if err != nil {
		return "", err
	}
	return "<script>\n" + strings.Replace(reloadJS, "WS_PATH", string(quoted), 1) + "</script>", nil
}

const reloadJS = `(function () {
  var scheme = location.protocol === "https:" ? "wss://" : "ws://";
  var overlay;
  function connect() {
    var ws = new WebSocket(scheme + location.host + WS_PATH);
    ws.onmessage = function (event) {
      var msg = JSON.parse(event.data);
      if (msg.type === "reload") {
        location.reload();
      } else if (msg.type === "error") {
        if (!overlay) {
          overlay = document.createElement("pre");
          overlay.className = "reload-error";
          document.body.appendChild(overlay);
        }
        overlay.textContent = msg.message;
      }
    };
    ws.onclose = function () { setTimeout(connect, 1000); };
  }
  connect();
})();
`

const styleElement = "<style>" + stylesheet + "</style>"

const stylesheet = `
body { font-family: system-ui, sans-serif; line-height: 1.5; margin: 0; background: #f7f7f9; color: #222; }
main.cheatsheet { max-width: 56rem; margin: 0 auto; padding: 2rem 1rem; }
header h1 { margin-top: 0; }
nav.toc ol { columns: 2; }
nav.toc .count { color: #888; font-size: 0.85em; }
section.section { margin-top: 2.5rem; }
section.section h2 a { color: inherit; text-decoration: none; }
article.entry { background: #fff; border-radius: 6px; padding: 1rem 1.25rem; margin: 1rem 0; box-shadow: 0 1px 2px rgba(0,0,0,.08); }
h3.question { margin: 0 0 .5rem; color: #0b5cad; }
pre.code { background: #1e1e2e; color: #e0e0e0; padding: .75rem 1rem; border-radius: 4px; overflow-x: auto; }
table.comparison { border-collapse: collapse; width: 100%; margin-top: .75rem; }
table.comparison th, table.comparison td { border: 1px solid #ddd; padding: .4rem .6rem; text-align: left; }
table.comparison th { background: #f0f2f5; }
pre.reload-error { position: fixed; inset: auto 1rem 1rem 1rem; background: #b00020; color: #fff; padding: 1rem; border-radius: 4px; white-space: pre-wrap; }
`
