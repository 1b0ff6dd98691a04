// Package renderer turns a parsed cheat sheet into an output view.
//
// Every format is a pure transformation of a content.Document: plain text
// for terminals, a standalone HTML page built from templ components, and
// JSON or YAML for other tools. The Engine renders into a buffer and only
// copies it to the caller's writer once the whole document has rendered, so
// a failed render never leaves partial output behind.
package renderer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/conneroisu/cheatsheet/internal/content"
	cserrors "github.com/conneroisu/cheatsheet/internal/errors"
	"github.com/conneroisu/cheatsheet/internal/logging"
)

// Format is a recognised render target.
type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var formatAliases = map[string]Format{
	"text":       FormatText,
	"plain":      FormatText,
	"plain-text": FormatText,
	"plaintext":  FormatText,
	"txt":        FormatText,
	"html":       FormatHTML,
	"htm":        FormatHTML,
	"json":       FormatJSON,
	"yaml":       FormatYAML,
	"yml":        FormatYAML,
}

// Formats lists the canonical format names.
func Formats() []Format {
	return []Format{FormatText, FormatHTML, FormatJSON, FormatYAML}
}

// ParseFormat resolves a format name or alias, ignoring case.
func ParseFormat(name string) (Format, error) {
	f, ok := formatAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", cserrors.UnsupportedFormat(name)
	}
	return f, nil
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension returns the usual file extension for f, with the dot.
func (f Format) Extension() string {
	switch f {
	case FormatHTML:
		return ".html"
	case FormatJSON:
		return ".json"
	case FormatYAML:
		return ".yaml"
	default:
		return ".txt"
	}
}

// Options tune individual formats. Zero values give compact JSON, uncoloured
// text and an unsanitised HTML page without a table of contents.
type Options struct {
	// Title overrides the document title in HTML and text output.
	Title string
	// Indent is the JSON indent width; 0 renders compact JSON.
	Indent int
	// Color enables ANSI colour in text output.
	Color bool
	// Sanitize passes rendered answers through an HTML sanitiser.
	Sanitize bool
	// TOC adds a table of contents to the HTML page.
	TOC bool
	// LiveReload is the WebSocket path the HTML page connects to for reload
	// messages. Empty disables the script.
	LiveReload string
}

// Engine renders documents in any supported format.
type Engine struct {
	opts   Options
	logger logging.Logger
	html   *htmlRenderer
}

// NewEngine creates an Engine. A nil logger discards log output.
func NewEngine(opts Options, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Engine{
		opts:   opts,
		logger: logger.WithComponent("renderer"),
		html:   newHTMLRenderer(opts),
	}
}

// Options returns the engine's options.
func (e *Engine) Options() Options {
	return e.opts
}

// Render writes doc to w in the named format. On error nothing is written.
func (e *Engine) Render(ctx context.Context, w io.Writer, doc *content.Document, format string) error {
	f, err := ParseFormat(format)
	if err != nil {
		return err
	}

	out, err := e.RenderBytes(ctx, doc, f)
	if err != nil {
		return err
	}

	if _, err := w.Write(out); err != nil {
		return cserrors.WrapIO(err, cserrors.ErrCodeIO, "writing rendered output")
	}
	return nil
}

// RenderSections renders a subset of sections as a document of their own.
func (e *Engine) RenderSections(ctx context.Context, w io.Writer, sections []content.Section, format string) error {
	if sections == nil {
		sections = []content.Section{}
	}
	return e.Render(ctx, w, &content.Document{Sections: sections}, format)
}

// RenderBytes renders doc and returns the complete output.
func (e *Engine) RenderBytes(ctx context.Context, doc *content.Document, f Format) ([]byte, error) {
	if doc == nil {
		return nil, cserrors.NewRenderError(cserrors.ErrCodeRenderFailed, "nothing to render", nil)
	}

	op := logging.StartOperation(e.logger, "render")
	var buf bytes.Buffer
	var err error

	switch f {
	case FormatText:
		err = renderText(&buf, doc, e.opts)
	case FormatHTML:
		err = e.html.page(doc).Render(ctx, &buf)
	case FormatJSON:
		err = renderJSON(&buf, doc, e.opts.Indent)
	case FormatYAML:
		err = renderYAML(&buf, doc)
	default:
		return nil, cserrors.UnsupportedFormat(string(f))
	}

	if err != nil {
		op.EndWithError(ctx, err)
		var ce *cserrors.CheatsheetError
		if errors.As(err, &ce) {
			return nil, err
		}
		return nil, cserrors.NewRenderError(cserrors.ErrCodeRenderFailed, "rendering "+string(f), err)
	}

	op.End(ctx, "format", string(f), "sections", len(doc.Sections), "bytes", buf.Len())
	return buf.Bytes(), nil
}
