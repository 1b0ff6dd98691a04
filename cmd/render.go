package cmd

import (
	"context"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/conneroisu/cheatsheet/internal/content"
	cserrors "github.com/conneroisu/cheatsheet/internal/errors"
	"github.com/conneroisu/cheatsheet/internal/output"
	"github.com/conneroisu/cheatsheet/internal/renderer"
)

var renderTopic string

var renderCmd = &cobra.Command{
	Use:     "render",
	Aliases: []string{"r"},
	Short:   "Render the cheat sheet",
	Long: `Render the whole cheat sheet, or one topic, as text, HTML, JSON or YAML.
Output is produced in full before anything is written, so a failed render
leaves stdout and --out untouched.

Examples:
  cheatsheet render                              # Plain text to stdout
  cheatsheet render -f html -o site/index.html   # Standalone HTML page
  cheatsheet render -f json --indent 2           # Pretty JSON
  cheatsheet render --topic hooks -f yaml        # One section as YAML`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	addOutputFlags(renderCmd.Flags())
	addRenderFlags(renderCmd.Flags())
	renderCmd.Flags().StringVarP(&renderTopic, "topic", "t", "", "render only the section matching this topic")
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	f, err := renderer.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	doc, _, err := loadDocument(ctx, cmd)
	if err != nil {
		return err
	}

	if renderTopic != "" {
		sec, err := content.NewStore(doc).FindByTopic(renderTopic)
		if err != nil {
			return err
		}
		doc = &content.Document{Title: doc.Title, Sections: []content.Section{*sec}}
	}

	return writeRendered(ctx, cmd.OutOrStdout(), doc, f)
}

// writeRendered renders doc completely, then writes it to the configured
// output.
func writeRendered(ctx context.Context, stdout io.Writer, doc *content.Document, f renderer.Format) error {
	toFile := cfg.Output.Path != ""
	out, err := newEngine("", !toFile && colorText(stdout)).RenderBytes(ctx, doc, f)
	if err != nil {
		return err
	}

	w, path, closeOut, err := outputTarget(stdout)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		_ = closeOut()
		return cserrors.WrapIO(err, cserrors.ErrCodeIO, "writing rendered output")
	}
	if err := closeOut(); err != nil {
		return cserrors.WrapIO(err, cserrors.ErrCodeIO, "closing output file")
	}

	if toFile {
		printer.Success("Wrote %s (%s, %s)", path, f, humanize.Bytes(uint64(len(out))))
	}
	return nil
}

// newEngine builds a renderer from the configuration.
func newEngine(liveReload string, color bool) *renderer.Engine {
	return renderer.NewEngine(renderer.Options{
		Title:      cfg.Render.Title,
		Indent:     cfg.Output.Indent,
		Color:      color,
		Sanitize:   cfg.Render.Sanitize,
		TOC:        cfg.Render.TOC,
		LiveReload: liveReload,
	}, logger)
}

// colorText reports whether text written to w should carry ANSI colour.
func colorText(w io.Writer) bool {
	mode, err := output.ParseColorMode(cfg.Output.Color)
	if err != nil {
		return false
	}
	return output.ResolveColors(mode, w)
}
