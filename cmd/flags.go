package cmd

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	cserrors "github.com/conneroisu/cheatsheet/internal/errors"
	"github.com/conneroisu/cheatsheet/internal/renderer"
)

// Flag groups shared by several commands. Values land in the configuration
// through flagBindings, so commands read cfg rather than these flag sets.

func addOutputFlags(fs *pflag.FlagSet) {
	names := make([]string, 0, len(renderer.Formats()))
	for _, f := range renderer.Formats() {
		names = append(names, string(f))
	}
	fs.StringP("format", "f", "text", "output format ("+strings.Join(names, ", ")+")")
	fs.StringP("out", "o", "", "write output to this file instead of stdout")
	fs.Int("indent", 0, "JSON indent width (0 for compact)")
	fs.String("color", "auto", "colour text output (auto, always, never)")
}

func addRenderFlags(fs *pflag.FlagSet) {
	fs.String("title", "", "override the document title")
	fs.Bool("toc", true, "include a table of contents in HTML output")
	fs.Bool("sanitize", true, "sanitise HTML rendered from answers")
}

func addServerFlags(fs *pflag.FlagSet) {
	fs.IntP("port", "p", 8080, "port to serve on")
	fs.String("host", "localhost", "host to bind to")
	fs.Bool("open", false, "open the preview in a browser")
}

func addWatchFlags(fs *pflag.FlagSet) {
	fs.Duration("debounce", 300*time.Millisecond, "delay before reacting to a burst of changes")
}

// outputTarget opens the configured output file, or stdout when none is set.
// The returned function closes the file.
func outputTarget(stdout io.Writer) (io.Writer, string, func() error, error) {
	path := cfg.Output.Path
	if path == "" {
		return stdout, "", func() error { return nil }, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, path, nil, cserrors.WrapIO(err, cserrors.ErrCodeIO, "creating output directory")
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, path, nil, cserrors.WrapIO(err, cserrors.ErrCodeIO, "creating output file")
	}
	return f, path, f.Close, nil
}
