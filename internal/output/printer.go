// Package output formats CLI status lines and listings.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	cserrors "github.com/conneroisu/cheatsheet/internal/errors"
)

// ColorMode represents color output mode
type ColorMode int

const (
	// ColorAuto enables colors based on environment (default)
	ColorAuto ColorMode = iota
	// ColorAlways forces colors on
	ColorAlways
	// ColorNever forces colors off
	ColorNever
)

// ParseColorMode parses auto, always or never.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, cserrors.NewConfigError(cserrors.ErrCodeConfigInvalid,
			fmt.Sprintf("invalid color mode %q: must be auto, always, or never", s))
	}
}

// ResolveColors decides whether to colour output written to w.
func ResolveColors(mode ColorMode, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return false
		}
		if os.Getenv("TERM") == "dumb" {
			return false
		}
		f, ok := w.(*os.File)
		if !ok {
			return false
		}
		info, err := f.Stat()
		return err == nil && info.Mode()&os.ModeCharDevice != 0
	}
}

// Printer writes status messages. Results go to out, diagnostics to err.
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
	quiet     bool
}

// NewPrinter creates a printer over out and err.
func NewPrinter(out, err io.Writer, useColors, quiet bool) *Printer {
	return &Printer{out: out, err: err, useColors: useColors, quiet: quiet}
}

// Colors reports whether the printer colours its output.
func (p *Printer) Colors() bool {
	return p.useColors
}

// Out returns the printer's result writer.
func (p *Printer) Out() io.Writer {
	return p.out
}

func (p *Printer) colored(w io.Writer, attr color.Attribute, prefix, plain, format string, args ...interface{}) {
	if p.useColors {
		c := color.New(attr)
		c.EnableColor()
		c.Fprintf(w, prefix+format+"\n", args...)
		return
	}
	fmt.Fprintf(w, plain+format+"\n", args...)
}

// Info prints an informational message
func (p *Printer) Info(format string, args ...interface{}) {
	if p.quiet {
		return
	}
	p.colored(p.err, color.FgCyan, "", "", format, args...)
}

// Success prints a success message
func (p *Printer) Success(format string, args ...interface{}) {
	if p.quiet {
		return
	}
	p.colored(p.err, color.FgGreen, "✓ ", "[OK] ", format, args...)
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...interface{}) {
	if p.quiet {
		return
	}
	p.colored(p.err, color.FgYellow, "⚠ ", "[WARN] ", format, args...)
}

// Error prints an error message. Errors are printed even in quiet mode.
func (p *Printer) Error(format string, args ...interface{}) {
	p.colored(p.err, color.FgRed, "✗ ", "[ERROR] ", format, args...)
}

// Print prints a plain line to the result writer.
func (p *Printer) Print(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Header prints a section header to the result writer.
func (p *Printer) Header(title string) {
	if p.quiet {
		return
	}
	if p.useColors {
		c := color.New(color.Bold)
		c.EnableColor()
		c.Fprintf(p.out, "\n%s\n", title)
		fmt.Fprintf(p.out, "%s\n", strings.Repeat("─", len([]rune(title))))
		return
	}
	fmt.Fprintf(p.out, "\n%s\n%s\n", title, strings.Repeat("-", len([]rune(title))))
}

// Bold returns text in bold
func (p *Printer) Bold(text string) string {
	if p.useColors {
		c := color.New(color.Bold)
		c.EnableColor()
		return c.Sprint(text)
	}
	return text
}

// Dim returns dimmed text
func (p *Printer) Dim(text string) string {
	if p.useColors {
		c := color.New(color.Faint)
		c.EnableColor()
		return c.Sprint(text)
	}
	return text
}

// FormatError prints err with its location and code.
func (p *Printer) FormatError(err error) {
	if err == nil {
		return
	}
	ctx := cserrors.GetErrorContext(err)
	p.Error("%s", cserrors.FormatError(err))
	if field, ok := ctx["field"]; ok {
		fmt.Fprintf(p.err, "  Field: %v\n", field)
	}
}
