// Package cmd provides the command-line interface for cheatsheet.
//
// Configuration System:
//
//	Settings are merged from several sources, highest priority first:
//	1. Command-line flags (--source, --format, --port, ...)
//	2. Individual environment variables (CHEATSHEET_SERVER_PORT, ...)
//	3. The file named by --config or CHEATSHEET_CONFIG_FILE
//	4. .cheatsheet.yml in the working directory
//	5. Built-in defaults
//
// Environment Variables:
//
//	CHEATSHEET_CONFIG_FILE: Path to a custom configuration file
//	CHEATSHEET_SOURCE: Markdown file to load
//	CHEATSHEET_OUTPUT_FORMAT: Default render format
//	And the rest of the CHEATSHEET_<SECTION>_<OPTION> pattern
package cmd

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/cheatsheet/internal/config"
	"github.com/conneroisu/cheatsheet/internal/content"
	cserrors "github.com/conneroisu/cheatsheet/internal/errors"
	"github.com/conneroisu/cheatsheet/internal/logging"
	"github.com/conneroisu/cheatsheet/internal/output"
)

var (
	cfgFile     string
	useBundled  bool
	quiet       bool
	cfg         *config.Config
	logger      logging.Logger
	printer     *output.Printer
	closeLogger func() error
)

// flagBindings maps flag names to configuration keys. A flag only overrides
// the configuration when the user sets it.
var flagBindings = map[string]string{
	"source":     "source",
	"log-level":  "log.level",
	"log-format": "log.format",
	"format":     "output.format",
	"out":        "output.path",
	"indent":     "output.indent",
	"color":      "output.color",
	"title":      "render.title",
	"toc":        "render.toc",
	"sanitize":   "render.sanitize",
	"host":       "server.host",
	"port":       "server.port",
	"open":       "server.open",
	"debounce":   "watch.debounce",
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cheatsheet",
	Short: "Load, query and render a Markdown React cheat sheet",
	Long: `cheatsheet turns a Markdown question-and-answer cheat sheet into plain
text, HTML, JSON or YAML, answers topic and keyword lookups against it, and
serves it with live reload while you edit.

Sections are the shallowest heading level of the document, entries the
headings below them. Without a README.md in the working directory the bundled
React cheat sheet is used.

Quick Start:
  cheatsheet topics                     List sections
  cheatsheet find performance           Show one section
  cheatsheet search useMemo             Find entries by keyword
  cheatsheet render --format html       Render the whole sheet
  cheatsheet serve                      Preview with live reload`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closeLogger == nil {
			return nil
		}
		closeFn := closeLogger
		closeLogger = nil
		return closeFn()
	},
}

// Execute runs the root command and reports any error on stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		p := printer
		if p == nil {
			p = output.NewPrinter(os.Stdout, os.Stderr, output.ResolveColors(output.ColorAuto, os.Stderr), false)
		}
		p.FormatError(err)
	}
	return err
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is .cheatsheet.yml, can also use CHEATSHEET_CONFIG_FILE env var)")
	pf.StringP("source", "s", "", "Markdown cheat sheet to load (default README.md)")
	pf.BoolVar(&useBundled, "bundled", false, "use the bundled React cheat sheet")
	pf.StringP("log-level", "l", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (text, json)")
	pf.BoolVarP(&quiet, "quiet", "q", false, "suppress status messages")
}

// initConfig merges file, environment and flags into cfg and sets up the
// logger and printer for the command being run.
func initConfig(cmd *cobra.Command) error {
	v, used, err := newViper(cmd)
	if err != nil {
		return err
	}

	loaded, err := config.LoadFrom(v)
	if err != nil {
		return err
	}
	return setupRuntime(cmd, loaded, used)
}

// newViper reads the config file and binds the flags the user set.
func newViper(cmd *cobra.Command) (*viper.Viper, string, error) {
	v := viper.New()

	file := cfgFile
	if file == "" {
		file = os.Getenv(config.EnvPrefix + "_CONFIG_FILE")
	}
	config.Setup(v, file)

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagBindings[f.Name]; ok && f.Changed {
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		}
	})
	if bindErr != nil {
		return nil, "", cserrors.WrapConfig(bindErr, cserrors.ErrCodeConfigInvalid, "binding flags")
	}

	used, err := config.ReadFile(v)
	if err != nil {
		return nil, "", err
	}
	return v, used, nil
}

// setupRuntime installs c as the active configuration. Invalid colour or
// log settings fall back to defaults so config validate can still report.
func setupRuntime(cmd *cobra.Command, c *config.Config, used string) error {
	cfg = c

	mode, err := output.ParseColorMode(cfg.Output.Color)
	if err != nil {
		mode = output.ColorAuto
	}
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	printer = output.NewPrinter(out, errOut, output.ResolveColors(mode, errOut), quiet)

	if err := setupLogger(errOut); err != nil {
		return err
	}
	if used != "" {
		logger.Debug(cmd.Context(), "Using config file", "path", used)
	}
	return nil
}

func setupLogger(w io.Writer) error {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	lc := &logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Log.Format,
		Output:    w,
		Component: "cli",
	}

	console := logging.NewLogger(lc)
	logger, closeLogger = console, nil
	if cfg.Log.Dir == "" {
		return nil
	}

	fileLogger, err := logging.NewFileLogger(lc, cfg.Log.Dir)
	if err != nil {
		return cserrors.WrapIO(err, cserrors.ErrCodeIO, "opening log directory")
	}
	logger = logging.NewMultiLogger(console, fileLogger)
	closeLogger = fileLogger.Close
	return nil
}

// sourcePath returns the Markdown file to load, or "" for the bundled sheet.
// A missing default README.md falls back to the bundled sheet; a missing
// file the user named is an error.
func sourcePath(cmd *cobra.Command) string {
	if useBundled {
		return ""
	}
	if cfg.Source == config.DefaultSource && !cmd.Flags().Changed("source") {
		if _, err := os.Stat(cfg.Source); os.IsNotExist(err) {
			return ""
		}
	}
	return cfg.Source
}

// loadDocument loads the configured source.
func loadDocument(ctx context.Context, cmd *cobra.Command) (*content.Document, string, error) {
	path := sourcePath(cmd)
	op := logging.StartOperation(logger, "load")

	var (
		doc *content.Document
		err error
	)
	if path == "" {
		doc, err = content.LoadBundled()
	} else {
		doc, err = content.LoadFile(path)
	}
	if err != nil {
		op.EndWithError(ctx, err)
		return nil, path, err
	}

	op.End(ctx, "source", sourceLabel(path), "sections", len(doc.Sections), "entries", doc.EntryCount())
	return doc, path, nil
}

func sourceLabel(path string) string {
	if path == "" {
		return "bundled"
	}
	return path
}
