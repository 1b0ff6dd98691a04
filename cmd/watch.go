package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cserrors "github.com/conneroisu/cheatsheet/internal/errors"
	"github.com/conneroisu/cheatsheet/internal/renderer"
	"github.com/conneroisu/cheatsheet/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Re-render the cheat sheet whenever the source changes",
	Long: `Render the source once, then again after every change to it. A change
that leaves the document malformed is reported and the last good output is
kept.

Examples:
  cheatsheet watch -f html -o dist/index.html   # Keep a page up to date
  cheatsheet watch --debounce 1s                # Wait longer between renders`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	addOutputFlags(watchCmd.Flags())
	addRenderFlags(watchCmd.Flags())
	addWatchFlags(watchCmd.Flags())
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f, err := renderer.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	path := sourcePath(cmd)
	if path == "" {
		return cserrors.NewValidationError(cserrors.ErrCodeInvalidPath,
			"watch needs a source file; pass --source or create README.md")
	}

	render := func(ctx context.Context) error {
		doc, _, err := loadDocument(ctx, cmd)
		if err != nil {
			return err
		}
		return writeRendered(ctx, cmd.OutOrStdout(), doc, f)
	}

	if err := render(ctx); err != nil {
		return err
	}

	fw, err := watcher.NewFileWatcher(cfg.Watch.Debounce, logger)
	if err != nil {
		return err
	}
	defer fw.Stop()

	fw.AddFilter(watcher.NoHiddenFilter)
	if err := fw.AddFile(path); err != nil {
		return err
	}
	fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		printer.Info("Changed: %s", watcher.Describe(events))
		if err := render(ctx); err != nil {
			printer.FormatError(err)
		}
		return nil
	})

	if err := fw.Start(ctx); err != nil {
		return err
	}
	printer.Info("Watching %s (press Ctrl+C to stop)", path)

	<-ctx.Done()
	printer.Info("Stopped watching")
	return nil
}
