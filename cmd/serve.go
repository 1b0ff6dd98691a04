package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/cheatsheet/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Serve the cheat sheet with live reload",
	Long: `Start a local preview server. The page reloads whenever the source file
changes; if a change leaves the document malformed the previous version keeps
being served and the page shows the error.

Endpoints:
  /                     HTML page with live reload
  /render/{format}      text, html, json or yaml (?topic= for one section)
  /api/sections         Section list
  /api/topics/{name}    One section as JSON
  /api/search?q=        Keyword search
  /api/errors           Load errors since the last good reload
  /health               Server status

Examples:
  cheatsheet serve                       # http://localhost:8080
  cheatsheet serve -p 3000 --open        # Custom port, open a browser
  cheatsheet serve --source notes.md     # Another file`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	addServerFlags(serveCmd.Flags())
	addRenderFlags(serveCmd.Flags())
	addWatchFlags(serveCmd.Flags())
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := sourcePath(cmd)
	srv, err := server.New(cfg, path, logger)
	if err != nil {
		return err
	}

	printer.Info("Serving %s on http://%s", sourceLabel(path), cfg.Server.Addr())
	if err := srv.Start(ctx); err != nil {
		return err
	}
	printer.Info("Server stopped")
	return nil
}
