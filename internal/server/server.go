// Package server serves the cheat sheet over HTTP and pushes live-reload
// messages to open pages when the source file changes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/conneroisu/cheatsheet/internal/config"
	"github.com/conneroisu/cheatsheet/internal/content"
	cserrors "github.com/conneroisu/cheatsheet/internal/errors"
	"github.com/conneroisu/cheatsheet/internal/logging"
	"github.com/conneroisu/cheatsheet/internal/renderer"
	"github.com/conneroisu/cheatsheet/internal/watcher"
)

// LiveReloadPath is where pages open their reload socket.
const LiveReloadPath = "/ws"

// PreviewServer serves one cheat sheet with live reload.
type PreviewServer struct {
	config   *config.Config
	source   string
	engine   *renderer.Engine
	logger   logging.Logger
	problems *cserrors.ErrorCollector
	hub      *Hub
	handler  http.Handler

	storeMutex sync.RWMutex
	store      *content.Store
	loadedAt   time.Time

	serverMutex  sync.RWMutex
	httpServer   *http.Server
	listenAddr   string
	watcher      *watcher.FileWatcher
	cancel       context.CancelFunc
	shutdownOnce sync.Once
}

// UpdateMessage is sent to every live-reload client.
type UpdateMessage struct {
	Type      string    `json:"type"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// New creates a preview server for source and loads it once. An empty source
// serves the bundled React sheet. A nil logger discards log output.
func New(cfg *config.Config, source string, logger logging.Logger) (*PreviewServer, error) {
	if cfg == nil {
		return nil, cserrors.NewConfigError(cserrors.ErrCodeConfigInvalid, "no configuration")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.WithComponent("server")

	s := &PreviewServer{
		config:   cfg,
		source:   source,
		logger:   logger,
		problems: cserrors.NewErrorCollector(),
		hub:      newHub(logger),
		engine: renderer.NewEngine(renderer.Options{
			Title:      cfg.Render.Title,
			Indent:     cfg.Output.Indent,
			Sanitize:   cfg.Render.Sanitize,
			TOC:        cfg.Render.TOC,
			LiveReload: LiveReloadPath,
		}, logger),
	}

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	s.swap(doc)
	s.handler = s.routes()

	return s, nil
}

func (s *PreviewServer) load() (*content.Document, error) {
	if s.source == "" {
		return content.LoadBundled()
	}
	return content.LoadFile(s.source)
}

func (s *PreviewServer) swap(doc *content.Document) {
	store := content.NewStore(doc)
	s.storeMutex.Lock()
	s.store = store
	s.loadedAt = time.Now()
	s.storeMutex.Unlock()
}

// Store returns the store currently being served.
func (s *PreviewServer) Store() *content.Store {
	s.storeMutex.RLock()
	defer s.storeMutex.RUnlock()
	return s.store
}

// SourceName names the served document in logs and responses.
func (s *PreviewServer) SourceName() string {
	if s.source == "" {
		return "bundled"
	}
	return filepath.Base(s.source)
}

// Problems returns the load failures recorded since the last good reload.
func (s *PreviewServer) Problems() []cserrors.Problem {
	return s.problems.Problems()
}

// Handler returns the server's HTTP handler.
func (s *PreviewServer) Handler() http.Handler {
	return s.handler
}

// Addr returns the address Start is listening on.
func (s *PreviewServer) Addr() string {
	s.serverMutex.RLock()
	defer s.serverMutex.RUnlock()
	return s.listenAddr
}

// Reload re-reads the source. A document that fails to load is recorded and
// reported to clients while the previous document keeps being served.
func (s *PreviewServer) Reload(ctx context.Context) error {
	op := logging.StartOperation(s.logger, "reload")

	doc, err := s.load()
	if err != nil {
		op.EndWithError(ctx, err)
		s.problems.AddError(err)
		s.logger.Warn(ctx, err, "Keeping previous document", "source", s.SourceName())
		s.broadcastMessage(ctx, UpdateMessage{
			Type:      "error",
			Message:   cserrors.FormatError(err),
			Timestamp: time.Now(),
		})
		return err
	}

	s.swap(doc)
	s.problems.Clear()
	op.End(ctx, "source", s.SourceName(), "sections", len(doc.Sections))

	s.broadcastMessage(ctx, UpdateMessage{Type: "reload", Timestamp: time.Now()})
	return nil
}

func (s *PreviewServer) broadcastMessage(ctx context.Context, msg UpdateMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to marshal message")
		data = []byte(`{"type":"reload"}`)
	}
	s.hub.Broadcast(ctx, data)
}

// Start runs the hub, the source watcher and the HTTP server until ctx is
// cancelled or Shutdown is called.
func (s *PreviewServer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	ln, err := net.Listen("tcp", s.config.Server.Addr())
	if err != nil {
		cancel()
		return cserrors.WrapIO(err, cserrors.ErrCodeIO, "listening on "+s.config.Server.Addr())
	}

	go s.hub.run(ctx)

	if s.source != "" {
		if err := s.setupFileWatcher(ctx); err != nil {
			s.logger.Warn(ctx, err, "Live reload disabled", "source", s.source)
		}
	}

	s.serverMutex.Lock()
	s.cancel = cancel
	s.listenAddr = ln.Addr().String()
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	pageURL := "http://" + s.listenAddr
	s.logger.Info(ctx, "Serving cheat sheet", "url", pageURL, "source", s.SourceName())

	if s.config.Server.Open {
		go s.openBrowser(ctx, pageURL)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer done()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(shutdownCtx, err, "Shutdown failed")
		}
	}()

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return cserrors.WrapIO(err, cserrors.ErrCodeIO, "serving HTTP")
	}
	return nil
}

func (s *PreviewServer) setupFileWatcher(ctx context.Context) error {
	fw, err := watcher.NewFileWatcher(s.config.Watch.Debounce, s.logger)
	if err != nil {
		return err
	}
	fw.AddFilter(watcher.NoHiddenFilter)
	if err := fw.AddFile(s.source); err != nil {
		_ = fw.Stop()
		return err
	}
	fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		s.logger.Info(ctx, "Source changed", "changes", watcher.Describe(events))
		// Reload records and broadcasts its own failures.
		_ = s.Reload(ctx)
		return nil
	})
	if err := fw.Start(ctx); err != nil {
		_ = fw.Stop()
		return err
	}

	s.serverMutex.Lock()
	s.watcher = fw
	s.serverMutex.Unlock()
	return nil
}

// Shutdown stops the watcher, closes every live-reload connection and
// gracefully stops the HTTP server. It is safe to call more than once.
func (s *PreviewServer) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down server")

		s.serverMutex.RLock()
		cancel, fw, server := s.cancel, s.watcher, s.httpServer
		s.serverMutex.RUnlock()

		if cancel != nil {
			cancel()
		}
		if fw != nil {
			if err := fw.Stop(); err != nil {
				s.logger.Warn(ctx, err, "Stopping watcher failed")
			}
		}
		if server != nil {
			if err := server.Shutdown(ctx); err != nil {
				shutdownErr = cserrors.WrapIO(err, cserrors.ErrCodeIO, "shutting down HTTP server")
			}
		}
	})

	return shutdownErr
}

func (s *PreviewServer) addMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if s.isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("X-Content-Type-Options", "nosniff")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		start := time.Now()
		handler.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "Request served",
			"method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// isAllowedOrigin reports whether origin is listed in server.allowed_origins.
func (s *PreviewServer) isAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range s.config.Server.AllowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}
	return false
}

func (s *PreviewServer) openBrowser(ctx context.Context, pageURL string) {
	time.Sleep(100 * time.Millisecond) // give Serve a moment

	if err := validateBrowserURL(pageURL); err != nil {
		s.logger.Warn(ctx, err, "Not opening browser")
		return
	}

	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", pageURL).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", pageURL).Start()
	case "darwin":
		err = exec.Command("open", pageURL).Start()
	default:
		err = fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}

	if err != nil {
		s.logger.Warn(ctx, err, "Failed to open browser")
	}
}

// validateBrowserURL only lets plain http(s) URLs through to the OS opener.
func validateBrowserURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return cserrors.NewValidationError(cserrors.ErrCodeInvalidPath, "invalid URL").WithContext("url", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return cserrors.NewValidationError(cserrors.ErrCodeInvalidPath, "URL scheme must be http or https").
			WithContext("url", raw)
	}
	if u.Host == "" || u.User != nil {
		return cserrors.NewValidationError(cserrors.ErrCodeInvalidPath, "URL must name a host").WithContext("url", raw)
	}
	return nil
}
