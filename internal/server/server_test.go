package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/cheatsheet/internal/config"
	"github.com/conneroisu/cheatsheet/internal/content"
	cserrors "github.com/conneroisu/cheatsheet/internal/errors"
)

const sheet = `# React

## Hooks

### What is useMemo?

Memoizes a computation.

## Performance Optimization

### What is React.memo?

Skips re-rendering when props are equal.
`

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0},
		Render: config.RenderConfig{Sanitize: true, TOC: true},
		Watch:  config.WatchConfig{Debounce: 20 * time.Millisecond},
	}
}

func writeSheet(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func newTestServer(t *testing.T) (*PreviewServer, string) {
	t.Helper()
	source := filepath.Join(t.TempDir(), "README.md")
	writeSheet(t, source, sheet)

	s, err := New(testConfig(), source, nil)
	require.NoError(t, err)
	return s, source
}

// runHub starts the live-reload hub for tests that bypass Start.
func runHub(t *testing.T, s *PreviewServer) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go s.hub.run(ctx)
	t.Cleanup(func() {
		cancel()
		<-s.hub.done
	})
}

func titles(st *content.Store) []string {
	var out []string
	for _, sec := range st.Sections() {
		out = append(out, sec.Title)
	}
	return out
}

func TestNew(t *testing.T) {
	t.Run("file source", func(t *testing.T) {
		s, _ := newTestServer(t)
		assert.Equal(t, "README.md", s.SourceName())
		assert.Equal(t, []string{"Hooks", "Performance Optimization"}, titles(s.Store()))
		assert.NotNil(t, s.Handler())
		assert.Empty(t, s.Problems())
	})

	t.Run("bundled source", func(t *testing.T) {
		s, err := New(testConfig(), "", nil)
		require.NoError(t, err)
		assert.Equal(t, "bundled", s.SourceName())
		assert.Len(t, s.Store().Sections(), 7)
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := New(nil, "", nil)
		require.Error(t, err)
		assert.Equal(t, cserrors.ErrCodeConfigInvalid, cserrors.GetErrorContext(err)["code"])
	})

	t.Run("malformed source", func(t *testing.T) {
		source := filepath.Join(t.TempDir(), "bad.md")
		writeSheet(t, source, "just prose\n")
		_, err := New(testConfig(), source, nil)
		require.Error(t, err)
		assert.True(t, cserrors.IsMalformedDocument(err))
	})

	t.Run("missing source", func(t *testing.T) {
		_, err := New(testConfig(), filepath.Join(t.TempDir(), "missing.md"), nil)
		require.Error(t, err)
		assert.Equal(t, cserrors.ErrCodeFileNotFound, cserrors.GetErrorContext(err)["code"])
	})
}

func TestHandlers(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name        string
		method      string
		path        string
		status      int
		contentType string
		contains    []string
		excludes    []string
	}{
		{
			name: "index", path: "/", status: http.StatusOK,
			contentType: "text/html",
			contains:    []string{"What is useMemo?", `"/ws"`, `class="toc"`},
		},
		{
			name: "render json", path: "/render/json", status: http.StatusOK,
			contentType: "application/json",
			contains:    []string{`{"title":"React","sections":[{"title":"Hooks"`},
		},
		{
			name: "render alias", path: "/render/plain-text", status: http.StatusOK,
			contentType: "text/plain",
			contains:    []string{"Q: What is useMemo?", "A: Memoizes a computation."},
		},
		{
			name: "render one topic", path: "/render/text?topic=perf", status: http.StatusOK,
			contains: []string{"Performance Optimization", "What is React.memo?"},
			excludes: []string{"useMemo"},
		},
		{
			name: "render unsupported format", path: "/render/pdf", status: http.StatusBadRequest,
			contentType: "application/json",
			contains:    []string{cserrors.ErrCodeUnsupportedFormat},
		},
		{
			name: "render unknown topic", path: "/render/json?topic=redux", status: http.StatusNotFound,
			contains: []string{cserrors.ErrCodeTopicNotFound},
		},
		{
			name: "sections", path: "/api/sections", status: http.StatusOK,
			contains: []string{`"anchor":"performance-optimization"`, `"entries":1`},
		},
		{
			name: "topic by prefix", path: "/api/topics/performance", status: http.StatusOK,
			contains: []string{`"title":"Performance Optimization"`},
		},
		{
			name: "topic miss", path: "/api/topics/redux", status: http.StatusNotFound,
			contains: []string{cserrors.ErrCodeTopicNotFound, "redux"},
		},
		{
			name: "search", path: "/api/search?q=memoizes", status: http.StatusOK,
			contains: []string{`"question":"What is useMemo?"`},
		},
		{
			name: "search without hits", path: "/api/search?q=redux", status: http.StatusOK,
			contains: []string{"[]"},
		},
		{
			name: "search without query", path: "/api/search", status: http.StatusBadRequest,
			contains: []string{cserrors.ErrCodeInvalidQuery},
		},
		{
			name: "stats", path: "/api/stats", status: http.StatusOK,
			contains: []string{`"source":"README.md"`, `"entries":2`},
		},
		{
			name: "errors", path: "/api/errors", status: http.StatusOK,
			contains: []string{"[]"},
		},
		{
			name: "health", path: "/health", status: http.StatusOK,
			contains: []string{`"status":"healthy"`, `"sections":2`},
		},
		{name: "unknown path", path: "/nope", status: http.StatusNotFound},
		{name: "wrong method", method: http.MethodPost, path: "/api/sections", status: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req := httptest.NewRequest(method, tt.path, nil)
			rec := httptest.NewRecorder()

			s.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.contentType != "" {
				assert.Contains(t, rec.Header().Get("Content-Type"), tt.contentType)
			}
			for _, want := range tt.contains {
				assert.Contains(t, rec.Body.String(), want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, rec.Body.String(), unwanted)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t)
	s.config.Server.AllowedOrigins = []string{"http://localhost:3000"}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/sections", nil)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestReloadKeepsPreviousDocument(t *testing.T) {
	s, source := newTestServer(t)
	ctx := context.Background()

	writeSheet(t, source, "## Hooks\n\n```js\nunterminated()\n")
	err := s.Reload(ctx)
	require.Error(t, err)
	assert.True(t, cserrors.IsMalformedDocument(err))
	assert.Equal(t, 3, cserrors.LineOf(err))

	assert.Equal(t, []string{"Hooks", "Performance Optimization"}, titles(s.Store()))
	problems := s.Problems()
	require.Len(t, problems, 1)
	assert.Equal(t, cserrors.ErrCodeMalformedDocument, problems[0].Code)
	assert.Equal(t, 3, problems[0].Line)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)

	writeSheet(t, source, "## Security\n\n### How do I avoid XSS?\n\nEscape output.\n")
	require.NoError(t, s.Reload(ctx))
	assert.Equal(t, []string{"Security"}, titles(s.Store()))
	assert.Empty(t, s.Problems())
}

func dial(t *testing.T, ctx context.Context, ts *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	conn, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+LiveReloadPath, &websocket.DialOptions{
		HTTPHeader: header,
	})
	if resp != nil && resp.Body != nil {
		t.Cleanup(func() { resp.Body.Close() })
	}
	return conn, resp, err
}

func readMessage(t *testing.T, ctx context.Context, conn *websocket.Conn) UpdateMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	typ, data, err := conn.Read(readCtx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)

	var msg UpdateMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestWebSocketLiveReload(t *testing.T) {
	s, source := newTestServer(t)
	runHub(t, s)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := dial(t, ctx, ts, ts.URL)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return s.hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	writeSheet(t, source, sheet+"\n## Security\n\n### How do I avoid XSS?\n\nEscape output.\n")
	require.NoError(t, s.Reload(ctx))
	msg := readMessage(t, ctx, conn)
	assert.Equal(t, "reload", msg.Type)
	assert.False(t, msg.Timestamp.IsZero())

	writeSheet(t, source, "")
	require.Error(t, s.Reload(ctx))
	msg = readMessage(t, ctx, conn)
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, msg.Message, cserrors.ErrCodeMalformedDocument)

	conn.Close(websocket.StatusNormalClosure, "")
	require.Eventually(t, func() bool { return s.hub.Count() == 0 }, time.Second, 10*time.Millisecond)
}

func TestWebSocketOrigin(t *testing.T) {
	s, _ := newTestServer(t)
	s.config.Server.AllowedOrigins = []string{"http://localhost:3000"}
	runHub(t, s)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	tests := []struct {
		name    string
		origin  string
		allowed bool
	}{
		{"same host", ts.URL, true},
		{"configured origin", "http://localhost:3000", true},
		{"missing origin", "", false},
		{"foreign origin", "http://evil.test", false},
		{"non-http scheme", "file://" + strings.TrimPrefix(ts.URL, "http://"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			conn, resp, err := dial(t, ctx, ts, tt.origin)
			if tt.allowed {
				require.NoError(t, err)
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestStartWatchesSource(t *testing.T) {
	s, source := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return s.Addr() != "" }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + s.Addr() + "/health")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"source":"README.md"`)

	writeSheet(t, source, "## State Management\n\n### When do I reach for useReducer?\n\nFor related state.\n")
	require.Eventually(t, func() bool {
		return len(s.Store().Sections()) == 1 && s.Store().Sections()[0].Title == "State Management"
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
	assert.NoError(t, s.Shutdown(context.Background()))
}

func TestValidateBrowserURL(t *testing.T) {
	assert.NoError(t, validateBrowserURL("http://127.0.0.1:8080"))
	assert.Error(t, validateBrowserURL("file:///etc/passwd"))
	assert.Error(t, validateBrowserURL("http://"))
	assert.Error(t, validateBrowserURL("http://user@host"))
	assert.Error(t, validateBrowserURL("://bad"))
}
