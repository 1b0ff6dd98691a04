package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/conneroisu/cheatsheet/internal/content"
	cserrors "github.com/conneroisu/cheatsheet/internal/errors"
	"github.com/conneroisu/cheatsheet/internal/renderer"
	"github.com/conneroisu/cheatsheet/internal/version"
)

// SectionSummary is one row of the section listing.
type SectionSummary struct {
	Title   string `json:"title"`
	Anchor  string `json:"anchor"`
	Entries int    `json:"entries"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Line  int    `json:"line,omitempty"`
}

func (s *PreviewServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+LiveReloadPath, s.handleWebSocket)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /render/{format}", s.handleRender)
	mux.HandleFunc("GET /api/sections", s.handleSections)
	mux.HandleFunc("GET /api/topics/{name}", s.handleTopic)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/errors", s.handleErrors)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	return s.addMiddleware(mux)
}

func (s *PreviewServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, s.Store().Document(), renderer.FormatHTML)
}

// handleRender serves the whole sheet, or one topic with ?topic=, in any
// supported format.
func (s *PreviewServer) handleRender(w http.ResponseWriter, r *http.Request) {
	f, err := renderer.ParseFormat(r.PathValue("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	doc := s.Store().Document()
	if topic := r.URL.Query().Get("topic"); topic != "" {
		sec, err := s.Store().FindByTopic(topic)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		doc = &content.Document{Title: doc.Title, Sections: []content.Section{*sec}}
	}

	s.render(w, r, doc, f)
}

func (s *PreviewServer) render(w http.ResponseWriter, r *http.Request, doc *content.Document, f renderer.Format) {
	out, err := s.engine.RenderBytes(r.Context(), doc, f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	_, _ = w.Write(out)
}

func (s *PreviewServer) handleSections(w http.ResponseWriter, r *http.Request) {
	sections := s.Store().Sections()
	summaries := make([]SectionSummary, 0, len(sections))
	for i := range sections {
		summaries = append(summaries, SectionSummary{
			Title:   sections[i].Title,
			Anchor:  sections[i].Anchor(),
			Entries: len(sections[i].Entries),
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *PreviewServer) handleTopic(w http.ResponseWriter, r *http.Request) {
	sec, err := s.Store().FindByTopic(r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sec)
}

func (s *PreviewServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.writeError(w, r, cserrors.NewValidationError(cserrors.ErrCodeInvalidQuery, "query parameter q is required"))
		return
	}

	hits := s.Store().Search(q)
	if hits == nil {
		hits = []content.Hit{}
	}
	writeJSON(w, http.StatusOK, hits)
}

func (s *PreviewServer) handleStats(w http.ResponseWriter, r *http.Request) {
	s.storeMutex.RLock()
	stats, loadedAt := s.store.Stats(), s.loadedAt
	s.storeMutex.RUnlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"source":    s.SourceName(),
		"loaded_at": loadedAt.UTC().Format(time.RFC3339),
		"stats":     stats,
	})
}

func (s *PreviewServer) handleErrors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Problems())
}

func (s *PreviewServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if s.problems.HasErrors() {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"version":   version.Get().Version,
		"source":    s.SourceName(),
		"sections":  len(s.Store().Sections()),
		"clients":   s.hub.Count(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// writeError maps domain errors to HTTP statuses.
func (s *PreviewServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case cserrors.IsTopicNotFound(err):
		status = http.StatusNotFound
	case cserrors.IsUnsupportedFormat(err):
		status = http.StatusBadRequest
	}

	resp := errorResponse{Error: err.Error()}
	var ce *cserrors.CheatsheetError
	if errors.As(err, &ce) {
		resp.Error = ce.Message
		resp.Code = ce.Code
		resp.Line = ce.Line
		if ce.Type == cserrors.ErrorTypeValidation && status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), err, "Request failed", "path", r.URL.Path)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
