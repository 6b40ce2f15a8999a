// Package api exposes the pipeline trigger, status and knowledge endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/deusflow/econbrief/internal/app"
	"github.com/deusflow/econbrief/internal/knowledge"
	"github.com/deusflow/econbrief/internal/logger"
	"github.com/deusflow/econbrief/internal/metrics"
	"github.com/deusflow/econbrief/internal/news"
	"github.com/deusflow/econbrief/internal/sources"
	"github.com/deusflow/econbrief/internal/storage"
)

const (
	crawlDoneMessage = "크롤링과 요약이 완료되었습니다."
	defaultSearchK   = 5
	askRelatedK      = 3
)

// Runner triggers one pipeline run.
type Runner interface {
	Run(ctx context.Context, opts sources.Options) (*news.AggregateResult, error)
	Running() bool
}

// Deps are the collaborators the handlers need.
type Deps struct {
	Pipeline  Runner
	Store     storage.Store
	Knowledge *knowledge.Base
	Answerer  *knowledge.Answerer
	Metrics   *metrics.Metrics
	// ModelAvailable is reported as summarize_available.
	ModelAvailable bool
	Now            func() time.Time
}

type server struct {
	Deps
	log *slog.Logger
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewRouter builds the chi router with every endpoint mounted.
func NewRouter(d Deps) http.Handler {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Global
	}
	s := &server{Deps: d, log: logger.With("component", "api")}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/crawl", s.handleCrawl)
		r.Get("/status", s.handleStatus)
		r.Get("/health", s.handleHealth)
		r.Get("/news", s.handleNews)
		r.Post("/ask", s.handleAsk)
		r.Post("/search", s.handleSearch)
		r.Get("/categories", s.handleCategories)
		r.Get("/knowledge/{category}", s.handleCategory)
		r.Get("/random", s.handleRandom)
	})
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	return r
}

func (s *server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	// A disconnecting client must not abort a half-finished run.
	agg, err := s.Pipeline.Run(context.WithoutCancel(r.Context()), sources.Options{})
	switch {
	case errors.Is(err, app.ErrRunInProgress):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	case err != nil:
		s.log.Error("crawl failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   crawlDoneMessage,
		"timestamp": agg.LastUpdated.Format(time.RFC3339),
		"count":     agg.Count,
		"fallback":  agg.Fallback,
	})
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var lastRun any
	if t := s.Metrics.LastRun(); !t.IsZero() {
		lastRun = t.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":              "running",
		"crawl_available":     s.Pipeline != nil,
		"summarize_available": s.ModelAvailable,
		"in_progress":         s.Pipeline != nil && s.Pipeline.Running(),
		"last_run":            lastRun,
		"storage":             s.Store.Name(),
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *server) handleNews(w http.ResponseWriter, r *http.Request) {
	agg, err := app.LoadAggregate(r.Context(), s.Store)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no news aggregate yet"})
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

type askRequest struct {
	Question string `json:"question"`
}

func (s *server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "질문을 입력해주세요."})
		return
	}

	ans, err := s.Answerer.Ask(r.Context(), req.Question)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	related := ans.Related
	if len(related) > askRelatedK {
		related = related[:askRelatedK]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"question":          ans.Question,
		"answer":            ans.Answer,
		"related_knowledge": nonNil(related),
		"timestamp":         s.Now().Format(time.RFC3339),
	})
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k"`
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "검색어를 입력해주세요."})
		return
	}
	k := defaultSearchK
	if req.TopK != nil {
		k = *req.TopK
	}
	results := s.Knowledge.Search(req.Query, k)
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   req.Query,
		"results": nonNil(results),
		"count":   len(results),
	})
}

func (s *server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": s.Knowledge.Categories()})
}

func (s *server) handleCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	if unescaped, err := url.PathUnescape(category); err == nil {
		category = unescaped
	}
	items := s.Knowledge.ByCategory(category)
	if len(items) == 0 {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown category " + category})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category": category,
		"items":    items,
		"count":    len(items),
	})
}

func (s *server) handleRandom(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Knowledge.Random(nil))
}

func nonNil(items []knowledge.Item) []knowledge.Item {
	if items == nil {
		return []knowledge.Item{}
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := news.EncodeJSON(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
