// Package api exposes the HTTP interface for the insights service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/damndeepesh/shopify-insights-fetcher/internal/competitors"
	"github.com/damndeepesh/shopify-insights-fetcher/internal/config"
	"github.com/damndeepesh/shopify-insights-fetcher/internal/insights"
	"github.com/damndeepesh/shopify-insights-fetcher/internal/metrics"
	"github.com/damndeepesh/shopify-insights-fetcher/internal/service"
)

const defaultPageLimit = 20

// websiteURLPattern accepts scheme-optional URLs with a plausible domain.
var websiteURLPattern = regexp.MustCompile(`^(https?://)?([\da-z.-]+)\.([a-z.]{2,6})([/\w .-]*)*/?$`)

// InsightsService runs extractions and reads stored aggregates.
type InsightsService interface {
	FetchInsights(ctx context.Context, websiteURL string) (insights.BrandInsights, error)
	GetStoredInsights(ctx context.Context, websiteURL string, products insights.ProductQuery, faqs insights.FAQQuery) (insights.BrandInsights, error)
}

// CompetitorFinder discovers and extracts competitor storefronts.
type CompetitorFinder interface {
	FindCompetitors(ctx context.Context, websiteURL string) ([]competitors.Competitor, error)
}

// Server wires HTTP handlers to the insights service.
type Server struct {
	router  chi.Router
	service InsightsService
	finder  CompetitorFinder
	logger  *zap.Logger
	cfg     config.Config
}

// NewServer constructs a Server with middleware and routes.
func NewServer(svc InsightsService, finder CompetitorFinder, cfg config.Config, logger *zap.Logger) *Server {
	metrics.Init()
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service: svc,
		finder:  finder,
		logger:  logger,
		cfg:     cfg,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metricsMiddleware)
	r.Use(timeoutMiddleware(60 * time.Second))
	if cfg.Auth.Enabled {
		r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
	}

	r.Get("/", s.root)
	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/insights", s.fetchInsights)
		r.Get("/insights", s.getInsights)
		r.Post("/competitors", s.getCompetitors)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Shopify Store Insights-Fetcher is running."})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type insightsRequest struct {
	WebsiteURL string `json:"website_url"`
}

func (s *Server) fetchInsights(w http.ResponseWriter, r *http.Request) {
	var req insightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := validateWebsiteURL(req.WebsiteURL); msg != "" {
		s.writeError(w, http.StatusBadRequest, msg)
		return
	}

	ins, err := s.service.FetchInsights(r.Context(), req.WebsiteURL)
	if err != nil {
		if errors.Is(err, service.ErrNotStorefront) {
			s.writeError(w, http.StatusUnauthorized, "Website not found or no products available.")
			return
		}
		s.logger.Error("insights extraction failed",
			zap.String("website_url", req.WebsiteURL),
			zap.Error(err),
		)
		s.writeError(w, http.StatusInternalServerError, "Internal server error. Please try again later.")
		return
	}
	s.writeJSON(w, http.StatusOK, ins)
}

func (s *Server) getInsights(w http.ResponseWriter, r *http.Request) {
	websiteURL := r.URL.Query().Get("website_url")
	if msg := validateWebsiteURL(websiteURL); msg != "" {
		s.writeError(w, http.StatusBadRequest, msg)
		return
	}

	products := insights.ProductQuery{
		Limit:  intQueryParam(r, "limit", defaultPageLimit),
		Offset: intQueryParam(r, "offset", 0),
		Title:  r.URL.Query().Get("product_title"),
	}
	faqs := insights.FAQQuery{
		Limit:  intQueryParam(r, "faq_limit", defaultPageLimit),
		Offset: intQueryParam(r, "faq_offset", 0),
		Query:  r.URL.Query().Get("faq_query"),
	}

	ins, err := s.service.GetStoredInsights(r.Context(), websiteURL, products, faqs)
	if err != nil {
		if errors.Is(err, insights.ErrBrandNotFound) {
			s.writeError(w, http.StatusNotFound, "Brand not found.")
			return
		}
		s.logger.Error("stored insights read failed",
			zap.String("website_url", websiteURL),
			zap.Error(err),
		)
		s.writeError(w, http.StatusInternalServerError, "Internal server error. Please try again later.")
		return
	}
	s.writeJSON(w, http.StatusOK, ins)
}

func (s *Server) getCompetitors(w http.ResponseWriter, r *http.Request) {
	var req insightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := validateWebsiteURL(req.WebsiteURL); msg != "" {
		s.writeError(w, http.StatusBadRequest, msg)
		return
	}

	found, err := s.finder.FindCompetitors(r.Context(), req.WebsiteURL)
	if err != nil {
		s.logger.Error("competitor analysis failed",
			zap.String("website_url", req.WebsiteURL),
			zap.Error(err),
		)
		s.writeError(w, http.StatusInternalServerError, "Competitor analysis failed.")
		return
	}
	if found == nil {
		found = []competitors.Competitor{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]competitors.Competitor{"competitors": found})
}

// validateWebsiteURL returns an error message, or "" when the URL looks
// like a plausible storefront address.
func validateWebsiteURL(websiteURL string) string {
	if websiteURL == "" || !websiteURLPattern.MatchString(websiteURL) {
		return "Invalid website_url format."
	}
	plausible := strings.Contains(websiteURL, "shopify") ||
		strings.HasSuffix(websiteURL, ".myshopify.com") ||
		strings.HasSuffix(websiteURL, ".com") ||
		strings.HasSuffix(websiteURL, ".in")
	if !plausible {
		return "Provided URL does not appear to be a Shopify store."
	}
	return ""
}

func intQueryParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("panic", rec))
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}
		metrics.ObserveHTTPRequest(r.Method, routePattern, ww.status, time.Since(start))
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key != expected {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
