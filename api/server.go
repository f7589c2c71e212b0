// Package api provides the HTTP REST API server for deepscreen.
//
// It exposes the screening endpoints, benchmark comparison, alert
// management, thesis generation and WebSocket streaming of alerts.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phuslu/log"

	"github.com/seenimoa/deepscreen/internal/config"
	"github.com/seenimoa/deepscreen/internal/llm"
	"github.com/seenimoa/deepscreen/internal/screener/alerts"
	"github.com/seenimoa/deepscreen/internal/screener/filter"
	"github.com/seenimoa/deepscreen/internal/session"
	"github.com/seenimoa/deepscreen/internal/universe"
	"github.com/seenimoa/deepscreen/pkg/models"
)

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	universe *universe.Controller
	alerts   *alerts.Engine
	sess     *session.Memory
	thesis   *llm.ThesisWriter
	wsHub    *WSHub
}

// NewServer creates a configured API server with all routes and middleware.
// thesis may be nil when no LLM key is configured.
func NewServer(cfg *config.Config, ctrl *universe.Controller, alertEngine *alerts.Engine, sess *session.Memory, thesis *llm.ThesisWriter) *Server {
	srv := &Server{
		cfg:      cfg,
		universe: ctrl,
		alerts:   alertEngine,
		sess:     sess,
		thesis:   thesis,
		wsHub:    NewWSHub(),
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub so alert delivery can be wired to it.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start WebSocket hub
	go s.wsHub.Run()

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	<-done
	log.Info().Msg("shutting down server")

	s.universe.StopSchedule()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health (also available at /health)
		r.Get("/health", s.handleHealth)

		// Universe
		r.Get("/stocks", s.handleStocks)
		r.Post("/refresh", s.handleRefresh)

		// Screening
		r.Post("/screen", s.handleScreen)
		r.Get("/screen/simple", s.handleSimpleScreen)

		// Benchmark
		r.Get("/benchmark", s.handleBenchmark)

		// Alerts
		r.Post("/alerts/recheck", s.handleAlertsRecheck)
		r.Post("/alerts/dismiss", s.handleAlertsDismiss)

		// Session
		r.Post("/session/reset", s.handleSessionReset)

		// Thesis generation
		r.Get("/thesis/{symbol}", s.handleThesis)

		// Configuration
		r.Get("/config/keys", s.handleConfigKeys)

		// WebSocket alert stream
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// ============================================================
// Handlers
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ScreenRequest is the body of POST /screen.
type ScreenRequest struct {
	Filters models.ActiveFilters `json:"filters"`
	Search  string               `json:"search"`
	Page    int                  `json:"page"`
	PerPage int                  `json:"perPage"`
}

// ScreenResponse carries one page of screening results.
type ScreenResponse struct {
	Stocks     []models.Stock `json:"stocks"`
	TotalCount int            `json:"totalCount"`
	Page       int            `json:"page"`
	PerPage    int            `json:"perPage"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":       "ok",
			"version":      "dev",
			"stocks":       len(s.universe.Snapshot()),
			"last_refresh": s.universe.LastRefresh(),
		},
	})
}

func (s *Server) handleStocks(w http.ResponseWriter, r *http.Request) {
	stocks := s.universe.Snapshot()
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ScreenResponse{
			Stocks:     stocks,
			TotalCount: len(stocks),
			Page:       1,
			PerPage:    len(stocks),
		},
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if err := s.universe.Refresh(ctx); err != nil {
			log.Error().Err(err).Msg("manual refresh failed")
		}
	}()
	writeJSON(w, http.StatusAccepted, APIResponse{
		Success: true,
		Data:    map[string]string{"status": "refresh started"},
	})
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	var req ScreenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.respondScreen(w, req)
}

func (s *Server) handleSimpleScreen(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sliders := models.SimpleSliders{
		Size:    queryInt(q.Get("size"), 50),
		Value:   queryInt(q.Get("value"), 50),
		Quality: queryInt(q.Get("quality"), 50),
	}
	req := ScreenRequest{
		Filters: filter.FromSliders(sliders),
		Search:  q.Get("search"),
		Page:    queryInt(q.Get("page"), 0),
		PerPage: queryInt(q.Get("perPage"), 0),
	}
	s.respondScreen(w, req)
}

func (s *Server) respondScreen(w http.ResponseWriter, req ScreenRequest) {
	matched := filter.Apply(s.universe.Snapshot(), models.ScreenRequest{
		Filters: req.Filters,
		Search:  req.Search,
	})
	total := len(matched)

	perPage := req.PerPage
	if perPage <= 0 {
		perPage = s.cfg.Screener.DefaultPerPage
	}
	paged := filter.Page(matched, req.Page, perPage)

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ScreenResponse{
			Stocks:     paged,
			TotalCount: total,
			Page:       req.Page,
			PerPage:    perPage,
		},
	})
}

func (s *Server) handleBenchmark(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    s.universe.Compare(),
	})
}

func (s *Server) handleAlertsRecheck(w http.ResponseWriter, r *http.Request) {
	raised := s.alerts.Reevaluate()
	if len(raised) > 0 {
		s.wsHub.Broadcast(WSMessage{Type: "alerts", Data: raised})
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    raised,
	})
}

func (s *Server) handleAlertsDismiss(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SuppressionKey string `json:"suppressionKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SuppressionKey == "" {
		writeError(w, http.StatusBadRequest, "suppressionKey is required")
		return
	}
	s.alerts.Dismiss(req.SuppressionKey)
	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

func (s *Server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	s.sess.Reset()
	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

func (s *Server) handleThesis(w http.ResponseWriter, r *http.Request) {
	if s.thesis == nil {
		writeError(w, http.StatusServiceUnavailable, "thesis generation is not configured")
		return
	}
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))

	var found *models.Stock
	for _, stock := range s.universe.Snapshot() {
		if stock.Symbol == symbol {
			found = &stock
			break
		}
	}
	if found == nil {
		writeError(w, http.StatusNotFound, "symbol not in the current universe")
		return
	}

	text, err := s.thesis.Generate(r.Context(), *found)
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("thesis generation failed")
		writeError(w, http.StatusBadGateway, "thesis generation failed")
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]string{
			"symbol": symbol,
			"thesis": text,
		},
	})
}

func (s *Server) handleConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckAPIKeys(s.cfg),
	})
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
