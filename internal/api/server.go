// Package api exposes the trading agent over HTTP: indicator queries,
// cycle triggers, account state, and the WebSocket stream.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trading-agentv1/internal/agent"
	"trading-agentv1/internal/aggregate"
	"trading-agentv1/internal/gateway"
	"trading-agentv1/internal/ledger"
	sqlitestore "trading-agentv1/internal/store/sqlite"
)

// Config holds the HTTP server settings.
type Config struct {
	Addr        string
	CORSOrigins []string
}

// Server is the HTTP API server.
type Server struct {
	cfg        Config
	router     *mux.Router
	httpServer *http.Server

	aggregator   *aggregate.Service
	orchestrator *agent.Orchestrator
	account      *ledger.Ledger
	hub          *gateway.Hub
	journal      *sqlitestore.Journal // may be nil
}

// NewServer wires the routes. hub and journal may be nil.
func NewServer(cfg Config, aggregator *aggregate.Service, orchestrator *agent.Orchestrator, account *ledger.Ledger, hub *gateway.Hub, journal *sqlitestore.Journal) *Server {
	s := &Server{
		cfg:          cfg,
		aggregator:   aggregator,
		orchestrator: orchestrator,
		account:      account,
		hub:          hub,
		journal:      journal,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()
	s.router.Use(s.recoveryMiddleware)

	apiV1 := s.router.PathPrefix("/api/v1").Subrouter()
	apiV1.HandleFunc("/health", s.handleHealth).Methods("GET")
	apiV1.HandleFunc("/indicators", s.handleIndicators).Methods("GET")
	apiV1.HandleFunc("/analysis", s.handleAnalysis).Methods("GET")
	apiV1.HandleFunc("/trade_decision", s.handleTradeDecision).Methods("POST")
	apiV1.HandleFunc("/sentiment", s.handleSentiment).Methods("POST")
	apiV1.HandleFunc("/account", s.handleAccount).Methods("GET")
	apiV1.HandleFunc("/journal", s.handleJournal).Methods("GET")
	if s.hub != nil {
		apiV1.HandleFunc("/stream", s.hub.HandleWS).Methods("GET")
	}

	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// Handler returns the root handler with CORS applied, for tests and main.
func (s *Server) Handler() http.Handler {
	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(s.router)
}

// Start runs the HTTP server until it fails or Stop is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // cycles wait on the oracle
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("[api] listening on %s", s.cfg.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[api] panic on %s: %v", r.URL.Path, err)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	}
	if s.hub != nil {
		health["stream_clients"] = s.hub.ClientCount()
	}
	writeJSON(w, http.StatusOK, health)
}

// handleIndicators serves a single (market, timeframe) snapshot.
// GET /api/v1/indicators?market_id=1&timeframe=15m&limit=20
func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	marketID, err := strconv.Atoi(r.URL.Query().Get("market_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "market_id must be an integer")
		return
	}
	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = "15m"
	}
	limit := aggregate.DefaultOutputCount
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
	}

	snap, err := s.aggregator.GetIndicators(r.Context(), marketID, timeframe, limit)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("fetch indicators: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"symbol":     aggregate.SymbolFor(marketID),
		"timeframe":  timeframe,
		"indicators": snap,
	})
}

// handleAnalysis serves the full multi-timeframe analysis for one market.
// GET /api/v1/analysis?market_id=1
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	marketID, err := strconv.Atoi(r.URL.Query().Get("market_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "market_id must be an integer")
		return
	}
	writeJSON(w, http.StatusOK, s.aggregator.GetFullAnalysis(r.Context(), marketID))
}

// handleTradeDecision triggers one decision cycle synchronously.
func (s *Server) handleTradeDecision(w http.ResponseWriter, r *http.Request) {
	result := s.orchestrator.RunCycle(r.Context())
	status := http.StatusOK
	if result.Status != "success" {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, result)
}

// handleSentiment runs the market-regime analysis prompt.
func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	analysis, err := s.orchestrator.RunSentiment(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("sentiment analysis: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"analysis": analysis,
	})
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.account.Snapshot())
}

// handleJournal serves recent audit entries from the SQLite journal.
// GET /api/v1/journal?limit=50
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusServiceUnavailable, "journal not configured")
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		var err error
		if limit, err = strconv.Atoi(raw); err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
	}
	entries, err := s.journal.RecentEntries(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("read journal: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
