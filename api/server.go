// Package api provides the HTTP REST API server for InvestScout.
//
// It exposes endpoints for running screens over the embedded universes,
// scoring caller-supplied metrics, browsing the universe and styles, and a
// WebSocket that streams fetch progress while a screen runs.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/seenimoa/investscout/internal/config"
	"github.com/seenimoa/investscout/internal/datasource"
	"github.com/seenimoa/investscout/internal/report"
	"github.com/seenimoa/investscout/internal/screener"
	"github.com/seenimoa/investscout/internal/universe"
	"github.com/seenimoa/investscout/pkg/models"
	"github.com/seenimoa/investscout/pkg/utils"
)

// IntakeFactory builds the metric intake for one screen. progress may be nil.
type IntakeFactory func(progress func(done, total int)) (screener.Intake, error)

// Server is the HTTP API server.
type Server struct {
	router    chi.Router
	cfg       *config.Config
	universe  *universe.Universe
	newIntake IntakeFactory
	wsHub     *WSHub
	logger    zerolog.Logger
	version   string
}

// Option configures a Server.
type Option func(*Server)

// WithIntakeFactory replaces the config-driven fetcher, e.g. with a stub in tests.
func WithIntakeFactory(f IntakeFactory) Option {
	return func(s *Server) {
		s.newIntake = f
	}
}

// WithLogger sets a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVersion sets the version reported by the health endpoint.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	u, err := universe.Load()
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		universe: u,
		wsHub:    NewWSHub(),
		logger:   zerolog.Nop(),
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "api").Logger()

	if s.newIntake == nil {
		s.newIntake = func(progress func(done, total int)) (screener.Intake, error) {
			return datasource.NewFetcherFromConfig(cfg.Fetch, s.logger,
				datasource.WithSectorLookup(u.SectorOf),
				datasource.WithProgress(progress),
			)
		}
	}

	s.router = s.buildRouter()
	return s, nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server and blocks until SIGINT or SIGTERM,
// then shuts down gracefully.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go s.wsHub.Run(hubCtx)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("API server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-done:
	}
	s.logger.Info().Msg("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// WebSocket connections outlive the request timeout.
	r.Get("/api/v1/ws", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(120 * time.Second))

		r.Get("/health", s.handleHealth)

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/health", s.handleHealth)

			// Universe
			r.Get("/universe", s.handleUniverse)
			r.Get("/sectors", s.handleSectors)
			r.Get("/styles", s.handleStyles)

			// Screening
			r.Post("/screen", s.handleScreen)
			r.Post("/score", s.handleScore)

			// Configuration
			r.Get("/config", s.handleGetConfig)
		})
	})

	return r
}

// requestLogger logs one line per request through zerolog.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info().
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("elapsed", time.Since(start)).
					Msg("HTTP request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CriteriaParams overrides the configured default screen. Nil fields keep
// the configured value.
type CriteriaParams struct {
	Style          *string  `json:"style,omitempty"            validate:"omitempty,oneof=blend growth value dividend"`
	TopN           *int     `json:"top_n,omitempty"            validate:"omitempty,gte=1,lte=500"`
	Risk           *string  `json:"risk,omitempty"             validate:"omitempty,oneof=large mid small"`
	Sectors        []string `json:"sectors,omitempty"`
	MinAnalysts    *int     `json:"min_analysts,omitempty"     validate:"omitempty,gte=0"`
	MinUpside      *float64 `json:"min_upside,omitempty"`
	MaxMarketCap   *float64 `json:"max_market_cap,omitempty"   validate:"omitempty,gte=0"`
	BuyRatingsOnly *bool    `json:"buy_ratings_only,omitempty"`
}

// ScreenRequest is the body for POST /api/v1/screen and the data of a
// WebSocket "screen" message.
type ScreenRequest struct {
	CriteriaParams
	Market  string   `json:"market,omitempty"  validate:"omitempty,oneof=both us ca"`
	Tickers []string `json:"tickers,omitempty" validate:"omitempty,max=1000,dive,required"`
}

// ScoreRequest is the body for POST /api/v1/score.
type ScoreRequest struct {
	CriteriaParams
	Records []models.RawMetrics `json:"records" validate:"required,min=1,max=5000"`
}

// ScreenResponse is the data of a successful screen or score call.
type ScreenResponse struct {
	*screener.Result
	Summary   report.Summary `json:"summary"`
	ElapsedMS int64          `json:"elapsed_ms"`
}

// StyleInfo describes one investing style.
type StyleInfo struct {
	Name    string           `json:"name"`
	Title   string           `json:"title"`
	Weights screener.Weights `json:"weights"`
}

var validate = validator.New()

// merge applies the overrides in p on top of the configured defaults.
func (p CriteriaParams) merge(base config.ScreeningConfig) config.ScreeningConfig {
	if p.Style != nil {
		base.Style = *p.Style
	}
	if p.TopN != nil {
		base.TopN = *p.TopN
	}
	if p.Risk != nil {
		base.Risk = *p.Risk
	}
	if p.Sectors != nil {
		base.Sectors = p.Sectors
	}
	if p.MinAnalysts != nil {
		base.MinAnalysts = *p.MinAnalysts
	}
	if p.MinUpside != nil {
		base.MinUpside = *p.MinUpside
	}
	if p.MaxMarketCap != nil {
		base.MaxMarketCap = *p.MaxMarketCap
	}
	if p.BuyRatingsOnly != nil {
		base.BuyRatingsOnly = *p.BuyRatingsOnly
	}
	return base
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := utils.NowEastern()
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":  "ok",
			"version": s.version,
			"market_status": map[string]string{
				string(utils.NYSE): utils.MarketStatus(utils.NYSE, now),
				string(utils.TSX):  utils.MarketStatus(utils.TSX, now),
			},
			"time_et": now.Format("2006-01-02 15:04:05 MST"),
		},
	})
}

func (s *Server) handleUniverse(w http.ResponseWriter, r *http.Request) {
	market := universe.ParseMarket(r.URL.Query().Get("market"))
	type indexInfo struct {
		Name         string                 `json:"name"`
		Count        int                    `json:"count"`
		Constituents []universe.Constituent `json:"constituents"`
	}
	var indexes []indexInfo
	for _, idx := range s.universe.Indexes(market) {
		indexes = append(indexes, indexInfo{
			Name:         idx.Name,
			Count:        len(idx.Constituents),
			Constituents: idx.Constituents,
		})
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"market":  market,
			"tickers": len(s.universe.Tickers(market)),
			"indexes": indexes,
		},
	})
}

func (s *Server) handleSectors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: universe.Sectors()})
}

func (s *Server) handleStyles(w http.ResponseWriter, r *http.Request) {
	styles := make([]StyleInfo, 0, len(screener.Styles()))
	for _, st := range screener.Styles() {
		styles = append(styles, StyleInfo{Name: string(st), Title: st.Title(), Weights: st.Weights()})
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: styles})
}

// handleScreen fetches live metrics for the requested market or tickers and
// screens them. ?format=csv|html|table returns the rendered report instead
// of the JSON envelope.
func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	format := report.FormatJSON
	if f := r.URL.Query().Get("format"); f != "" {
		parsed, err := report.ParseFormat(f)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		format = parsed
	}

	var req ScreenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.runScreen(r.Context(), req, nil)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.writeResult(w, resp, format)
}

// handleScore screens caller-supplied metric snapshots without fetching.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	screenReq, err := s.screenRequest(req.CriteriaParams)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	s.normalizeSectors(req.Records)

	start := time.Now()
	res := screener.Screen(screener.NewRecords(req.Records), screenReq)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ScreenResponse{
			Result:    res,
			Summary:   report.SummaryOf(res),
			ElapsedMS: time.Since(start).Milliseconds(),
		},
	})
}

// normalizeSectors maps provider sector names onto the filter vocabulary,
// falling back to the universe's static sector, as the fetch path does.
func (s *Server) normalizeSectors(raws []models.RawMetrics) {
	for i := range raws {
		raws[i].Sector = universe.NormalizeSector(raws[i].Sector)
		if raws[i].Sector == "" {
			raws[i].Sector = s.universe.SectorOf(raws[i].Ticker)
		}
	}
}

// screenRequest validates params and merges them onto the configured screen.
func (s *Server) screenRequest(p CriteriaParams) (screener.Request, error) {
	if err := validate.Struct(p); err != nil {
		return screener.Request{}, fmt.Errorf("%w: %w", screener.ErrInvalidCriteria, err)
	}
	req := p.merge(s.cfg.Screening).Request()
	if err := req.Criteria.Validate(); err != nil {
		return screener.Request{}, err
	}
	return req, nil
}

// runScreen resolves the ticker list, builds an intake and runs the screen.
// Completed screens are announced to every WebSocket client.
func (s *Server) runScreen(ctx context.Context, req ScreenRequest, progress func(done, total int)) (*ScreenResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", screener.ErrInvalidCriteria, err)
	}
	screenReq, err := s.screenRequest(req.CriteriaParams)
	if err != nil {
		return nil, err
	}

	tickers := make([]string, 0, len(req.Tickers))
	for _, t := range req.Tickers {
		tickers = append(tickers, utils.NormalizeTicker(t))
	}
	market := req.Market
	if market == "" {
		market = s.cfg.Screening.Market
	}
	if len(tickers) == 0 {
		tickers = s.universe.Tickers(universe.ParseMarket(market))
	}

	intake, err := s.newIntake(progress)
	if err != nil {
		return nil, fmt.Errorf("build intake: %w", err)
	}

	start := time.Now()
	res, err := screener.New(intake, s.logger).Run(ctx, tickers, screenReq)
	if err != nil {
		return nil, err
	}
	resp := &ScreenResponse{
		Result:    res,
		Summary:   report.SummaryOf(res),
		ElapsedMS: time.Since(start).Milliseconds(),
	}

	s.wsHub.Broadcast(WSMessage{Type: "screen_complete", Data: resp.Summary})
	return resp, nil
}

func (s *Server) writeResult(w http.ResponseWriter, resp *ScreenResponse, format report.ReportFormat) {
	if format == report.FormatJSON {
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: resp})
		return
	}

	switch format {
	case report.FormatCSV:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	case report.FormatHTML:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	cfg := report.DefaultReportConfig()
	cfg.Format = format
	if err := report.Write(w, resp.Result, cfg); err != nil {
		s.logger.Error().Err(err).Str("format", string(format)).Msg("Failed to render report")
	}
}

// statusFor maps a screening error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, screener.ErrInvalidCriteria):
		return http.StatusBadRequest
	case errors.Is(err, screener.ErrNoData):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
