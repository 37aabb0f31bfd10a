package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"positionScope/internal/model"
	"positionScope/internal/ordering"
	"positionScope/internal/positions"
	"positionScope/internal/storage"
	"positionScope/internal/univ3"
	"positionScope/internal/view"
)

const maxBodyBytes = 1 << 20

// PositionSource loads positions from chain.
type PositionSource interface {
	Load(ctx context.Context, tokenID string) (*positions.Loaded, error)
	ListOwner(ctx context.Context, owner string, page positions.Page) (positions.OwnerPage, error)
}

// ViewCache returns the last view recorded for a position.
type ViewCache interface {
	LoadPositionView(ctx context.Context, chainID uint64, tokenID string) (model.PositionView, error)
}

// SourceHeader tells clients whether a view came from chain or from the cache.
const SourceHeader = "X-Position-Source"

// Options configures a Server.
type Options struct {
	Table          ordering.Classification
	AllowedOrigins []string
	RequestTimeout time.Duration
	// Sink, when set, receives every view served.
	Sink storage.Storage
	// Cache, when set, answers position reads the chain could not serve.
	Cache    ViewCache
	ChainID  uint64
	Registry *prometheus.Registry
	Logger   *zap.Logger
	Now      func() time.Time
}

// Server handles the REST API.
type Server struct {
	source  PositionSource
	opts    Options
	router  *mux.Router
	metrics *Metrics
	logger  *zap.Logger
}

// NewServer creates a new API server.
func NewServer(source PositionSource, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		source:  source,
		opts:    opts,
		router:  mux.NewRouter(),
		metrics: NewMetrics(opts.Registry),
		logger:  opts.Logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.instrument)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/positions/{tokenId}", s.handleGetPosition).Methods("GET")
	api.HandleFunc("/owners/{address}/positions", s.handleGetOwnerPositions).Methods("GET")
	api.HandleFunc("/resolve", s.handleResolve).Methods("POST")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{})).Methods("GET")
}

// Handler returns the router wrapped with CORS.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{SourceHeader},
	})
	return c.Handler(s.router)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server starting", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("api server stopping")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	tokenID := mux.Vars(r)["tokenId"]
	invert, err := parseInvert(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid query", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	loaded, err := s.source.Load(ctx, tokenID)
	if err != nil {
		if cached, ok := s.cached(r.Context(), tokenID, invert, err); ok {
			w.Header().Set(SourceHeader, "cache")
			respondJSON(w, cached)
			return
		}
		s.respondLoadError(w, tokenID, err)
		return
	}
	rendered, err := s.render(loaded, invert)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "render failed", err.Error())
		return
	}
	s.store([]model.PositionView{rendered})
	w.Header().Set(SourceHeader, "chain")
	respondJSON(w, rendered)
}

// cached serves the stored view of a position when the chain read failed upstream.
// The stored view must match the requested orientation.
func (s *Server) cached(parent context.Context, tokenID string, invert bool, loadErr error) (model.PositionView, bool) {
	if s.opts.Cache == nil {
		return model.PositionView{}, false
	}
	if kind := errorKind(loadErr); kind != "upstream" && kind != "timeout" {
		return model.PositionView{}, false
	}

	ctx, cancel := context.WithTimeout(parent, s.opts.RequestTimeout)
	defer cancel()

	stored, err := s.opts.Cache.LoadPositionView(ctx, s.opts.ChainID, tokenID)
	if err != nil {
		s.logger.Debug("cache miss", zap.String("token_id", tokenID), zap.Error(err))
		return model.PositionView{}, false
	}
	if (stored.Rule == string(ordering.RuleManual)) != invert {
		return model.PositionView{}, false
	}
	s.metrics.CacheHitsTotal.Inc()
	s.logger.Warn("serving cached view",
		zap.String("token_id", tokenID),
		zap.Time("rendered_at", stored.RenderedAt),
		zap.Error(loadErr),
	)
	return stored, true
}

func (s *Server) handleGetOwnerPositions(w http.ResponseWriter, r *http.Request) {
	owner := mux.Vars(r)["address"]
	if !common.IsHexAddress(owner) {
		respondError(w, http.StatusBadRequest, "invalid address", owner)
		return
	}
	invert, err := parseInvert(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid query", err.Error())
		return
	}
	page, err := parsePage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid query", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	owned, err := s.source.ListOwner(ctx, owner, page)
	if err != nil {
		s.respondLoadError(w, owner, err)
		return
	}

	resp := OwnerPositions{
		Owner:     common.HexToAddress(owner).Hex(),
		Total:     owned.Total,
		Next:      owned.Next,
		Positions: make([]model.PositionView, 0, len(owned.IDs)),
	}
	for _, id := range owned.IDs {
		loaded, err := s.source.Load(ctx, id)
		if err != nil {
			s.metrics.LoadErrorsTotal.WithLabelValues(errorKind(err)).Inc()
			s.logger.Warn("position load failed", zap.String("token_id", id), zap.Error(err))
			resp.Failed = append(resp.Failed, id)
			continue
		}
		rendered, err := s.render(loaded, invert)
		if err != nil {
			s.logger.Warn("position render failed", zap.String("token_id", id), zap.Error(err))
			resp.Failed = append(resp.Failed, id)
			continue
		}
		resp.Positions = append(resp.Positions, rendered)
	}
	s.store(resp.Positions)
	respondJSON(w, resp)
}

// ResolveRequest is the body of POST /api/v1/resolve.
type ResolveRequest struct {
	positions.OfflineRequest
	Invert bool `json:"invert"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if !common.IsHexAddress(req.TokenA.Address) || !common.IsHexAddress(req.TokenB.Address) {
		respondError(w, http.StatusBadRequest, "invalid token address", "token_a.address and token_b.address are required")
		return
	}

	loaded, err := positions.Offline(req.OfflineRequest)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid position", err.Error())
		return
	}
	rendered, err := s.render(loaded, req.Invert)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "render failed", err.Error())
		return
	}
	respondJSON(w, rendered)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stables, bases := s.opts.Table.Counts()
	respondJSON(w, HealthResponse{Status: "ok", Stables: stables, Bases: bases})
}

func (s *Server) render(loaded *positions.Loaded, invert bool) (model.PositionView, error) {
	rendered, err := view.Build(loaded.Input(), s.opts.Table, view.Options{Invert: invert, Now: s.opts.Now})
	if err != nil {
		return model.PositionView{}, err
	}
	s.metrics.ResolvedTotal.WithLabelValues(rendered.Rule).Inc()
	return rendered, nil
}

func (s *Server) store(views []model.PositionView) {
	if s.opts.Sink == nil || len(views) == 0 {
		return
	}
	if err := s.opts.Sink.PutViews(views); err != nil {
		s.logger.Warn("store views failed", zap.Int("count", len(views)), zap.Error(err))
	}
}

func (s *Server) respondLoadError(w http.ResponseWriter, subject string, err error) {
	kind := errorKind(err)
	s.metrics.LoadErrorsTotal.WithLabelValues(kind).Inc()
	switch kind {
	case "not_found":
		respondError(w, http.StatusNotFound, "position not found", subject)
	case "invalid":
		respondError(w, http.StatusBadRequest, "invalid position", err.Error())
	case "timeout":
		respondError(w, http.StatusGatewayTimeout, "upstream timeout", err.Error())
	default:
		s.logger.Error("load failed", zap.String("subject", subject), zap.Error(err))
		respondError(w, http.StatusBadGateway, "upstream error", err.Error())
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, positions.ErrPositionNotFound):
		return "not_found"
	case errors.Is(err, positions.ErrInvalidInput),
		errors.Is(err, univ3.ErrInvalidTickRange),
		errors.Is(err, univ3.ErrTickOutOfRange),
		errors.Is(err, univ3.ErrTokensNotSorted),
		errors.Is(err, univ3.ErrUnknownFee):
		return "invalid"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "upstream"
	}
}

func parseInvert(r *http.Request) (bool, error) {
	raw := r.URL.Query().Get("invert")
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

func parsePage(r *http.Request) (positions.Page, error) {
	var page positions.Page
	query := r.URL.Query()
	for _, field := range []struct {
		name string
		dst  *int
	}{{"offset", &page.Offset}, {"limit", &page.Limit}} {
		raw := query.Get(field.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return positions.Page{}, fmt.Errorf("%s must be a non-negative integer", field.name)
		}
		*field.dst = n
	}
	return page, nil
}

// instrument records request metrics and logs each request.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		s.metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		s.metrics.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", elapsed),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
