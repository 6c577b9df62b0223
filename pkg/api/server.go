// Package api serves quotes, pool state and swap submission over HTTP for
// a browser front end, with status pushed over a websocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"aptos-swap/pkg/catalog"
	"aptos-swap/pkg/feed"
	"aptos-swap/pkg/pool"
	"aptos-swap/pkg/quote"
	"aptos-swap/pkg/swap"
	"aptos-swap/pkg/types"
	"aptos-swap/pkg/units"
)

// Server represents an HTTP server with all routes configured
type Server struct {
	catalog *catalog.Catalog
	pools   *pool.Cache
	ctrl    *swap.Controller
	feed    *feed.Broadcaster
	feeBps  uint32
	logger  *slog.Logger

	// selection changes and the reads that depend on them are serialized
	selectMu sync.Mutex

	mux    *http.ServeMux
	server *http.Server
}

type Deps struct {
	Catalog    *catalog.Catalog
	Pools      *pool.Cache
	Controller *swap.Controller
	Feed       *feed.Broadcaster
	FeeBps     uint32
	Logger     *slog.Logger
}

// NewServer creates a new HTTP server with configured routes
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	mux := http.NewServeMux()
	s := &Server{
		catalog: deps.Catalog,
		pools:   deps.Pools,
		ctrl:    deps.Controller,
		feed:    deps.Feed,
		feeBps:  deps.FeeBps,
		logger:  deps.Logger,
		mux:     mux,
	}
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /tokens", s.handleTokens)
	s.mux.HandleFunc("GET /pool", s.handlePool)
	s.mux.HandleFunc("GET /quote", s.handleQuote)
	s.mux.HandleFunc("POST /swap", s.handleSwap)
	s.mux.HandleFunc("GET /status", s.handleStatus)
	if s.feed != nil {
		s.mux.HandleFunc("GET /ws", s.feed.Handler())
	}
}

// Handler returns the routed handler wrapped in CORS headers
func (s *Server) Handler() http.Handler {
	return corsMiddleware(s.mux)
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	s.logger.Info("api listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	if s.feed != nil {
		s.feed.Close()
	}
	return s.server.Shutdown(ctx)
}

type poolResponse struct {
	Input      string `json:"input"`
	Output     string `json:"output"`
	ReserveIn  string `json:"reserve_in"`
	ReserveOut string `json:"reserve_out"`
	SpotPrice  string `json:"spot_price"`
	Tradeable  bool   `json:"tradeable"`
	FetchedAt  string `json:"fetched_at,omitempty"`
}

type swapRequest struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Amount      string `json:"amount"`
	Unprotected bool   `json:"unprotected"`
}

type swapResponse struct {
	IntentID string      `json:"intent_id"`
	Status   swap.Status `json:"status"`
	MinOut   string      `json:"min_out"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.All())
}

func (s *Server) handlePool(w http.ResponseWriter, r *http.Request) {
	in, out, err := s.resolvePair(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, err)
		return
	}

	s.selectMu.Lock()
	defer s.selectMu.Unlock()

	snapshot, err := s.pools.SelectAndRefresh(r.Context(), types.NewPair(in, out))
	if err != nil {
		writeError(w, err)
		return
	}

	reserveIn, reserveOut := snapshot.Reserves()
	writeJSON(w, http.StatusOK, poolResponse{
		Input:      in.Ticker,
		Output:     out.Ticker,
		ReserveIn:  units.Format(reserveIn, in.Decimals),
		ReserveOut: units.Format(reserveOut, out.Decimals),
		SpotPrice:  quote.SpotPrice(reserveIn, reserveOut, in.Decimals, out.Decimals).String(),
		Tradeable:  snapshot.Tradeable(),
		FetchedAt:  snapshot.FetchedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in, out, err := s.resolvePair(q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, err)
		return
	}

	s.selectMu.Lock()
	defer s.selectMu.Unlock()

	snapshot, err := s.ensurePool(r.Context(), types.NewPair(in, out))
	if err != nil {
		writeError(w, err)
		return
	}

	reserveIn, reserveOut := snapshot.Reserves()
	result, err := quote.Compute(reserveIn, reserveOut, q.Get("amount"), in, out, s.feeBps)
	if errors.Is(err, units.ErrInvalidAmount) || errors.Is(err, units.ErrOutOfRange) {
		// an untradeable amount quotes as zero, like an empty input field
		result, err = quote.Zero(reserveIn, reserveOut, in, out, s.feeBps), nil
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result.Display())
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	var req swapRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	in, out, err := s.resolvePair(req.From, req.To)
	if err != nil {
		writeError(w, err)
		return
	}

	s.selectMu.Lock()
	defer s.selectMu.Unlock()

	if _, err := s.ensurePool(r.Context(), types.NewPair(in, out)); err != nil {
		writeError(w, err)
		return
	}

	intent := swap.NewIntent(in, out, req.Amount)
	intent.Unprotected = req.Unprotected

	_, minOut, err := s.ctrl.Prepare(intent)
	if err != nil {
		writeError(w, err)
		return
	}
	// the attempt outlives this request
	if err := s.ctrl.ExecuteSwap(context.WithoutCancel(r.Context()), intent); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, swapResponse{
		IntentID: intent.ID,
		Status:   swap.StatusPending,
		MinOut:   units.Format(minOut, out.Decimals),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Last())
}

func (s *Server) resolvePair(from, to string) (types.Asset, types.Asset, error) {
	in, err := s.catalog.BySymbol(from)
	if err != nil {
		return types.Asset{}, types.Asset{}, err
	}
	out, err := s.catalog.BySymbol(to)
	if err != nil {
		return types.Asset{}, types.Asset{}, err
	}
	if in.Identifier == out.Identifier {
		return types.Asset{}, types.Asset{}, swap.ErrInvalidInput
	}
	return in, out, nil
}

// ensurePool makes pair the selection, fetching it only when the cache
// holds nothing for it yet
func (s *Server) ensurePool(ctx context.Context, pair types.Pair) (pool.Pool, error) {
	snapshot := s.pools.Current()
	if snapshot.Pair == pair && !snapshot.IsEmpty() {
		return snapshot, nil
	}
	return s.pools.SelectAndRefresh(ctx, pair)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrUnknownAsset),
		errors.Is(err, swap.ErrInvalidInput),
		errors.Is(err, units.ErrInvalidAmount),
		errors.Is(err, units.ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, swap.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, swap.ErrUnprotectedSwap):
		return http.StatusForbidden
	case errors.Is(err, swap.ErrSwapInProgress), errors.Is(err, pool.ErrStaleResponse):
		return http.StatusConflict
	case errors.Is(err, swap.ErrUninitializedPool), errors.Is(err, quote.ErrInsufficientLiquidity):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pool.ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
