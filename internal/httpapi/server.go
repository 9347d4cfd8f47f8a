package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"meridian/internal/backtest"
	"meridian/internal/config"
	"meridian/internal/domain"
	"meridian/internal/optimize"
	"meridian/internal/store"
)

// Server serves the backtest HTTP API over a PriceStore.
type Server struct {
	store       store.PriceStore
	frequency   domain.Frequency
	window      int
	windowRange optimize.WindowRange
	workers     int
	log         *slog.Logger
}

// NewServer creates a Server reading series from the given store, with
// backtest defaults taken from the configuration.
func NewServer(st store.PriceStore, cfg *config.Config, log *slog.Logger) *Server {
	return &Server{
		store:     st,
		frequency: domain.Frequency(cfg.Backtest.Frequency),
		window:    cfg.Backtest.Window,
		windowRange: optimize.WindowRange{
			Start: cfg.Backtest.WindowRange.Start,
			End:   cfg.Backtest.WindowRange.End,
			Step:  cfg.Backtest.WindowRange.Step,
		},
		workers: cfg.Backtest.Workers,
		log:     log,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/assets", s.handleAssets)
	mux.HandleFunc("GET /api/backtest/{asset}", s.handleBacktest)
	mux.HandleFunc("GET /api/optimize/{asset}", s.handleOptimize)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := s.store.ListAssets(r.Context())
	if err != nil {
		s.log.Error("listing assets", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, AssetsResponse{Assets: assets})
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	asset := r.PathValue("asset")

	window := s.window
	if v := r.URL.Query().Get("window"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "window must be a positive integer")
			return
		}
		window = n
	}

	freq, ok := s.parseFrequency(w, r)
	if !ok {
		return
	}

	series, err := s.store.LoadPrices(r.Context(), asset)
	if err != nil {
		writeError(w, http.StatusNotFound, "no price data for "+asset)
		return
	}

	metrics, err := backtest.Run(series, window, freq)
	if err != nil {
		s.log.Warn("backtest failed", "asset", asset, "window", window, "err", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, BacktestResponse{
		Asset:     asset,
		Window:    window,
		Frequency: string(freq),
		Periods:   len(series),
		Metrics:   metrics,
	})
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	asset := r.PathValue("asset")

	windows := s.windowRange
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"start", &windows.Start},
		{"end", &windows.End},
		{"step", &windows.Step},
	} {
		if v := q.Get(p.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, p.name+" must be a positive integer")
				return
			}
			*p.dst = n
		}
	}

	freq, ok := s.parseFrequency(w, r)
	if !ok {
		return
	}

	series, err := s.store.LoadPrices(r.Context(), asset)
	if err != nil {
		writeError(w, http.StatusNotFound, "no price data for "+asset)
		return
	}

	gs := optimize.NewGridSearch(freq, s.workers)
	result, err := gs.Run(r.Context(), series, windows)
	if err != nil {
		if errors.Is(err, optimize.ErrNoOptimalWindow) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.log.Error("grid search failed", "asset", asset, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, OptimizeResponse{
		Asset:         asset,
		Frequency:     string(freq),
		BestWindow:    result.BestWindow,
		BestObjective: result.BestObjective,
		Scores:        result.Scores,
	})
}

// parseFrequency reads the optional "frequency" query param, falling back
// to the configured default. Writes a 400 and returns false on an unknown
// frequency.
func (s *Server) parseFrequency(w http.ResponseWriter, r *http.Request) (domain.Frequency, bool) {
	freq := s.frequency
	if v := r.URL.Query().Get("frequency"); v != "" {
		freq = domain.Frequency(v)
	}
	if _, err := freq.PeriodsPerYear(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return freq, true
}
