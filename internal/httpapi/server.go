package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"stockintel/internal/analytics"
	"stockintel/internal/domain"
)

// Server serves the REST API.
type Server struct {
	q   analytics.Querier
	log *slog.Logger
}

// NewServer creates a Server answering from q.
func NewServer(q analytics.Querier, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{q: q, log: log.With("component", "httpapi")}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /companies", s.handleCompanies)
	mux.HandleFunc("GET /data/{symbol}", s.handleData)
	mux.HandleFunc("GET /summary/{symbol}", s.handleSummary)
	mux.HandleFunc("GET /compare", s.handleCompare)
	mux.HandleFunc("GET /insights/gainers", s.handleGainers)
	mux.HandleFunc("GET /insights/losers", s.handleLosers)
	mux.HandleFunc("GET /insights/volatility/{symbol}", s.handleVolatility)
}

// Handler returns an http.Handler with request logging and CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.logRequests(corsMiddleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start),
		)
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
	json.NewEncoder(w).Encode(ErrorResponse{Detail: msg})
}

// fail maps a query error to a response: ErrNotFound becomes 404 with
// notFound as detail, anything else a logged 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	if errors.Is(err, analytics.ErrNotFound) {
		writeError(w, http.StatusNotFound, notFound)
		return
	}
	s.log.Error("query failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// intParam parses the named query parameter, returning def when absent.
// Zero and negative values are rejected like malformed ones.
func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return n, nil
}

func notFound(symbol string) string {
	return fmt.Sprintf("Symbol %s not found", symbol)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, Health{Message: APITitle, Version: APIVersion, Docs: "/docs"})
}

func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.q.Companies(r.Context())
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	if companies == nil {
		companies = []domain.Company{}
	}
	writeJSON(w, CompaniesResponse{Companies: companies, Count: len(companies)})
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	days, err := intParam(r, "days", DefaultDays)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	data, err := s.q.Series(r.Context(), symbol, days)
	if err != nil {
		s.fail(w, r, err, notFound(symbol))
		return
	}
	writeJSON(w, SeriesResponse{Symbol: symbol, Data: data, Count: len(data)})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	sum, err := s.q.Summary(r.Context(), symbol)
	if err != nil {
		s.fail(w, r, err, notFound(symbol))
		return
	}
	writeJSON(w, sum)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	s1 := r.URL.Query().Get("symbol1")
	s2 := r.URL.Query().Get("symbol2")
	if s1 == "" || s2 == "" {
		writeError(w, http.StatusUnprocessableEntity, "symbol1 and symbol2 are required")
		return
	}
	cmp, err := s.q.Compare(r.Context(), s1, s2)
	if err != nil {
		s.fail(w, r, err, "One or both symbols not found")
		return
	}
	writeJSON(w, cmp)
}

func (s *Server) handleGainers(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", DefaultLimit)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	gainers, err := s.q.Gainers(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	if gainers == nil {
		gainers = []domain.InsightEntry{}
	}
	writeJSON(w, GainersResponse{Gainers: gainers, Count: len(gainers)})
}

func (s *Server) handleLosers(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", DefaultLimit)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	losers, err := s.q.Losers(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	if losers == nil {
		losers = []domain.InsightEntry{}
	}
	writeJSON(w, LosersResponse{Losers: losers, Count: len(losers)})
}

func (s *Server) handleVolatility(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	v, err := s.q.Volatility(r.Context(), symbol)
	if err != nil {
		s.fail(w, r, err, notFound(symbol))
		return
	}
	writeJSON(w, v)
}
