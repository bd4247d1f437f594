package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hubert-project/hubert/envelope"
	"github.com/hubert-project/hubert/internal/logger"
)

// DefaultPort is the loopback service's default listen port (spec.md §6).
const DefaultPort = 45678

// DefaultMaxTTL bounds every entry's lifetime absent a tighter
// server-configured maximum.
const DefaultMaxTTL = 24 * time.Hour

// SweepInterval is the cadence of the background expiry sweep
// (spec.md §4.E).
const SweepInterval = 60 * time.Second

// Version is reported by the /health endpoint.
const Version = "0.1.0"

// Server is the HTTP service fronting Table (spec.md §4.E).
type Server struct {
	table   Table
	maxTTL  time.Duration
	log     logger.Logger
	verbose bool
	mux     *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithMaxTTL overrides DefaultMaxTTL.
func WithMaxTTL(d time.Duration) Option {
	return func(s *Server) { s.maxTTL = d }
}

// WithLogger overrides the default logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithVerbose enables per-request structured logging.
func WithVerbose(v bool) Option {
	return func(s *Server) { s.verbose = v }
}

// WithMetrics registers a /metrics endpoint backed by Registry.
func WithMetrics() Option {
	return func(s *Server) { s.mux.Handle("/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})) }
}

// NewServer builds a Server over table. Options that add routes (e.g.
// WithMetrics) must be passed to NewServer since routes are registered
// once at construction.
func NewServer(table Table, opts ...Option) *Server {
	s := &Server{
		table:  table,
		maxTTL: DefaultMaxTTL,
		log:    logger.GetDefaultLogger(),
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc("/put", s.handlePut)
	s.mux.HandleFunc("/get", s.handleGet)
	s.mux.HandleFunc("/health", s.handleHealth)

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the server's http.Handler for use with httptest or a
// custom http.Server.
func (s *Server) Handler() http.Handler { return s.mux }

func readLines(r *http.Request) ([]string, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	defer r.Body.Close()

	if !utf8.Valid(body) {
		return nil, fmt.Errorf("body is not valid UTF-8")
	}
	return strings.Split(strings.TrimRight(string(body), "\n"), "\n"), nil
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	lines, err := readLines(r)
	if err != nil {
		putsTotal.WithLabelValues("bad_request").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(lines) < 2 || lines[0] == "" || lines[1] == "" {
		putsTotal.WithLabelValues("bad_request").Inc()
		http.Error(w, "expected ARID and Envelope lines", http.StatusBadRequest)
		return
	}

	arid, err := envelope.ParseARID(lines[0])
	if err != nil {
		putsTotal.WithLabelValues("bad_request").Inc()
		http.Error(w, fmt.Sprintf("invalid ARID: %v", err), http.StatusBadRequest)
		return
	}
	env, err := envelope.Parse(lines[1])
	if err != nil {
		putsTotal.WithLabelValues("bad_request").Inc()
		http.Error(w, fmt.Sprintf("invalid Envelope: %v", err), http.StatusBadRequest)
		return
	}

	requestedTTL := s.maxTTL
	if len(lines) >= 3 && strings.TrimSpace(lines[2]) != "" {
		seconds, err := strconv.ParseInt(strings.TrimSpace(lines[2]), 10, 64)
		if err != nil {
			putsTotal.WithLabelValues("bad_request").Inc()
			http.Error(w, fmt.Sprintf("invalid TTL: %v", err), http.StatusBadRequest)
			return
		}
		requestedTTL = time.Duration(seconds) * time.Second
	}

	effectiveTTL := requestedTTL
	if effectiveTTL <= 0 || effectiveTTL > s.maxTTL {
		effectiveTTL = s.maxTTL
	}
	expiresAt := time.Now().Unix() + int64(effectiveTTL.Seconds())

	err = s.table.Insert(r.Context(), arid.String(), env.String(), expiresAt)
	if errors.Is(err, ErrAlreadyExists) {
		putsTotal.WithLabelValues("conflict").Inc()
		http.Error(w, "ARID already exists", http.StatusConflict)
		return
	}
	if err != nil {
		putsTotal.WithLabelValues("error").Inc()
		http.Error(w, fmt.Sprintf("storage error: %v", err), http.StatusInternalServerError)
		return
	}

	putsTotal.WithLabelValues("ok").Inc()
	if s.verbose {
		s.log.Info("server put", logger.String("arid", arid.String()), logger.Duration("ttl", effectiveTTL))
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	lines, err := readLines(r)
	if err != nil {
		getsTotal.WithLabelValues("bad_request").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(lines) < 1 || lines[0] == "" {
		getsTotal.WithLabelValues("bad_request").Inc()
		http.Error(w, "expected ARID line", http.StatusBadRequest)
		return
	}

	arid, err := envelope.ParseARID(lines[0])
	if err != nil {
		getsTotal.WithLabelValues("bad_request").Inc()
		http.Error(w, fmt.Sprintf("invalid ARID: %v", err), http.StatusBadRequest)
		return
	}

	envelopeText, expiresAt, ok, err := s.table.Get(r.Context(), arid.String())
	if err != nil {
		getsTotal.WithLabelValues("error").Inc()
		http.Error(w, fmt.Sprintf("storage error: %v", err), http.StatusInternalServerError)
		return
	}
	if !ok || time.Now().Unix() >= expiresAt {
		if ok {
			_ = s.table.Delete(r.Context(), arid.String())
		}
		getsTotal.WithLabelValues("not_found").Inc()
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	getsTotal.WithLabelValues("ok").Inc()
	if s.verbose {
		s.log.Info("server get", logger.String("arid", arid.String()))
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, envelopeText)
}

type healthResponse struct {
	Server  string `json:"server"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(healthResponse{Server: "hubert", Version: Version, Status: "ok"})
}

// RunSweeper runs the periodic expiry sweep until ctx is canceled. Call it
// in its own goroutine alongside the HTTP server.
func (s *Server) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned, err := s.table.DeleteExpired(ctx, time.Now().Unix())
			if err != nil {
				s.log.Warn("sweep failed", logger.Err(err))
				continue
			}
			if len(pruned) > 0 {
				entriesPruned.Add(float64(len(pruned)))
				if s.verbose {
					s.log.Info("sweep pruned entries", logger.Int("count", len(pruned)))
				}
			}
		}
	}
}
