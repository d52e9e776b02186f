package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jdiitm/event-ingest/internal/ingest"
)

const maxEventBytes = 6 << 20

// Server exposes the handler over HTTP for local runs and containers: one
// POST /invoke per invocation, plus metrics and health endpoints.
type Server struct {
	invoker ingest.Invoker
	metrics http.Handler
	health  http.Handler
	logger  *slog.Logger
}

type Option func(*Server)

func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

func WithHealth(h http.Handler) Option {
	return func(s *Server) {
		s.health = h
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func New(invoker ingest.Invoker, opts ...Option) *Server {
	s := &Server{
		invoker: invoker,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/invoke", s.invoke)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	if s.health != nil {
		mux.Handle("/healthz", s.health)
	}
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http host listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) invoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxEventBytes+1))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	if len(data) > maxEventBytes {
		http.Error(w, "event too large", http.StatusRequestEntityTooLarge)
		return
	}

	var event ingest.Event
	if err := json.Unmarshal(data, &event); err != nil {
		s.logger.Warn("rejecting undecodable event", "error", err)
		http.Error(w, "event must be a JSON object", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if id := r.Header.Get("X-Request-Id"); id != "" {
		ctx = ingest.WithRequestID(ctx, id)
	}
	resp := s.invoker.Handle(ctx, event)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_ = json.NewEncoder(w).Encode(resp)
}
