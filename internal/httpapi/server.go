package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	apimw "github.com/hamed0406/sitewatch/internal/httpapi/middleware"
	"github.com/hamed0406/sitewatch/internal/metrics"
	"github.com/hamed0406/sitewatch/internal/repo"
	"github.com/hamed0406/sitewatch/internal/scheduler"
)

// Source is the read side of the metrics registry.
type Source interface {
	Gatherer() prometheus.Gatherer
	Summarize(targets []domain.Target, now time.Time) metrics.Status
}

// Stater reports the scheduler state; optional.
type Stater interface {
	State() scheduler.State
}

type Options struct {
	AllowedOrigins []string // empty allows all
	ScrapeTokens   []string
	StatusRPM      int
	StatusBurst    int
}

type Server struct {
	Logger    *zap.Logger
	Targets   repo.TargetRegistry
	Metrics   Source
	Scheduler Stater
	Opts      Options

	now func() time.Time
}

func NewServer(l *zap.Logger, targets repo.TargetRegistry, m Source, sched Stater, opts Options) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Targets: targets, Metrics: m, Scheduler: sched, Opts: opts, now: time.Now}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(s.corsHandler())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.With(apimw.RequireToken(s.Opts.ScrapeTokens)).
		Handle("/metrics", promhttp.HandlerFor(s.Metrics.Gatherer(), promhttp.HandlerOpts{
			ErrorLog:      zap.NewStdLog(s.Logger),
			ErrorHandling: promhttp.ContinueOnError,
		}))

	r.With(apimw.RateLimit(s.Opts.StatusRPM, s.Opts.StatusBurst)).
		Get("/status", s.handleStatus)

	return r
}

func (s *Server) corsHandler() func(http.Handler) http.Handler {
	if len(s.Opts.AllowedOrigins) == 0 {
		return cors.AllowAll().Handler
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: s.Opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "X-API-Key"},
		MaxAge:         300,
	})
}

type statusResponse struct {
	metrics.Status
	State string `json:"state,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Status: s.Metrics.Summarize(s.Targets.List(), s.now())}
	if s.Scheduler != nil {
		resp.State = s.Scheduler.State().String()
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.Logger.Warn("status_encode_error", zap.Error(err))
	}
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.Logger.Info("api_listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if serveErr := <-errc; !errors.Is(serveErr, http.ErrServerClosed) && err == nil {
		err = serveErr
	}
	s.Logger.Info("api_stopped")
	return err
}
