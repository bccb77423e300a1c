// Package server is the browser shell: upload an export, pick a poster and
// download it.
package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/sportsposter/internal/cache"
	"github.com/verte-zerg/sportsposter/internal/model"
	"github.com/verte-zerg/sportsposter/internal/observability"
	"github.com/verte-zerg/sportsposter/internal/poster"
	"github.com/verte-zerg/sportsposter/internal/ratelimit"
	"github.com/verte-zerg/sportsposter/internal/session"
)

// SessionCookie carries the session id.
const SessionCookie = "sportsposter_session"

//go:embed templates/*.html
var templateFS embed.FS

// Config holds the shell's tunables.
type Config struct {
	Addr           string  `validate:"required"`
	MaxUploadBytes int64   `validate:"gt=0"`
	Scale          float64 `validate:"gt=0,lte=4"`
	UploadRPS      float64 `validate:"gt=0"`
	UploadBurst    int     `validate:"gte=1"`
	Sessions       int     `validate:"gte=1"`
	SessionTTL     time.Duration
	Style          poster.Style
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		MaxUploadBytes: 50 << 20,
		Scale:          2,
		UploadRPS:      0.5,
		UploadBurst:    5,
		Sessions:       256,
		SessionTTL:     cache.DefaultTTL,
		Style:          poster.DefaultStyle(),
	}
}

// Recorder persists completed renders. The store implements it.
type Recorder interface {
	InsertRender(ctx context.Context, r model.RenderRecord) (int64, error)
}

// Server wires the HTTP handlers to sessions and caches.
type Server struct {
	cfg       Config
	sessions  *session.Manager
	parses    *cache.ParseCache
	artifacts *cache.Artifacts
	limiter   *ratelimit.KeyedRateLimiter
	metrics   *observability.Metrics
	history   Recorder
	pages     *template.Template
}

// New builds a server. history may be nil.
func New(cfg Config, history Recorder) *Server {
	sessions := session.NewManager(cfg.Sessions, cfg.SessionTTL)
	artifacts := cache.NewArtifacts(cache.DefaultArtifactBytes, cfg.SessionTTL)
	s := &Server{
		cfg:       cfg,
		sessions:  sessions,
		parses:    cache.NewParseCache(cache.DefaultParseEntries, cfg.SessionTTL),
		artifacts: artifacts,
		limiter:   ratelimit.New(cfg.UploadRPS, cfg.UploadBurst, 10*time.Minute),
		metrics: observability.NewMetrics(
			func() float64 { return float64(sessions.Len()) },
			func() float64 { return float64(artifacts.Entries()) },
		),
		history: history,
		pages:   template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
	return s
}

// Router returns the HTTP handler with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(s.metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))

	r.Get("/", s.index)
	r.With(s.limiter.Middleware(s.metrics.IncrRateLimited)).Post("/upload", s.upload)
	r.Post("/render", s.render)
	r.Get("/download/{format}", s.download)
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.WithError(err).Warn("failed to close server")
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("listening on %s", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close stops background work started by New. Run calls it on return.
func (s *Server) Close() error {
	s.limiter.Stop()
	return nil
}
