// Package server exposes the query surface over HTTP and streams
// breaking-news alerts over WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"news-impact-engine/internal/cache"
	"news-impact-engine/internal/interfaces"
	"news-impact-engine/internal/logger"
	"news-impact-engine/internal/query"
	"news-impact-engine/internal/types"
)

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins []string
	Version        string
	// RefreshTimeout bounds an on-demand cycle triggered over HTTP.
	RefreshTimeout time.Duration
	// CacheStats, when set, adds per-tier cache counters to /health.
	CacheStats func() []cache.Stats
}

type Server struct {
	router   chi.Router
	opts     Options
	pipeline interfaces.Pipeline
	query    *query.Service
	hub      *WSHub
	now      func() time.Time

	// IDs already announced as breaking, so alerts fire once per article.
	mu        sync.Mutex
	announced map[string]bool
}

func NewServer(p interfaces.Pipeline, opts Options) *Server {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = 2 * time.Minute
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{
		opts:      opts,
		pipeline:  p,
		query:     query.NewService(p),
		hub:       NewWSHub(),
		now:       time.Now,
		announced: make(map[string]bool),
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the alert hub.
func (s *Server) Hub() *WSHub {
	return s.hub
}

// ListenAndServe serves until ctx is done and then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: s.opts.RefreshTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.hub.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info(ctx, "Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Upgraded connections outlive any request timeout.
	r.Get("/ws", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.opts.RefreshTimeout + 5*time.Second))

		r.Get("/health", s.handleHealth)

		r.Route("/api/v1/news", func(r chi.Router) {
			r.Get("/", s.handleFeed)
			r.Get("/sentiment/summary", s.handleSentimentSummary)
			r.Get("/impact/{marketId}", s.handleMarketImpact)
			r.Get("/categories", s.handleCategories)
			r.Get("/article/{id}", s.handleArticle)
			r.Post("/refresh", s.handleRefresh)
		})
	})

	return r
}

// PublishBreaking broadcasts breaking articles of snap that were not
// announced before. It matches the pipeline's publish listener signature.
func (s *Server) PublishBreaking(ctx context.Context, snap *types.Snapshot) {
	breaking := query.Breaking(snap, s.now())

	s.mu.Lock()
	current := make(map[string]bool, len(snap.Articles))
	for _, a := range snap.Articles {
		if s.announced[a.ID] {
			current[a.ID] = true
		}
	}
	var fresh []query.ArticleView
	for _, v := range breaking {
		if !current[v.ID] {
			current[v.ID] = true
			fresh = append(fresh, v)
		}
	}
	s.announced = current
	s.mu.Unlock()

	if len(fresh) == 0 {
		return
	}
	logger.Info(ctx, "Broadcasting breaking news", "count", len(fresh), "clients", s.hub.ClientCount())
	s.hub.Broadcast(WSMessage{Type: "breaking_news", Data: fresh})
}

// requestLogger logs each request through the structured logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debug(r.Context(), "HTTP request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
