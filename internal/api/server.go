// Package api exposes the turn pipeline over HTTP: JSON request and
// response, an SSE checkpoint stream, and a websocket mirror of the
// same stream.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ziadkadry99/turnguard/internal/audit"
	"github.com/ziadkadry99/turnguard/internal/config"
	"github.com/ziadkadry99/turnguard/internal/pipeline"
	"github.com/ziadkadry99/turnguard/internal/retrieval"
	"github.com/ziadkadry99/turnguard/internal/session"
)

// Server hosts the HTTP surface.
type Server struct {
	cfg        *config.Config
	log        *zap.Logger
	engine     *pipeline.Engine
	sessions   *session.Store
	audit      *audit.Store
	evidence   *retrieval.Store
	router     chi.Router
	httpServer *http.Server
}

// New creates a server with all dependencies. evidence may be nil.
func New(cfg *config.Config, logger *zap.Logger, engine *pipeline.Engine, sessions *session.Store, auditStore *audit.Store, evidence *retrieval.Store) *Server {
	s := &Server{
		cfg:      cfg,
		log:      logger,
		engine:   engine,
		sessions: sessions,
		audit:    auditStore,
		evidence: evidence,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.Server.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	s.registerRoutes(r)
	return r
}

// Router returns the router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		// Streaming responses stay open well past a normal request.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	s.log.Info("turnguard server listening", zap.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
