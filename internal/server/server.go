package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/finance-api/internal/auth"
	"github.com/hongminglow/finance-api/internal/config"
	"github.com/hongminglow/finance-api/internal/http/handlers"
	"github.com/hongminglow/finance-api/internal/http/respond"
	"github.com/hongminglow/finance-api/internal/metrics"
	"github.com/hongminglow/finance-api/internal/middleware"
	"github.com/hongminglow/finance-api/internal/report"
	"github.com/hongminglow/finance-api/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, log *logrus.Logger) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Routes(cfg, store, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return &Server{inner: httpServer}
}

// Routes builds the full handler tree.
func Routes(cfg config.Config, store storage.Store, log *logrus.Logger) http.Handler {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	sessions := auth.NewJWTResolver(tokens, store, log.WithField("component", "session"))
	gate := middleware.NewGate(sessions, log.WithField("component", "gate"))
	signup := auth.NewSignupHook(store, auth.PromotionPolicy(cfg.SignupAdminPolicy))
	handlerLog := log.WithField("component", "http")

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(handlerLog))
	r.Use(chimw.Recoverer)
	r.Use(metrics.InstrumentHandler)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusNotFound, "Not found")
	})

	handlers.NewHealthHandler(time.Now()).Register(r)
	handlers.NewDocsHandler(handlerLog).Register(r)
	handlers.NewAuthHandler(store, tokens, signup, handlerLog).Register(r)
	handlers.NewMovementHandler(store, store, gate, handlerLog).Register(r)
	handlers.NewUserHandler(store, gate, handlerLog).Register(r)
	handlers.NewReportHandler(report.NewService(store), gate, handlerLog).Register(r)
	r.Handle("/metrics", metrics.Handler())

	return r
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
