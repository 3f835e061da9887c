package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"cityroute/internal/handlers"
)

// Config holds server configuration
type Config struct {
	Addr string // e.g., "127.0.0.1:8080" or "127.0.0.1:0" for random port

	// SessionIdleTimeout drops client sessions not seen for this long.
	// Zero disables pruning.
	SessionIdleTimeout time.Duration
}

// Server wraps the HTTP server and its handler set
type Server struct {
	httpServer *http.Server
	handler    *handlers.Handler
	listener   net.Listener
	addr       string
	idle       time.Duration
	logger     *zap.Logger
	stop       chan struct{}
}

// New creates a server (does not start it)
func New(cfg Config, handler *handlers.Handler, logger *zap.Logger) *Server {
	logger = logger.Named("server")

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      loggingMiddleware(logger, corsMiddleware(Routes(handler))),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
		addr:       cfg.Addr,
		idle:       cfg.SessionIdleTimeout,
		logger:     logger,
		stop:       make(chan struct{}),
	}
}

// Start starts the server and returns the actual address (useful for random port)
func (s *Server) Start() (string, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = listener
	actualAddr := listener.Addr().String()
	s.logger.Info("starting server", zap.String("addr", actualAddr))

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("server error", zap.Error(err))
		}
	}()

	if s.idle > 0 {
		go s.pruneSessions()
	}

	return actualAddr, nil
}

func (s *Server) pruneSessions() {
	ticker := time.NewTicker(s.idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.handler.Sessions.Prune(s.idle)
		case <-s.stop:
			return
		}
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.stop)
	return s.httpServer.Shutdown(ctx)
}

// Routes builds the API router
func Routes(handler *handlers.Handler) http.Handler {
	router := httprouter.New()

	router.HandlerFunc(http.MethodGet, "/api/v1/health", handler.HandleHealthCheck)

	router.HandlerFunc(http.MethodPost, "/api/v1/plan", handler.HandlePlan)
	router.HandlerFunc(http.MethodDelete, "/api/v1/sessions/:id", handler.HandleDeleteSession)

	router.HandlerFunc(http.MethodGet, "/api/v1/places", handler.HandlePlaceSearch)

	router.HandlerFunc(http.MethodGet, "/api/v1/transfer-points", handler.HandleListTransferPoints)
	router.HandlerFunc(http.MethodPost, "/api/v1/transfer-points", handler.HandleUpsertTransferPoint)
	router.HandlerFunc(http.MethodDelete, "/api/v1/transfer-points/:id", handler.HandleDeleteTransferPoint)

	return router
}

func loggingMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", lrw.statusCode),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Only allow localhost origins (local map clients and development)
		if origin == "" ||
			strings.HasPrefix(origin, "http://localhost:") ||
			strings.HasPrefix(origin, "http://127.0.0.1:") {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+handlers.SessionHeader)
			w.Header().Set("Access-Control-Expose-Headers", handlers.SessionHeader)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
