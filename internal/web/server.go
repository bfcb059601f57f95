package web

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/pantry/internal/config"
)

// UserHeader carries the owner id of every per-user request.
const UserHeader = "X-User-ID"

// NewServer creates and configures the HTTP server for the pantry JSON API.
func NewServer(db *sql.DB, cfg *config.Config, logger *zap.Logger, version, bind string, port int) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           NewHandler(db, cfg, logger, version),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewHandler builds the routed handler with its middleware.
func NewHandler(db *sql.DB, cfg *config.Config, logger *zap.Logger, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handlers{
		db:      db,
		cfg:     cfg,
		log:     logger,
		version: version,
	}

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.HandleFunc("POST /ingredients/validate", h.HandleValidate)
	mux.HandleFunc("POST /inventory/proposal", h.HandlePropose)
	mux.HandleFunc("POST /inventory/confirm", h.HandleConfirm)
	mux.HandleFunc("GET /inventory", h.HandleInventoryList)
	mux.HandleFunc("PUT /inventory", h.HandleInventorySet)
	mux.HandleFunc("DELETE /inventory/{id}", h.HandleInventoryDelete)
	mux.HandleFunc("POST /unrecognized/{id}/resolve", h.HandleResolve)
	mux.HandleFunc("POST /recipes/apply", h.HandleRecipesApply)
	mux.HandleFunc("POST /recipes/session", h.HandleSessionApply)
	mux.HandleFunc("GET /recipes", h.HandleRecipesList)
	mux.HandleFunc("GET /recipes/{id}", h.HandleRecipesGet)

	return requestLog(logger, securityHeaders(mux))
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestLog writes one line per request.
func requestLog(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.String("user_id", r.Header.Get(UserHeader)),
			zap.Duration("elapsed", time.Since(start)),
		}
		if rec.status >= http.StatusInternalServerError {
			logger.Error("request", fields...)
			return
		}
		logger.Info("request", fields...)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, logger *zap.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("pantry API listening", zap.String("addr", "http://"+srv.Addr))

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		logger.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
