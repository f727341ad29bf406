// Package server exposes the interview flow and the candidate dashboard over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spigell/ai-interviewer/internal/candidates"
	"github.com/spigell/ai-interviewer/internal/interview"
	"github.com/spigell/ai-interviewer/internal/logger"
)

const (
	defaultListen         = ":5000"
	defaultMaxUploadBytes = 10 << 20
	maxJSONBodyBytes      = 1 << 20
	shutdownTimeout       = 15 * time.Second
)

// Config holds the HTTP settings.
type Config struct {
	Listen         string        `mapstructure:"listen"`
	MaxUploadBytes int64         `mapstructure:"max-upload-bytes"`
	AllowedOrigins []string      `mapstructure:"allowed-origins"`
	ReadTimeout    time.Duration `mapstructure:"read-timeout"`
	WriteTimeout   time.Duration `mapstructure:"write-timeout"`
}

type Server struct {
	cfg       Config
	interview *interview.Service
	registry  *candidates.Registry
	dashboard *candidates.Dashboard
	logger    *zap.Logger
}

func New(cfg Config, svc *interview.Service, registry *candidates.Registry, dashboard *candidates.Dashboard, log *zap.Logger) *Server {
	if cfg.Listen == "" {
		cfg.Listen = defaultListen
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}

	return &Server{
		cfg:       cfg,
		interview: svc,
		registry:  registry,
		dashboard: dashboard,
		logger:    logger.WithFields(log).Named("http"),
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /resume/upload", s.handleResumeUpload)
	mux.HandleFunc("POST /candidates-register", s.handleRegister)

	mux.HandleFunc("POST /interview/question", s.handleQuestion)
	mux.HandleFunc("POST /interview/answer", s.handleAnswer)
	mux.HandleFunc("POST /interview/summary", s.handleSummary)
	mux.HandleFunc("GET /interview/session/{sessionId}", s.handleSession)

	mux.HandleFunc("GET /candidates", s.handleCandidates)
	mux.HandleFunc("GET /candidates/export", s.handleExport)
	mux.HandleFunc("GET /candidates/{sessionId}", s.handleCandidate)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s.corsMiddleware(s.loggingMiddleware(mux))
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("address", s.cfg.Listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}
