package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"fitcoach/internal/imagegen"
	"fitcoach/internal/motivation"
	"fitcoach/internal/plan"
	"fitcoach/internal/profile"
	"fitcoach/internal/session"
	"fitcoach/internal/speech"
)

// SessionHeader carries the session id on requests and responses.
const SessionHeader = "X-Session-ID"

const maxBodyBytes = 1 << 20

type PlanGenerator interface {
	Generate(ctx context.Context, p profile.UserProfile) plan.Result
}

type ImageGenerator interface {
	Generate(ctx context.Context, description string, kind imagegen.Kind) imagegen.Result
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) speech.Result
}

// Deps are the operations the API exposes.
type Deps struct {
	Plans              PlanGenerator
	Motivation         motivation.Source
	Images             ImageGenerator
	Speech             Synthesizer
	Sessions           session.Store
	MotivationInterval time.Duration
	AllowedOrigins     []string
}

type Server struct {
	deps   Deps
	router *mux.Router
	newID  func() string
}

func New(d Deps) *Server {
	if d.MotivationInterval <= 0 {
		d.MotivationInterval = motivation.DefaultInterval
	}
	if len(d.AllowedOrigins) == 0 {
		d.AllowedOrigins = []string{"*"}
	}
	s := &Server{deps: d, router: mux.NewRouter(), newID: newSessionID}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/plan", s.handlePlan).Methods(http.MethodPost)
	api.HandleFunc("/motivation", s.handleMotivation).Methods(http.MethodPost)
	api.HandleFunc("/motivation/stream", s.handleMotivationStream).Methods(http.MethodGet)
	api.HandleFunc("/image", s.handleImage).Methods(http.MethodPost)
	api.HandleFunc("/speech", s.handleSpeech).Methods(http.MethodPost)
	api.HandleFunc("/session", s.handleSessionGet).Methods(http.MethodGet)
	api.HandleFunc("/session", s.handleSessionDelete).Methods(http.MethodDelete)
}

// Handler returns the router wrapped with request logging and CORS.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.deps.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", SessionHeader},
		ExposedHeaders: []string{SessionHeader},
	})
	return c.Handler(loggingMiddleware(s.router))
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
