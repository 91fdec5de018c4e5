// Package server exposes the loop agent over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/siva673/loop-agent/internal/core"
	"github.com/siva673/loop-agent/internal/loop"
	"github.com/siva673/loop-agent/internal/scheduler"
	"github.com/siva673/loop-agent/internal/spotify/auth"
)

// Player runs play commands and reads account state.
type Player interface {
	HandlePlay(ctx context.Context, raw string) (*loop.Result, error)
	Devices(ctx context.Context) ([]core.Device, error)
	Status(ctx context.Context) (*core.PlaybackState, error)
}

// Sessions lists and cancels pending stops.
type Sessions interface {
	Pending() []scheduler.Pending
	Cancel(deviceID string) bool
}

// Authorizer runs the OAuth authorization-code flow.
type Authorizer interface {
	BuildAuthURL(pkce *auth.PKCE) string
	ExchangeCode(ctx context.Context, code, verifier string) (*auth.Token, error)
}

// TokenSink receives the token obtained at the callback.
type TokenSink interface {
	SetToken(token *auth.Token) error
}

// Deps are the collaborators the routes call.
type Deps struct {
	Player     Player
	Sessions   Sessions
	Authorizer Authorizer
	Tokens     TokenSink
}

// Server is the HTTP front of the agent.
type Server struct {
	deps    Deps
	logins  *auth.PendingLogins
	logger  *zap.Logger
	handler http.Handler
}

// New creates a server and its routes.
func New(deps Deps, logger *zap.Logger) *Server {
	s := &Server{
		deps:   deps,
		logins: auth.NewPendingLogins(),
		logger: logger,
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.Get("/ping", s.handlePing)
	r.Get("/login", s.handleLogin)
	r.Get("/callback", s.handleCallback)

	r.Method(http.MethodPost, "/play", s.handle(s.handlePlay))
	r.Method(http.MethodGet, "/status", s.handle(s.handleStatus))
	r.Method(http.MethodGet, "/devices", s.handle(s.handleDevices))

	r.Route("/sessions", func(r chi.Router) {
		r.Method(http.MethodGet, "/", s.handle(s.handleSessions))
		r.Method(http.MethodDelete, "/{deviceID}", s.handle(s.handleCancelSession))
	})
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: readTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
