package http

// this is entry point of the http request handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"gitlab.com/code-engine.net/internal/config"
	"gitlab.com/code-engine.net/internal/core/ports/primary"
	"gitlab.com/code-engine.net/internal/core/services/judge"
	"gitlab.com/code-engine.net/internal/handlers"
	"gitlab.com/code-engine.net/internal/handlers/auth"
	"gitlab.com/code-engine.net/internal/handlers/tasks"
)

type ServiceProvider struct {
	judgeService judge.IJudgeService
	tokenService primary.TokenService
	jwtConfig    *config.JwtConfig
}

func NewServiceProvider(
	judgeService judge.IJudgeService,
	tokenService primary.TokenService,
	jwtConfig *config.JwtConfig,
) *ServiceProvider {
	return &ServiceProvider{
		judgeService: judgeService,
		tokenService: tokenService,
		jwtConfig:    jwtConfig,
	}
}

type Server struct {
	router          *mux.Router
	srv             *http.Server
	Port            int
	ServiceName     string
	ServiceProvider ServiceProvider
	logger          primary.Logger
}

func NewServer(port int, serviceName string, serviceProvider ServiceProvider, logger primary.Logger) *Server {
	return &Server{
		Port:            port,
		ServiceName:     serviceName,
		ServiceProvider: serviceProvider,
		logger:          logger,
	}
}

func (s *Server) Init() error {
	r := mux.NewRouter()

	handlers.NewHealthHandler().RegisterRoutes(r)
	auth.
		NewHandler(s.ServiceProvider.tokenService, s.ServiceProvider.jwtConfig, s.logger).
		RegisterRoutes(r)

	mw := handlers.NewMiddleware(s.ServiceProvider.jwtConfig, s.ServiceProvider.tokenService, s.logger)
	protected := r.PathPrefix("/api/v1/code-engine").Subrouter()
	protected.Use(mw.AuthMiddleware)
	tasks.
		NewTaskHandler(s.ServiceProvider.judgeService, s.logger).
		RegisterRoutes(protected)

	s.router = r
	return nil
}

func (s *Server) Start(ctx context.Context) {
	// Set up server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.srv = srv

	// Start the server in a goroutine
	go func() {
		s.logger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()
}

func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("Shutting down http server...")
	if s.srv == nil {
		return
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shut down http server", "error", err)
	}
}
