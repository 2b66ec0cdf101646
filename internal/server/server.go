// internal/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ping-auth-server/internal/api/handler"
	"ping-auth-server/internal/config"
	"ping-auth-server/internal/domain/auth"
	"ping-auth-server/internal/identity"
	"ping-auth-server/internal/metrics"
	"ping-auth-server/internal/repository"
	"ping-auth-server/internal/resource"
	"ping-auth-server/internal/token"
)

const requestTimeout = 30 * time.Second

type Server struct {
	cfg      *config.Config
	log      *zap.Logger
	router   *chi.Mux
	registry *prometheus.Registry
	issuer   *token.Issuer
	auth     *handler.AuthHandler
	clients  *handler.ClientHandler

	db    *resource.Lazy[repository.Conn]
	redis *resource.Lazy[*redis.Client]
}

func initRedis(cfg *config.Config) *resource.Lazy[*redis.Client] {
	return resource.New(func(ctx context.Context) (*redis.Client, error) {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		if cfg.RedisPassword != "" {
			opts.Password = cfg.RedisPassword
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return client, nil
	}, func(c *redis.Client) error {
		return c.Close()
	})
}

// New wires every collaborator once. Database and redis connect on first use.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Server, error) {
	r := chi.NewRouter()

	db := repository.NewPool(cfg.DBUrl)
	redisClient := initRedis(cfg)

	google, err := identity.NewGoogleVerifier(ctx, cfg.GoogleClientID)
	if err != nil {
		return nil, err
	}
	if cfg.GoogleClientID == "" {
		log.Warn("GOOGLE_CLIENT_ID is not set; google sign-in will be unavailable")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	issuer := token.NewIssuer(cfg.JWTSecret)
	authService := auth.NewAuthService(auth.Dependencies{
		Users:     repository.NewUserRepository(db),
		Clients:   repository.NewClientRepository(db),
		Codes:     auth.NewCodeStore(redisClient),
		Hasher:    auth.NewBcryptHasher(cfg.BcryptCost),
		Tokens:    issuer,
		Verifier:  google,
		Validator: auth.NewValidator(validator.New()),
		Metrics:   metrics.New(registry),
	}, log)

	s := &Server{
		cfg:      cfg,
		log:      log,
		router:   r,
		registry: registry,
		issuer:   issuer,
		auth:     handler.NewAuthHandler(authService, log),
		clients:  handler.NewClientHandler(authService, log),
		db:       db,
		redis:    redisClient,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then drains in-flight requests and
// closes the connection handles within the shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ServerAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", s.cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.closeResources(context.Background())
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down", zap.Duration("timeout", s.cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	s.closeResources(shutdownCtx)
	return err
}

func (s *Server) closeResources(ctx context.Context) {
	if err := s.db.Close(ctx); err != nil {
		s.log.Warn("close database pool", zap.Error(err))
	}
	if err := s.redis.Close(ctx); err != nil {
		s.log.Warn("close redis client", zap.Error(err))
	}
}

func (s *Server) setupRoutes() {
	s.router.Use(handler.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(handler.RequestLogger(s.log))
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", handler.Health)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Post("/auth/register", s.auth.Register)
		r.Post("/auth/login", s.auth.Login)
		r.Post("/auth/google", s.auth.GoogleLogin)
		r.Post("/oauth/token", s.auth.Token)

		r.Group(func(r chi.Router) {
			r.Use(handler.RequireBearer(s.issuer, s.log))
			r.Post("/auth/oauth/login", s.auth.SessionLogin)
			r.Post("/clients", s.clients.Create)
			r.Post("/clients/{id}/secret", s.clients.RotateSecret)
		})
	})
}
