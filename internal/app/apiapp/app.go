package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/config"
	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/jobs/sweeper"
	pgrepo "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/repo/postgres"
	redrepo "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/repo/redis"
	authsvc "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/services/auth"
	ratesvc "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/services/rate"
	sessionsvc "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/services/session"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	httpRouter http.Handler

	// cacheSweep prunes the in-process liveness cache; the cache lives in
	// this process, so the standalone sweeper binary cannot reach it.
	cacheSweep  *sweeper.Job
	sweepCancel context.CancelFunc
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	sessionRepo := pgrepo.NewSessionRepo(pool)
	userRepo := pgrepo.NewUserRepo(pool)
	broker := redrepo.NewTerminationBroker(redisClient)
	rateRepo := redrepo.NewLoginRateRepo(redisClient)

	liveness := sessionsvc.NewLivenessCache(cfg.Session.LivenessCacheSize)
	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	validator := sessionsvc.NewValidator(sessionRepo, jwtManager, liveness, cfg.Session.RefreshWindow, log)
	terminator := sessionsvc.NewTerminator(sessionRepo, broker, log)
	authService := authsvc.NewService(jwtManager, userRepo, sessionRepo, terminator)
	rateLimiter := ratesvc.NewLimiter(rateRepo, cfg.Limits.LoginPerUsernamePerMinute, cfg.Limits.LoginPerIPPerMinute)

	RegisterRoutes(r, Dependencies{
		AuthService:   authService,
		Validator:     validator,
		Terminator:    terminator,
		SessionLister: sessionRepo,
		RateLimiter:   rateLimiter,
		Logger:        log,
		Config:        cfg,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		httpRouter: r,
		cacheSweep: sweeper.New(nil, nil, liveness, cfg.Session.IdleTimeout, log),
	}, nil
}

func (a *App) Run() error {
	sweepCtx, cancel := context.WithCancel(context.Background())
	a.sweepCancel = cancel
	go a.cacheSweep.RunEvery(sweepCtx, a.cfg.Sweeper.Interval)

	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if a.sweepCancel != nil {
		a.sweepCancel()
	}
	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
