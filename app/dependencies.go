package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/upb/readers-hub/auth"
	"github.com/upb/readers-hub/config"
	"github.com/upb/readers-hub/handlers"
	"github.com/upb/readers-hub/internal/observability"
	"github.com/upb/readers-hub/middleware"
	"github.com/upb/readers-hub/repositories"
	"github.com/upb/readers-hub/repositories/postgres"
	"github.com/upb/readers-hub/services"
	"github.com/upb/readers-hub/services/accounts"
	"github.com/upb/readers-hub/services/audit"
	"github.com/upb/readers-hub/services/authz"
	"github.com/upb/readers-hub/services/library"
	"github.com/upb/readers-hub/services/notifications"
	"github.com/upb/readers-hub/services/social"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	DB      *postgres.DB
	Redis   *redis.Client // nil when REDIS_ADDR is unset
	Logger  *zap.Logger
	Metrics *observability.Metrics

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Repos     *repositories.Repositories
	TxManager repositories.TransactionManager

	// Authorization
	Authorizer  *authz.Authorizer
	FollowGraph *authz.FollowGraph
	Tokens      *auth.TokenManager

	// Services
	Accounts      *accounts.Service
	Library       *library.Service
	Social        *social.Service
	Notifications *notifications.Service
	Audit         *audit.Service

	// HTTP
	AuthMiddleware      *middleware.AuthMiddleware
	HealthHandler       *handlers.HealthHandler
	AuthHandler         *handlers.AuthHandler
	UserHandler         *handlers.UserHandler
	LibraryHandler      *handlers.LibraryHandler
	SocialHandler       *handlers.SocialHandler
	NotificationHandler *handlers.NotificationHandler
}

// NewDependencies opens the database (and Redis, when configured) and wires
// up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			_ = factory.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info("redis connection established", zap.String("addr", cfg.Redis.Addr))
	}

	return Build(cfg, factory, rdb, logger), nil
}

// Build wires dependencies over an open repository factory. rdb may be nil,
// in which case follow locks are held in-process.
func Build(cfg *config.Config, factory *postgres.RepositoryFactory, rdb *redis.Client, logger *zap.Logger) *Dependencies {
	d := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
		Redis:       rdb,
	}
	if cfg.Observability.MetricsEnabled {
		d.Metrics = observability.NewMetrics()
	}

	d.initRepositories()
	d.initServices()
	d.initHTTP()

	logger.Info("all dependencies initialized successfully")
	return d
}

func (d *Dependencies) initRepositories() {
	d.Repos = d.RepoFactory.NewRepositories()
	d.TxManager = d.RepoFactory.GetTransactionManager()
	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initServices() {
	var recorder authz.DecisionRecorder
	if d.Metrics != nil {
		recorder = d.Metrics
	}
	d.Authorizer = authz.NewAuthorizer(d.Logger, recorder)
	d.Notifications = notifications.NewService(d.Repos.Notifications, d.Logger)

	d.FollowGraph = authz.NewFollowGraph(d.Repos.Users, d.Repos.Follows, d.Logger,
		authz.WithLocker(d.locker()),
		authz.WithTransactions(func(ctx context.Context, fn func(ctx context.Context) error) error {
			return services.WithTransaction(ctx, d.TxManager, fn)
		}),
		authz.WithObserver(d.Notifications),
	)

	d.Tokens = auth.NewTokenManager(d.Config.Auth)
	d.Accounts = accounts.NewService(d.Repos.Users, d.Tokens, d.Config.Auth.BcryptCost, d.Logger)
	d.Library = library.NewService(d.Repos.Authors, d.Repos.Books, d.Authorizer, d.Logger)
	d.Social = social.NewService(social.Deps{
		Posts:      d.Repos.Posts,
		Comments:   d.Repos.Comments,
		Tags:       d.Repos.Tags,
		Graph:      d.FollowGraph,
		Authorizer: d.Authorizer,
		Notifier:   d.Notifications,
		TxManager:  d.TxManager,
		Logger:     d.Logger,
	})

	d.Audit = audit.NewService(d.Repos.AuditLogs, d.Logger, audit.DefaultConfig())
	if err := d.Audit.Start(); err != nil {
		d.Logger.Error("failed to start audit service", zap.Error(err))
	}
}

func (d *Dependencies) locker() authz.Locker {
	if d.Redis == nil {
		d.Logger.Info("follow locks are process-local")
		return authz.NewLocalLocker()
	}
	return authz.NewRedisLocker(d.Redis, authz.RedisLockerConfig{TTL: d.Config.Redis.LockTTL}, d.Logger)
}

func (d *Dependencies) initHTTP() {
	cfg := d.Config
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Tokens, d.Accounts, d.Authorizer, cfg.Auth.CookieName, d.Logger)

	var probes []handlers.Probe
	if d.Redis != nil {
		probes = append(probes, handlers.Probe{
			Name:  "redis",
			Check: func(ctx context.Context) error { return d.Redis.Ping(ctx).Err() },
		})
	}
	d.HealthHandler = handlers.NewHealthHandler(d.DB.DB, d.Logger, probes...)

	d.AuthHandler = handlers.NewAuthHandler(d.Accounts, handlers.CookieSettings{
		Name:   cfg.Auth.CookieName,
		TTL:    cfg.Auth.TokenTTL,
		Secure: cfg.IsProduction(),
	}, d.Logger)
	d.UserHandler = handlers.NewUserHandler(d.Accounts, d.Social, d.Audit, cfg.Pagination, d.Logger)
	d.LibraryHandler = handlers.NewLibraryHandler(d.Library, cfg.Pagination, d.Logger)
	d.SocialHandler = handlers.NewSocialHandler(d.Social, cfg.Pagination, d.Logger)
	d.NotificationHandler = handlers.NewNotificationHandler(d.Notifications, cfg.Pagination, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Audit != nil {
		timeout := 5 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.Audit.Stop(timeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
	}

	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
