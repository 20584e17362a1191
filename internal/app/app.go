// Package app assembles the Besaha services, event consumers and HTTP routes.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"besaha/internal/cache"
	"besaha/internal/config"
	"besaha/internal/database"
	"besaha/internal/domain/chat"
	"besaha/internal/domain/concierge"
	"besaha/internal/domain/notification"
	"besaha/internal/domain/restaurant"
	"besaha/internal/domain/review"
	"besaha/internal/domain/upload"
	"besaha/internal/domain/user"
	"besaha/internal/events"
	"besaha/internal/middleware"
	"besaha/internal/pkg/jwt"
)

const (
	reconcileBatchSize = 100
	verifyRetryBackoff = 100 * time.Millisecond
)

// Models lists every table the application owns.
func Models() []any {
	return []any{
		&restaurant.Model{},
		&user.Model{},
		&review.Model{},
		&chat.Model{},
		&upload.Upload{},
		&notification.Model{},
	}
}

// App holds the wired components. Start launches the background workers and
// Close releases everything New acquired.
type App struct {
	cfg *config.Config
	log *zap.SugaredLogger

	DB          *gorm.DB
	Cache       cache.Cache
	Bus         *events.Bus
	Hub         *chat.Hub
	JWT         *jwt.Service
	Restaurants *restaurant.Repository
	Users       *user.Repository
	Reviews     *review.Repository
	Verifier    *review.Verifier
	Reconciler  *review.Reconciler
	Cleanup     *notification.Cleanup

	restaurantSvc *restaurant.Service
	reviewSvc     *review.Service
	chatSvc       *chat.Service
	uploadSvc     *upload.Service
	conciergeSvc  *concierge.Service
	notifySvc     *notification.Service
	localUploads  *upload.LocalStore
	limiter       *middleware.RateLimiter

	cancel context.CancelFunc
	done   chan struct{}
}

// New connects storage and wires every service. Nothing runs until Start.
func New(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*App, error) {
	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, Models()...); err != nil {
		return nil, err
	}

	c, err := cache.New(ctx, cache.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password}, log)
	if err != nil {
		return nil, err
	}

	bus, err := events.NewBus(events.DefaultConfig(), log)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	a := &App{
		cfg:         cfg,
		log:         log,
		DB:          db,
		Cache:       c,
		Bus:         bus,
		Hub:         chat.NewHub(log),
		JWT:         jwt.New(cfg.JWTSecret, cfg.JWTTTL),
		Restaurants: restaurant.NewRepository(db),
		Users:       user.NewRepository(db),
		Reviews:     review.NewRepository(db),
		limiter:     middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	}

	a.restaurantSvc = restaurant.NewService(a.Restaurants, c, cfg.Redis.TTL, log)
	a.Verifier = review.NewVerifier(a.Reviews, a.Restaurants, bus, review.VerifierConfig{
		MaxDistanceMeters: cfg.Verification.MaxDistanceMeters,
		RetryAttempts:     cfg.Verification.RetryAttempts,
		RetryBackoff:      verifyRetryBackoff,
	}, log)
	a.Reconciler = review.NewReconciler(a.Reviews, a.Verifier, review.ReconcilerConfig{
		Interval:  cfg.Verification.ReconcileInterval,
		Grace:     cfg.Verification.ReconcileGrace,
		BatchSize: reconcileBatchSize,
	}, log)
	a.reviewSvc = review.NewService(a.Reviews, a.Verifier, bus, log)
	a.chatSvc = chat.NewService(chat.NewRepository(db), a.Users, bus, log)

	store, err := a.blobStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.uploadSvc = upload.NewService(upload.NewRepository(db), store, log)

	var gen concierge.Generator
	if cfg.Concierge.APIKey != "" {
		gc, err := concierge.NewGeminiClient(ctx, cfg.Concierge.APIKey, cfg.Concierge.Model, cfg.Concierge.Timeout)
		if err != nil {
			a.Close()
			return nil, err
		}
		gen = gc
	} else {
		log.Warn("GEMINI_API_KEY not set, concierge runs offline")
	}
	a.conciergeSvc = concierge.NewService(gen, a.restaurantSvc, log)

	notifyRepo := notification.NewRepository(db)
	a.notifySvc = notification.NewService(notifyRepo, log)
	a.Cleanup = notification.NewCleanup(notifyRepo, notification.DefaultRetention, notification.DefaultCleanupInterval, log)

	review.Register(bus, a.Verifier, review.NewFeed(a.Hub, a.restaurantSvc, log))
	notification.Register(bus, a.notifySvc)
	chat.Register(bus, a.Hub)

	return a, nil
}

func (a *App) blobStore(ctx context.Context) (upload.BlobStore, error) {
	if a.cfg.Upload.MinioEndpoint != "" {
		s, err := upload.NewMinioStore(ctx, upload.MinioOptions{
			Endpoint:  a.cfg.Upload.MinioEndpoint,
			AccessKey: a.cfg.Upload.MinioAccessKey,
			SecretKey: a.cfg.Upload.MinioSecretKey,
			Bucket:    a.cfg.Upload.MinioBucket,
			UseSSL:    a.cfg.Upload.MinioUseSSL,
		})
		if err != nil {
			return nil, err
		}
		a.log.Infow("uploads stored in minio", "endpoint", a.cfg.Upload.MinioEndpoint, "bucket", a.cfg.Upload.MinioBucket)
		return s, nil
	}
	a.localUploads = upload.NewLocalStore(a.cfg.Upload.Dir, a.cfg.Upload.BaseURL)
	return a.localUploads, nil
}

// Start runs the event bus and, when withWorkers is set, the periodic
// reconciler and notification cleanup. It returns once the bus accepts
// deliveries.
func (a *App) Start(ctx context.Context, withWorkers bool) error {
	ctx, a.cancel = context.WithCancel(ctx)
	a.done = make(chan struct{})

	errCh := make(chan error, 1)
	go func() {
		defer close(a.done)
		if err := a.Bus.Run(ctx); err != nil {
			a.log.Errorw("event bus stopped", "error", err)
			errCh <- err
		}
	}()

	select {
	case <-a.Bus.Running():
	case err := <-errCh:
		return fmt.Errorf("start event bus: %w", err)
	case <-ctx.Done():
		return ctx.Err()
	}

	if withWorkers {
		go a.Reconciler.Run(ctx)
		go a.Cleanup.Run(ctx)
	}
	return nil
}

// Router builds the HTTP surface.
func (a *App) Router() *gin.Engine {
	if a.cfg.AppEnv != "dev" && a.cfg.AppEnv != "test" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(a.log),
		middleware.ErrorLogger(a.log),
		middleware.CORS(a.cfg.CORSAllowedOrigins),
	)

	r.GET("/health", a.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if a.localUploads != nil {
		r.Static(a.cfg.Upload.BaseURL, a.localUploads.Dir())
	}

	v1 := r.Group("/api/v1")
	public := v1.Group("", middleware.OptionalAuth(a.JWT))
	protected := v1.Group("", middleware.JWTAuth(a.JWT))
	limited := protected.Group("", a.limiter.Middleware())
	admin := v1.Group("/admin", middleware.JWTAuth(a.JWT), middleware.AdminOnly())

	restaurant.NewHandler(a.restaurantSvc).RegisterRoutes(public)
	review.NewHandler(a.reviewSvc).RegisterRoutes(public, limited, admin)
	user.NewHandler(a.Users).RegisterRoutes(public, protected)
	chat.NewHandler(a.chatSvc).RegisterRoutes(public, limited)
	chat.NewWSHandler(a.Hub, a.cfg.CORSAllowedOrigins, a.log).RegisterRoutes(public)
	upload.RegisterRoutes(protected, upload.NewHandler(a.uploadSvc))
	notification.NewHandler(a.notifySvc).RegisterRoutes(protected)
	concierge.NewHandler(a.conciergeSvc).RegisterRoutes(public, a.limiter.Middleware())

	return r
}

func (a *App) health(c *gin.Context) {
	status := gin.H{"status": "ok", "database": "ok"}
	code := http.StatusOK

	sqlDB, err := a.DB.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		status["status"] = "degraded"
		status["database"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

// Close stops the workers and releases connections. In-flight bus handlers
// finish before the database closes.
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if err := a.Bus.Close(); err != nil {
		a.log.Warnw("close event bus", "error", err)
	}
	if a.done != nil {
		<-a.done
	}
	a.limiter.Stop()
	if err := a.Cache.Close(); err != nil && !errors.Is(err, context.Canceled) {
		a.log.Warnw("close cache", "error", err)
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
