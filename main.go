package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskpilot/backend/internal/ai"
	"taskpilot/backend/internal/auth"
	"taskpilot/backend/internal/cache"
	"taskpilot/backend/internal/config"
	"taskpilot/backend/internal/database"
	"taskpilot/backend/internal/handlers"
	"taskpilot/backend/internal/middleware"
	"taskpilot/backend/internal/monitoring"
	"taskpilot/backend/internal/repositories"
	"taskpilot/backend/internal/services"
	"taskpilot/backend/internal/storage"
	"taskpilot/backend/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type application struct {
	config      *config.Config
	router      *gin.Engine
	cache       *cache.MultiLevelCache
	worker      *worker.Worker
	rateLimiter *middleware.RateLimiter
}

// newApplication wires services, cache, jobs and routes. redisClient may be
// nil, in which case the view cache stays in-process and jobs run inline.
func newApplication(cfg *config.Config, pool *database.DatabasePool, redisClient *redis.Client) (*application, error) {
	store, err := storage.NewLocalStore(cfg.Storage.UploadDir, cfg.Storage.PublicBaseURL)
	if err != nil {
		return nil, err
	}

	var (
		viewCache *cache.MultiLevelCache
		jobs      worker.Enqueuer
		bg        *worker.Worker
		queue     *worker.JobQueue
		inline    *worker.InlineQueue
	)
	if redisClient != nil {
		viewCache = cache.NewMultiLevelCache(cache.NewRedisCacheFromClient(redisClient))
		bg = worker.NewWorker(worker.WorkerConfig{RedisClient: redisClient, Queues: cfg.Worker.Queues})
		queue = worker.NewJobQueue(redisClient)
		jobs = queue
		monitoring.RegisterQueueDepth(
			[]string{worker.QueueDefault, worker.QueueMaintenance, worker.QueueRetry, worker.QueueDead},
			queue.GetQueueSize,
		)
	} else {
		viewCache = cache.NewMultiLevelCache(nil)
		inline = worker.NewInlineQueue()
		jobs = inline
	}
	viewCache.WithL1TTL(cfg.Cache.L1TTL)
	monitoring.RegisterCacheHitRate(viewCache.Metrics().HitRate)

	projectRepo := repositories.NewProjectRepository(pool.DB)
	userRepo := repositories.NewUserRepository(pool.DB)

	projectService := services.NewProjectService(projectRepo, viewCache, jobs)
	cachedProjects := services.NewCachedProjectService(projectService, viewCache, cfg.Cache.ProjectListTTL, cfg.Cache.ProjectTTL)
	taskService := services.NewTaskService(projectRepo, viewCache, jobs)
	userService := services.NewCachedUserService(services.NewUserService(userRepo, viewCache), viewCache, cfg.Cache.ProjectListTTL)
	fileService := services.NewFileService(store, cachedProjects)
	analytics := services.NewAnalyticsService(cachedProjects, userService).WithCache(viewCache, cfg.Cache.DashboardTTL)

	warm := worker.WarmViewsHandler(func(ctx context.Context) error {
		if err := cachedProjects.Warm(ctx); err != nil {
			return err
		}
		return analytics.Warm(ctx)
	})
	cleanup := worker.CleanupFilesHandler(store)
	if bg != nil {
		bg.RegisterHandler(worker.JobTypeWarmViews, warm)
		bg.RegisterHandler(worker.JobTypeCleanupFiles, cleanup)
	} else {
		inline.RegisterHandler(worker.JobTypeWarmViews, warm)
		inline.RegisterHandler(worker.JobTypeCleanupFiles, cleanup)
	}

	assistant := ai.NewAssistant(ai.NewClient(ai.ClientConfig{
		APIKey:    cfg.AI.APIKey,
		BaseURL:   cfg.AI.BaseURL,
		Model:     cfg.AI.Model,
		MaxTokens: cfg.AI.MaxTokens,
		Timeout:   cfg.AI.Timeout,
	}))
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL)

	health := monitoring.NewHealthChecker()
	health.Register("database", func(ctx context.Context) error {
		return pool.Health()
	})
	health.RegisterDetails("database", pool.Stats)
	health.RegisterDetails("cache", viewCache.Stats)
	if redisClient != nil {
		health.Register("redis", func(ctx context.Context) error {
			return viewCache.Health()
		})
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), middleware.RecoveryWithLog(), middleware.CORS(cfg.Server.AllowedOrigins), monitoring.MetricsMiddleware())

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMin:  cfg.RateLimit.RequestsPerMin,
			BurstSize:       cfg.RateLimit.BurstSize,
			CleanupInterval: cfg.RateLimit.CleanupInterval,
		})
		router.Use(limiter.Middleware())
	}

	router.GET("/health", health.HealthHandler())
	router.GET("/ready", health.ReadinessHandler())
	router.GET("/live", monitoring.LivenessHandler())
	router.GET("/metrics", monitoring.MetricsHandler())
	router.Static("/files", store.Root())

	handlers.RegisterRoutes(router, handlers.Handlers{
		Projects:  handlers.NewProjectHandler(cachedProjects, userService, analytics, assistant),
		Tasks:     handlers.NewTaskHandler(taskService, userService),
		Files:     handlers.NewFileHandler(fileService, cfg.Storage.MaxUploadSize),
		Users:     handlers.NewUserHandler(userService),
		Analytics: handlers.NewAnalyticsHandler(analytics),
		AI:        handlers.NewAIHandler(assistant),
		Auth:      handlers.NewAuthHandler(userService, tokens),
	}, middleware.Authenticate(tokens), !cfg.IsProduction())

	return &application{
		config:      cfg,
		router:      router,
		cache:       viewCache,
		worker:      bg,
		rateLimiter: limiter,
	}, nil
}

func (a *application) start() {
	if a.worker != nil {
		a.worker.Start(a.config.Worker.Concurrency)
	}
}

func (a *application) stop() {
	if a.worker != nil {
		a.worker.Stop()
	}
	if a.rateLimiter != nil {
		a.rateLimiter.Stop()
	}
	if err := a.cache.Close(); err != nil {
		log.Printf("Error closing cache: %v", err)
	}
}

func connectRedis(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		log.Println("Redis disabled, using in-process cache and inline jobs")
		return nil
	}

	client := cache.NewRedisClient(&cache.CacheConfig{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis unavailable at %s (%v), using in-process cache and inline jobs", cfg.GetRedisAddr(), err)
		client.Close()
		return nil
	}
	return client
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	pool, err := database.NewDatabasePool(&database.PoolConfig{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.GetDatabaseDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		LogLevel:        database.DefaultPoolConfig().LogLevel,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := repositories.AutoMigrate(pool.DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	app, err := newApplication(cfg, pool, connectRedis(cfg))
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	app.start()

	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("Server listening on %s (%s)", srv.Addr, cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	app.stop()

	log.Println("Server exited")
}
