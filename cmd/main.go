package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/shenikar/tourist_safety_system/internal/config"
	"github.com/shenikar/tourist_safety_system/internal/geofence"
	v1 "github.com/shenikar/tourist_safety_system/internal/handler/http/v1"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/shenikar/tourist_safety_system/internal/realtime"
	"github.com/shenikar/tourist_safety_system/internal/repository"
	"github.com/shenikar/tourist_safety_system/internal/repository/memory"
	"github.com/shenikar/tourist_safety_system/internal/service"
	"github.com/shenikar/tourist_safety_system/internal/webhook"
	"github.com/shenikar/tourist_safety_system/pkg/logger"
	"github.com/shenikar/tourist_safety_system/pkg/metrics"
	"github.com/shenikar/tourist_safety_system/pkg/postgres"
	redisclient "github.com/shenikar/tourist_safety_system/pkg/redis"
	"github.com/shenikar/tourist_safety_system/pkg/scheduler"
	"github.com/sirupsen/logrus"

	_ "github.com/shenikar/tourist_safety_system/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// storage - набор хранилищ выбранного бэкенда
type storage struct {
	fences    service.GeoFenceRepository
	alerts    service.AlertRepository
	locations service.LocationRepository
	users     service.UserStore
	cooldown  service.CooldownStore
}

// @title Tourist Safety System API
// @version 1.0
// @description Geofence-based tourist safety alert engine.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
		migrationURL = strings.Replace(migrationURL, "postgresql://", "pgx5://", 1)
	}

	m, err := migrate.New(cfg.MigrationsPath, migrationURL)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

// newStorage собирает хранилища; без Redis cooldown живёт в памяти процесса
func newStorage(cfg *config.Config, dbpool *pgxpool.Pool, redisClient *redis.Client, log *logrus.Logger) storage {
	var cooldown service.CooldownStore
	if redisClient != nil {
		cooldown = repository.NewCooldownStore(redisClient)
	} else {
		cooldown = memory.NewCooldownStore(time.Minute)
	}

	if dbpool == nil {
		return storage{
			fences:    memory.NewGeoFenceRepository(),
			alerts:    memory.NewAlertRepository(),
			locations: memory.NewLocationRepository(),
			users:     memory.NewUserDirectory(),
			cooldown:  cooldown,
		}
	}

	return storage{
		fences:    repository.NewGeoFenceRepository(dbpool),
		alerts:    repository.NewAlertRepository(dbpool, redisClient, cfg.AlertCacheTTL, log),
		locations: repository.NewLocationRepository(dbpool),
		users:     repository.NewUserRepository(dbpool),
		cooldown:  cooldown,
	}
}

// seedUsers наполняет каталог пользователями из SEED_USERS
func seedUsers(ctx context.Context, users service.UserStore, seeds []config.SeedUser, log *logrus.Logger) error {
	for _, seed := range seeds {
		role := models.Role(seed.Role)
		if !role.Valid() {
			return fmt.Errorf("seed user %s has unknown role %q", seed.ID, seed.Role)
		}
		user := &models.User{
			ID:        seed.ID,
			Role:      role,
			Name:      seed.Name,
			Status:    models.UserStatusActive,
			CreatedAt: time.Now().UTC(),
		}
		if err := users.Upsert(ctx, user); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", seed.ID, err)
		}
	}
	if len(seeds) > 0 {
		log.WithField("count", len(seeds)).Info("Seeded user directory")
	}
	return nil
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel)

	// Контекст для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var dbpool *pgxpool.Pool
	if cfg.StorageBackend == config.StoragePostgres {
		// Запуск миграций
		if err := runMigrations(cfg, log); err != nil {
			log.Fatalf("Failed to run database migrations: %v", err)
		}

		// Подключение к PostgreSQL
		dbpool, err = postgres.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer dbpool.Close()
		log.Info("Successfully connected to PostgreSQL")
	} else {
		log.Warn("Using in-memory storage, data is lost on restart")
	}

	// Инициализация Redis клиента
	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient, err = redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Info("Successfully connected to Redis")
	}

	// Инициализация репозиториев
	store := newStorage(cfg, dbpool, redisClient, log)
	if err := seedUsers(ctx, store.users, cfg.SeedUsers, log); err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}
	users := repository.NewCachedUserDirectory(store.users, cfg.UserCacheSize, cfg.UserCacheTTL)

	// Канал реального времени
	hub := realtime.NewHub(realtime.Config{
		BufferSize:     cfg.WSBufferSize,
		PingInterval:   cfg.WSPingInterval,
		PongTimeout:    cfg.WSPongTimeout,
		WriteTimeout:   realtime.DefaultConfig().WriteTimeout,
		MaxMessageSize: cfg.WSMaxMessageSize,
	}, log)

	// Вебхуки: события канала служб уходят в очередь Redis, воркер доставляет их
	var webhookWorker *webhook.WebhookWorker
	if redisClient != nil {
		webhookPublisher := webhook.NewRedisWebhookPublisher(redisClient)
		if err := hub.SubscribeFunc(models.ChannelAuthority,
			webhook.Sink(webhookPublisher, models.ChannelAuthority, cfg.OperationTimeout, log)); err != nil {
			log.Fatalf("Failed to subscribe webhook sink: %v", err)
		}

		webhookWorker = webhook.NewWebhookWorker(redisClient, log, cfg)
		webhookWorker.Start(ctx)
	}

	// Инициализация сервисов
	index := geofence.NewIndex()
	geofenceService := service.NewGeoFenceService(store.fences, index, log, cfg)
	if err := geofenceService.Reload(ctx); err != nil {
		log.Fatalf("Failed to load geofences: %v", err)
	}
	alertService := service.NewAlertService(store.alerts, store.cooldown, hub, log, cfg)
	queryService := service.NewAlertQueryService(store.alerts, store.locations, log, cfg)
	tracker := service.NewLocationTracker(service.TrackerDeps{
		Locations:   store.locations,
		Users:       users,
		Index:       index,
		Alerts:      alertService,
		AlertRepo:   store.alerts,
		Cooldown:    store.cooldown,
		Broadcaster: hub,
	}, log, cfg)

	// Периодическая очистка истории перемещений
	jobs := scheduler.NewCron(time.UTC, log)
	if _, err := jobs.Add(cfg.RetentionSchedule, service.NewRetentionJob(tracker, cfg.LocationRetentionDays)); err != nil {
		log.Fatalf("Invalid RETENTION_SCHEDULE %q: %v", cfg.RetentionSchedule, err)
	}
	jobs.Start()

	// Инициализация хэндлеров
	handler := v1.NewHandler(v1.Services{
		Alerts:    alertService,
		Queries:   queryService,
		GeoFences: geofenceService,
		Tracker:   tracker,
		Users:     users,
	}, hub, log, cfg)

	// Настройка Gin роутера
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), metrics.GinMiddleware())
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Добавление маршрута для Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Запуск HTTP-сервера
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Запуск сервера в горутине
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	hub.Close()
	jobs.Stop()
	cancel()
	if webhookWorker != nil {
		webhookWorker.Wait()
	}

	log.Info("Server gracefully stopped")
}
