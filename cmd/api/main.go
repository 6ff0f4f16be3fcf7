package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/naebak/content-service/internal/config"
	"github.com/naebak/content-service/internal/domain"
	"github.com/naebak/content-service/internal/handler"
	"github.com/naebak/content-service/internal/middleware"
	"github.com/naebak/content-service/internal/migration"
	"github.com/naebak/content-service/internal/repository"
	"github.com/naebak/content-service/internal/routes"
	"github.com/naebak/content-service/internal/service"
	pkgcache "github.com/naebak/content-service/pkg/cache"
	"github.com/naebak/content-service/pkg/jwt"
	pkglogger "github.com/naebak/content-service/pkg/logger"
	pkgredis "github.com/naebak/content-service/pkg/redis"
)

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.Init(env)
	pkglogger.Get().Info().Str("env", env).Strs("env_files", dotenvFiles).Msg("starting content service")

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// MySQL is mandatory: every operation writes through it
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	pkglogger.Get().Info().Str("host", cfg.Database.Host).Msg("connected to MySQL")

	if err := migration.Run(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	// Redis is optional: caching degrades gracefully without it
	redisClient, err := pkgredis.NewClient(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
	)
	if err != nil {
		pkglogger.Get().Warn().Err(err).Msg("Redis unavailable, continuing without cache")
		redisClient = nil
	} else {
		pkglogger.Get().Info().Str("host", cfg.Redis.Host).Msg("connected to Redis")
	}

	var cacheService pkgcache.Service
	if redisClient != nil {
		cacheService = pkgcache.NewService(redisClient)
	}

	jwtManager := jwt.NewManager(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.ExpiresHours)*time.Hour,
	)

	// Repositories
	contentRepo := repository.NewContentRepository(db)
	versionRepo := repository.NewVersionRepository(db)
	logRepo := repository.NewModerationLogRepository(db)

	// Services
	moderationService := service.NewModerationService(
		db,
		contentRepo,
		logRepo,
		domain.DefaultModerationRules(),
		cfg.Moderation.HumanReviewThreshold,
		cfg.Moderation.AutoRejectThreshold,
	)
	versionService := service.NewVersionService(db, contentRepo, versionRepo, cfg.Versioning.MaxVersionsPerContent)
	contentService := service.NewContentService(db, contentRepo, versionService, moderationService)
	if cacheService != nil {
		moderationService.SetCache(cacheService)
		contentService.SetCache(cacheService)
	}

	// Handlers
	healthHandler := handler.NewHealthHandler(db, redisClient)
	contentHandler := handler.NewContentHandler(contentService)
	moderationHandler := handler.NewModerationHandler(moderationService)
	versionHandler := handler.NewVersionHandler(versionService)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     splitAndTrim(cfg.CORS.AllowOrigins, ","),
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID"},
		MaxAge:           86400,
	}
	router.Use(cors.New(corsConfig))

	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	routes.Setup(router, healthHandler, contentHandler, moderationHandler, versionHandler, jwtManager)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	pkglogger.Get().Info().Str("addr", addr).Msg("listening")
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func initDB(cfg *config.Config) (*gorm.DB, error) {
	mysqlCfg, err := mysqldriver.ParseDSN(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	logMode := gormlogger.Warn
	if cfg.IsDevelopment() {
		logMode = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(mysqlCfg.FormatDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	return db, nil
}

// splitAndTrim splits a string by delimiter and drops empty entries
func splitAndTrim(s, delimiter string) []string {
	parts := []string{}
	for _, part := range strings.Split(s, delimiter) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
