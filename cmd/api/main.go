package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/educonnect/educonnect-api/api/swagger"
	"github.com/educonnect/educonnect-api/internal/handler"
	"github.com/educonnect/educonnect-api/internal/middleware"
	"github.com/educonnect/educonnect-api/internal/models"
	"github.com/educonnect/educonnect-api/internal/repository"
	"github.com/educonnect/educonnect-api/internal/service"
	"github.com/educonnect/educonnect-api/pkg/cache"
	"github.com/educonnect/educonnect-api/pkg/config"
	"github.com/educonnect/educonnect-api/pkg/database"
	"github.com/educonnect/educonnect-api/pkg/logger"
	corsmiddleware "github.com/educonnect/educonnect-api/pkg/middleware/cors"
	reqidmiddleware "github.com/educonnect/educonnect-api/pkg/middleware/requestid"
)

// @title EduConnect API
// @version 1.0.0
// @description Course catalogue, enrollment and account platform
// @BasePath /api
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := buildRouter(cfg, logr, db, redisClient)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func buildRouter(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client) *gin.Engine {
	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, logr, cfg.Cache.Enabled)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	courseSvc := service.NewCourseService(courseRepo, enrollmentRepo, cacheSvc, service.CourseTTLConfig{
		List:      cfg.Cache.CourseListTTL,
		Detail:    cfg.Cache.CourseTTL,
		MyCourses: cfg.Cache.MyCoursesTTL,
	}, logr)
	adminSvc := service.NewAdminService(courseRepo, userRepo, enrollmentRepo, cacheSvc, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	adminHandler := handler.NewAdminHandler(adminSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metricsHandler.Expose)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.GET("/user", authHandler.Me)
		authed.GET("/courses", courseHandler.List)
		authed.GET("/courses/:id", courseHandler.Show)
		authed.POST("/courses/:id/enroll", courseHandler.Enroll)
		authed.GET("/my-courses", courseHandler.MyCourses)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/stats", adminHandler.Stats)
		admin.GET("/users", adminHandler.ListUsers)
		admin.DELETE("/users/:id", adminHandler.DeleteUser)
		admin.POST("/courses", adminHandler.CreateCourse)
		admin.PUT("/courses/:id", adminHandler.UpdateCourse)
		admin.DELETE("/courses/:id", adminHandler.DeleteCourse)
		admin.GET("/enrollments/export", adminHandler.ExportEnrollments)
	}

	return r
}
