package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"postboard/docs"
	"postboard/internal/auth"
	"postboard/internal/cache"
	"postboard/internal/config"
	"postboard/internal/db"
	"postboard/internal/handler"
	"postboard/internal/logger"
	"postboard/internal/model"
	"postboard/internal/repository"
	"postboard/internal/router"
	"postboard/internal/service"
)

// @title Postboard API
// @version 1.0
// @description User registration, bearer-token login and a simple posts feed.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	if err := run(); err != nil {
		log.Printf("fatal: %v", err)
		os.Exit(1)
	}
}

// run wires the service and blocks until SIGINT/SIGTERM or a server error.
// Every resource it opens is released before it returns.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logOut := logger.New(cfg.LogFile)
	defer logOut.Close()
	log.SetOutput(logOut)

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetOutput(logOut)
	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{Output: logOut}))

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseURL, db.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: 30 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}
	defer func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	log.Printf("Database connected (%s)", cfg.DBDriver)

	if cfg.AutoMigrate {
		if err := gormDB.AutoMigrate(&model.User{}, &model.Post{}); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
		log.Println("Tables migrated")
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if cacheClient == nil {
		log.Println("REDIS_ADDR not set, post listing cache disabled")
	} else if err := cacheClient.Ping(context.Background()); err != nil {
		log.Printf("Warning: redis unreachable, serving without cache: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	postRepo := repository.NewPostRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	hasher := auth.NewBcryptHasher(auth.DefaultBcryptCost)

	// Initialize services
	authService := service.NewAuthService(userRepo, hasher, jwtService)
	postService := service.NewPostService(postRepo, cacheClient)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	postHandler := handler.NewPostHandler(postService)

	router.Register(e, jwtService, authHandler, postHandler)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	}
	log.Printf("Swagger documentation available at: http://%s/swagger/index.html", docs.SwaggerInfo.Host)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, e, ":"+cfg.ServerPort)
}

// serve runs e on addr until ctx is done, then shuts it down gracefully.
// A listen failure is returned instead of terminating the process.
func serve(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server start: %w", err)
	case <-ctx.Done():
	}
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
