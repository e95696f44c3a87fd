package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docshelf/config"
	"docshelf/database"
	"docshelf/handlers"
	"docshelf/logger"
	"docshelf/repositories"
	"docshelf/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	configPath := os.Getenv("DOCSHELF_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.L().Fatal("load config failed", zap.String("path", configPath), zap.Error(err))
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	logger.Infof("starting docshelf service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.InitDB(&cfg.Database); err != nil {
		logger.L().Fatal("init database failed", zap.Error(err))
	}
	if err := database.Migrate(database.DB); err != nil {
		logger.L().Fatal("migrate database failed", zap.Error(err))
	}
	logger.Infof("database migration completed")

	if err := database.InitRedis(ctx, &cfg.Redis); err != nil {
		logger.L().Fatal("init redis failed", zap.Error(err))
	}

	store, err := services.NewOsFileStore(cfg.Storage.BasePath)
	if err != nil {
		logger.L().Fatal("init storage failed", zap.Error(err))
	}

	repoContainer := repositories.NewGormRepositories(database.DB, database.RedisClient).BuildContainer()
	serviceContainer := services.NewContainer(repoContainer, store)
	handlers.SetServices(serviceContainer)

	if _, err := serviceContainer.User.EnsureDefaultUser(ctx, cfg.Auth.DefaultUserID); err != nil {
		logger.L().Fatal("ensure default user failed", zap.Error(err))
	}

	if cfg.Cleanup.Enabled {
		services.StartCleanupWorkers(ctx)
		logger.Infof("cleanup workers started")
	}

	if !logger.IsDebugEnabled() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := handlers.NewRouter(cfg)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("server shutdown: %v", err)
		}
	}()

	logger.Infof("server listening on http://%s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.L().Fatal("server start failed", zap.Error(err))
	}
	logger.Infof("server stopped")
}
