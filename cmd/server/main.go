package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coderunner/internal/cache"
	"coderunner/internal/controller"
	"coderunner/internal/engine"
	"coderunner/internal/judge"
	"coderunner/internal/middleware"
	"coderunner/internal/profile"
	"coderunner/internal/workspace"
	"coderunner/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/server.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := profile.NewRegistry()
	if len(appCfg.Languages) > 0 {
		registry = profile.NewRegistryWith(appCfg.Languages)
	}

	workspaces := workspace.NewManager(appCfg.Workspace.Root)
	go workspaces.RunSweeper(ctx,
		appCfg.Workspace.CleanupInterval,
		time.Duration(appCfg.Workspace.MaxTempAgeMinutes)*time.Minute)

	eng := engine.New(appCfg.engineConfig(), registry, workspaces)
	judgeSvc := judge.NewService(eng)

	var limiter *middleware.RateLimiter
	if appCfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCache(appCfg.Redis)
		if err != nil {
			logger.Error(ctx, "init redis failed", zap.Error(err))
			return
		}
		defer func() {
			_ = redisCache.Close()
		}()
		limiter = middleware.NewRateLimiter(redisCache, appCfg.Guards.RateWindow, 0)
	}

	if appCfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctl := controller.NewExecuteController(eng, judgeSvc, registry, controller.Guards{
		MaxCodeLength:  appCfg.Guards.MaxCodeLength,
		MaxInputLength: appCfg.Guards.MaxInputLength,
	})
	router := controller.NewRouter(ctl, controller.RouterOptions{
		SharedSecret:   appCfg.Guards.SharedSecret,
		MaxBodyBytes:   appCfg.Guards.MaxBodyBytes,
		RateLimiter:    limiter,
		RateLimitPerIP: appCfg.Guards.RateLimitPerIP,
	})

	server := &http.Server{
		Addr:         appCfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  appCfg.Server.ReadTimeout,
		WriteTimeout: appCfg.Server.WriteTimeout,
		IdleTimeout:  appCfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "server listening",
			zap.String("addr", appCfg.Server.Addr),
			zap.String("environment", appCfg.Environment),
			zap.Strings("languages", registry.IDs()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(context.Background(), "graceful shutdown failed", zap.Error(err))
	}
}
