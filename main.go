package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"food-marketplace-api/audit"
	"food-marketplace-api/auth"
	"food-marketplace-api/config"
	"food-marketplace-api/handlers"
	"food-marketplace-api/middleware"
	"food-marketplace-api/routes"
	"food-marketplace-api/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(err)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	db, err := config.OpenDatabase(cfg.Database)
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return err
	}
	logger.Info("database ready", zap.String("driver", cfg.Database.Driver))

	var denylist auth.Denylist = auth.NewGormDenylist(db)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		denylist = auth.NewCachedDenylist(denylist, rdb)
		logger.Info("token denylist cached in redis", zap.String("addr", cfg.Redis.Addr))
	}
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, denylist)

	auditLog := audit.Multi{audit.NewZapLog(logger)}
	var trail audit.Reader
	if cfg.MongoDB.URI != "" {
		mongoLog, err := audit.NewMongoLog(ctx, &cfg.MongoDB)
		if err != nil {
			return err
		}
		defer mongoLog.Close(context.Background())
		auditLog = append(auditLog, mongoLog)
		trail = mongoLog
		logger.Info("audit trail mirrored to mongodb", zap.String("collection", cfg.MongoDB.Collection))
	}

	users := service.NewUserService(db, tokens, logger)
	if err := users.SeedAdmin(ctx, cfg.Admin); err != nil {
		return err
	}

	h := handlers.New(db, handlers.Services{
		Users:       users,
		Restaurants: service.NewRestaurantService(db, auditLog, logger),
		Menu:        service.NewMenuService(db),
		Orders:      service.NewOrderService(db, auditLog, logger).WithTrail(trail),
		Reviews:     service.NewReviewService(db),
	}, logger)

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.CORS())
	routes.SetupRoutes(r, h, tokens)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: r,
	}
	go func() {
		logger.Info("server running", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg.Server))
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("HTTP server stopped")

	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.Close()
	}
	return nil
}

func shutdownTimeout(cfg config.ServerConfig) time.Duration {
	if cfg.ShutdownTimeout > 0 {
		return cfg.ShutdownTimeout
	}
	return 5 * time.Second
}
