package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bsm/redislock"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/myatthu/stallkeeper/internal/adapter/handler"
	"github.com/myatthu/stallkeeper/internal/adapter/storage"
	"github.com/myatthu/stallkeeper/internal/config"
	"github.com/myatthu/stallkeeper/internal/core/domain"
	"github.com/myatthu/stallkeeper/internal/core/service"
	"github.com/myatthu/stallkeeper/internal/port"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	logger := config.NewLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		logger.Fatalf("failed to connect mysql: %v", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		logger.Fatalf("failed to ping mysql: %v", err)
	}
	logger.Info("connected to mysql")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatalf("failed to connect redis: %v", err)
	}
	logger.Info("connected to redis")

	// Initialize adapters
	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb)
	locker := redislock.New(rdb)

	// Initialize services
	activityService := service.NewActivityService(mysqlAdapter, cfg.ActivityQueueSize, logger)
	inventoryService := service.NewInventoryService(mysqlAdapter, activityService, logger)
	salesService := service.NewSalesService(mysqlAdapter, redisAdapter, locker, activityService, logger)
	authService := service.NewAuthService(mysqlAdapter, redisAdapter, cfg.JWTSecret, cfg.TokenTTL, logger)

	// Start activity writer pool
	var wg sync.WaitGroup
	for i := 0; i < cfg.ActivityWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			writerLoop(id, activityService.Queue(), mysqlAdapter, logger)
		}(i)
	}
	logger.Infof("started %d activity writers", cfg.ActivityWorkers)

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(authService, inventoryService, salesService, activityService, logger)
	router := handler.NewRouter(httpHandler, cfg.AllowedOrigins)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		logger.Infof("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Errorf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Info("HTTP server stopped")

	// Close activity queue and wait for writers to drain it
	activityService.Close()
	wg.Wait()
	logger.Info("activity writers stopped")

	rdb.Close()
	db.Close()
	logger.Info("connections closed")
}

func writerLoop(id int, queue <-chan domain.ActivityEntry, repo port.ActivityRepository, logger *logrus.Logger) {
	for entry := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		if err := repo.AppendActivity(ctx, entry); err != nil {
			logger.WithFields(logrus.Fields{
				"writer": id,
				"userID": entry.UserID,
				"action": entry.Action,
			}).Errorf("failed to persist activity entry: %v", err)
		}

		cancel()
	}
}
