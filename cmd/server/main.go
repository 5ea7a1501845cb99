// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/show/internal/cache"
	"github.com/jason-s-yu/show/internal/config"
	"github.com/jason-s-yu/show/internal/database"
	"github.com/jason-s-yu/show/internal/game"
	"github.com/jason-s-yu/show/internal/handlers"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := game.NewRegistry(logger)
	registry.DefaultRoundLimit = cfg.DefaultRoundLimit

	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Warnf("action log disabled: %v", err)
		} else {
			defer rdb.Close()
			pub := cache.NewPublisher(rdb, cfg.QueueName, logger)
			defer pub.Close()
			registry.Recorder = pub
			logger.Infof("publishing room actions to redis list %s", cfg.QueueName)
		}
	}

	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warnf("result archive disabled: %v", err)
		} else {
			defer pool.Close()
			if err := database.Migrate(ctx, pool); err != nil {
				logger.Fatalf("migrate: %v", err)
			}
			registry.OnGameEnd = archiveResults(pool, logger)
		}
	}

	gs := handlers.NewGameServer(logger, registry)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handlers.NewRouter(logger, gs, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Infof("Running on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server exited: %v", err)
	}
	logger.Info("server stopped")
}

// archiveResults stores final standings without holding up the room lock.
func archiveResults(pool *pgxpool.Pool, logger *logrus.Logger) game.OnGameEndFunc {
	return func(res game.GameResult) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			log := logger.WithFields(logrus.Fields{"room": res.RoomID, "session": res.SessionID})
			if err := database.RecordRoomResult(ctx, pool, res); err != nil {
				log.Errorf("archive result: %v", err)
				return
			}
			log.Info("result archived")
		}()
	}
}
