// Command server runs the exam seating HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/exam-seating/internal/config"
	"github.com/iliyamo/exam-seating/internal/database"
	"github.com/iliyamo/exam-seating/internal/handler"
	"github.com/iliyamo/exam-seating/internal/logging"
	"github.com/iliyamo/exam-seating/internal/middleware"
	"github.com/iliyamo/exam-seating/internal/queue"
	"github.com/iliyamo/exam-seating/internal/repository"
	"github.com/iliyamo/exam-seating/internal/router"
	"github.com/iliyamo/exam-seating/internal/service"
)

func main() {
	logger := logging.New(os.Stderr, log.InfoLevel)

	if err := config.LoadDotEnv(); err != nil {
		logger.Fatal("config: load .env", "err", err)
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config: load", "err", err)
	}
	logger.SetLevel(logging.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("database: open", "host", cfg.DBHost, "err", err)
	}
	defer db.Close()

	cacheCfg := config.LoadCacheConfig()
	rateCfg := config.LoadRateLimitConfig()
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logger.Warn("redis: unavailable, cache and rate limit disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	rooms := repository.NewRoomRepo(db)
	roster := repository.NewRosterRepo(db)
	pins := repository.NewPinRepo(db)

	if n, err := tokens.DeleteExpired(ctx, time.Now().Add(-24*time.Hour)); err != nil {
		logger.Warn("auth: refresh token cleanup failed", "err", err)
	} else if n > 0 {
		logger.Info("auth: dropped stale refresh tokens", "count", n)
	}

	if cfg.RoomsFile != "" {
		if err := importRoomsFile(ctx, cfg.RoomsFile, cfg.RoomsOwner, users, rooms, logger); err != nil {
			logger.Error("rooms: startup import failed", "file", cfg.RoomsFile, "err", err)
		}
	}

	var purge handler.CachePurger
	if rdb != nil {
		purge = func(ctx context.Context, prefix string) error {
			return middleware.PurgePath(ctx, cacheCfg, rdb, prefix)
		}
	}
	publisher := service.NewSeatingPublisher(cfg.RabbitURL, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewPublicHandler(rooms),
		middleware.NewTokenBucket(rateCfg, rdb),
		middleware.NewRedisCache(cacheCfg, rdb),
	)
	router.RegisterOwner(e, handler.NewOwnerHandler(rooms, roster, pins, publisher, purge), cfg.JWTSecret)

	go func() {
		err := queue.StartSeatingConsumer(ctx, cfg.RabbitURL, cfg.SeatingLogDir, logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("seating-consumer: stopped", "err", err)
		}
	}()

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http: serve", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http: shutdown", "err", err)
	}
}
