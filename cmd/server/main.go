package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/bhushangy/natours-api/internal/config"
	"github.com/bhushangy/natours-api/internal/database"
	"github.com/bhushangy/natours-api/internal/handler"
	"github.com/bhushangy/natours-api/internal/logger"
	"github.com/bhushangy/natours-api/internal/metrics"
	"github.com/bhushangy/natours-api/internal/middleware"
	"github.com/bhushangy/natours-api/internal/queue"
	"github.com/bhushangy/natours-api/internal/repository"
	"github.com/bhushangy/natours-api/internal/router"
)

func main() {
	// .env is a development convenience; in production the variables come
	// from the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	if err := logger.Init(cfg.Env); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.L().Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.L().Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.L().Warn("redis unavailable; response cache and rate limiting disabled")
	}

	// The mail consumer delivers password-reset mail out-of-band; it runs
	// its own reconnect loop for the lifetime of the process.
	go queue.StartMailConsumer()

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler(cfg.Env)
	e.Use(middleware.RequestID())
	e.Use(logger.Middleware())
	e.Use(metrics.Middleware())
	e.Use(middleware.RateLimit(config.LoadRateLimitConfig(), rdb))

	router.Register(e, router.Deps{
		Cfg:   cfg,
		Redis: rdb,
		Users: repository.NewUserRepo(db),
		Tours: repository.NewTourRepo(db),
	})

	addr := ":" + cfg.Port
	logger.L().Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}
