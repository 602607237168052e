package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stocklist-app/stocklist/internal/app"
	"github.com/stocklist-app/stocklist/internal/auth"
	"github.com/stocklist-app/stocklist/internal/contact"
	"github.com/stocklist-app/stocklist/internal/mail"
	"github.com/stocklist-app/stocklist/internal/observability"
	"github.com/stocklist-app/stocklist/internal/platform/cache"
	"github.com/stocklist-app/stocklist/internal/platform/db"
	"github.com/stocklist-app/stocklist/internal/users"
	"github.com/stocklist-app/stocklist/internal/weather"
	"github.com/stocklist-app/stocklist/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	includeStack := !cfg.IsProduction()

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// The weather cache is best-effort; a missing Redis only costs
	// upstream calls.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, weather cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	hasher := auth.NewPasswordHasher()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL)
	authMiddleware := auth.NewMiddleware(tokens, includeStack)
	mailer := mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(logger, usersRepo, hasher, tokens, mailer, users.ServiceConfig{
		FrontendURL:   cfg.FrontendURL,
		SenderEmail:   cfg.EmailUser,
		ResetTokenTTL: cfg.ResetTokenTTL,
	})
	usersHandler := users.NewHandler(logger, usersService, tokens, authMiddleware, includeStack)

	weatherClient := weather.NewClient(cfg.OpenWeatherURL, cfg.OpenWeatherAPIKey)
	var weatherCache *weather.Cache
	if redisClient != nil {
		weatherCache = weather.NewCache(redisClient, cfg.WeatherCacheTTL)
	}
	weatherHandler := weather.NewHandler(logger, weatherClient, weatherCache, includeStack)

	contactHandler := contact.NewHandler(logger, usersService, mailer, cfg.EmailUser, authMiddleware, includeStack)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		UsersHandler:   usersHandler,
		WeatherHandler: weatherHandler,
		ContactHandler: contactHandler,
		JobsHandler:    jobsHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
