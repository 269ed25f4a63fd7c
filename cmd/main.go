// cmd/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lmittmann/tint"
	"github.com/rs/cors"

	"go_5_review_keep/internal/config"
	"go_5_review_keep/internal/handlers"
	"go_5_review_keep/internal/middleware"
	"go_5_review_keep/internal/repository"
	"go_5_review_keep/internal/scheduler"
	"go_5_review_keep/internal/service"
	"go_5_review_keep/internal/timeutil"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	//　設定ファイル読み込み用の一時的なロガー設定
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(tempLogger)
	log.Println("Log Config Loading...")

	if err := config.LoadConfig("../configs"); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// === 設定に基づいて slog ロガーを初期化 ===
	logLevel := new(slog.LevelVar)
	switch strings.ToLower(config.Cfg.Log.Level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
		slog.Warn("Unknown log level specified in config, defaulting to INFO", slog.String("level", config.Cfg.Log.Level))
	}

	var handler slog.Handler
	appEnv := os.Getenv("APP_ENV")
	if strings.ToLower(appEnv) == "dev" {
		tintOpts := &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		}
		handler = tint.NewHandler(os.Stderr, tintOpts)
		tempLogger.Info("Using TINT log handler", slog.String("APP_ENV", appEnv))
	} else {
		jsonOpts := &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}
		handler = slog.NewJSONHandler(os.Stderr, jsonOpts)
		tempLogger.Info("Using JSON log handler", slog.String("APP_ENV", appEnv))
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	slog.Info("Application starting...")

	// タイムゾーン。リマインドの「その日」の基準になる
	loc, err := timeutil.LoadLocation(config.Cfg.App.Timezone)
	if err != nil {
		slog.Error("Error loading timezone", slog.String("timezone", config.Cfg.App.Timezone), slog.Any("error", err))
		os.Exit(1)
	}

	// 2. Initialize Database Connection (GORM)
	db, err := repository.NewDB(config.Cfg.Database.URL, logger)
	if err != nil {
		slog.Error("Error initializing database", slog.Any("error", err))
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Error getting underlying sql.DB from GORM", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Error closing database connection", slog.Any("error", err))
		} else {
			slog.Info("Database connection closed.")
		}
	}()

	// 3. Dependency Injection
	itemRepo := repository.NewGormItemRepository()
	freqRepo := repository.NewGormFrequencyRepository()
	seqRepo := repository.NewGormSeqRepository()
	guildRepo := repository.NewGormGuildConfigRepository()
	userRepo := repository.NewGormUserConfigRepository()

	itemService := service.NewItemService(db, itemRepo, freqRepo, seqRepo, loc, &config.Cfg)
	reminderService := service.NewReminderService(db, itemRepo, loc, &config.Cfg)
	frequencyService := service.NewFrequencyService(db, freqRepo, itemRepo)
	profileService := service.NewProfileService(db, guildRepo, userRepo, &config.Cfg)
	phraser := service.NewPhraser(&config.Cfg)

	var notifier service.Notifier
	if config.Cfg.Notifier.Kind == "telegram" {
		telegramNotifier, err := service.NewTelegramNotifier(config.Cfg.Notifier.TelegramToken)
		if err != nil {
			slog.Error("Error initializing Telegram notifier", slog.Any("error", err))
			os.Exit(1)
		}
		notifier = telegramNotifier
		slog.Info("Using Telegram notifier")
	} else {
		notifier = service.NewLogNotifier()
		slog.Info("Using log notifier")
	}

	sched := scheduler.New(reminderService, profileService, phraser, notifier, &config.Cfg, loc, logger)
	if err := sched.Start(); err != nil {
		slog.Error("Error starting reminder scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	defer sched.Stop()

	itemHandler := handlers.NewItemHandler(itemService, phraser, profileService, logger)
	reminderHandler := handlers.NewReminderHandler(reminderService, phraser, profileService, sched, logger)
	adminHandler := handlers.NewAdminHandler(itemService, frequencyService, profileService, &config.Cfg, loc, logger)

	// 4. Setup Router
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewStructuredLogger(logger))

	corsOptions := cors.Options{
		AllowedOrigins:   config.Cfg.CORS.AllowedOrigins,
		AllowedMethods:   config.Cfg.CORS.AllowedMethods,
		AllowedHeaders:   config.Cfg.CORS.AllowedHeaders,
		AllowCredentials: config.Cfg.CORS.AllowCredentials,
		MaxAge:           config.Cfg.CORS.MaxAge,
		Debug:            false,
	}
	corsHandler := cors.New(corsOptions)
	r.Use(corsHandler.Handler)

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/items", func(r chi.Router) {
			r.Post("/", itemHandler.PostItem)
			r.Get("/", itemHandler.GetItems)
			r.Get("/archived", itemHandler.GetArchivedItems)
			r.Post("/{ref}/archive", itemHandler.ArchiveItem)
			r.Post("/{ref}/revive", itemHandler.ReviveItem)
			r.Post("/{ref}/move", itemHandler.MoveItem)
		})

		r.Route("/reminders", func(r chi.Router) {
			r.Post("/confirm", reminderHandler.ConfirmBatch)
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", adminHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminAuthMiddleware(&config.Cfg))

			r.Post("/reminders/run", reminderHandler.RunReminders)
			r.Get("/items/export", adminHandler.ExportItems)

			r.Route("/guilds/{guild_id}", func(r chi.Router) {
				r.Get("/config", adminHandler.GetGuildConfig)
				r.Put("/config", adminHandler.PutGuildConfig)

				r.Get("/frequencies", adminHandler.GetFrequencies)
				r.Post("/frequencies", adminHandler.PostFrequency)
				r.Post("/frequencies/seed", adminHandler.SeedFrequencies)

				r.Get("/users", adminHandler.GetUserConfigs)
				r.Post("/users", adminHandler.PostUserConfig)
			})
			r.Delete("/frequencies/{frequency_id}", adminHandler.DeleteFrequency)
		})
	})

	// Health Check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := sqlDB.PingContext(ctx); err != nil {
			slog.ErrorContext(ctx, "Health check failed: could not ping DB", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// 5. Start Server
	server := &http.Server{
		Addr:         config.Cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", slog.String("port", config.Cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", slog.String("port", config.Cfg.Server.Port), slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", slog.Any("error", err))
	}

	log.Println("Server exiting")
}
