package main

import (
	"errors"
	"log/slog"
	"os"
	"time"

	httpapi "github.com/medatlas/teleconsult/internal/api/http"
	"github.com/medatlas/teleconsult/internal/config"
	"github.com/medatlas/teleconsult/internal/repository"
	"github.com/medatlas/teleconsult/internal/repository/model"
	"github.com/medatlas/teleconsult/internal/service"
	"github.com/medatlas/teleconsult/lib/logger/slogpretty"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	db, err := connectDatabase(cfg.Database)
	if err != nil {
		log.Error("failed to connect database", slog.Any("error", err))
		os.Exit(1)
	}

	consultationRepo := repository.NewPostgresConsultationRepository(db)
	chatRepo := repository.NewPostgresChatMessageRepository(db)

	registry := service.NewRoomRegistry()
	signalingService := service.NewSignalingService(
		registry,
		consultationRepo,
		log,
		cfg.Session.ReconnectGrace,
		cfg.Session.EventBuffer,
	)
	chatService := service.NewChatService(registry, chatRepo, consultationRepo, log)
	consultationService := service.NewConsultationService(consultationRepo, log)

	signalingController := httpapi.NewSignalingController(signalingService, chatService, log)
	chatController := httpapi.NewChatController(chatService)
	consultationController := httpapi.NewConsultationController(consultationService, signalingService, registry)

	router := httpapi.SetupRouter(signalingController, chatController, consultationController, httpapi.RouterOptions{
		JWTSecret:      cfg.Auth.JWTSecret,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		STUNServers:    cfg.WebRTC.STUNServers,
	})

	log.Info("starting application", slog.String("addr", cfg.HTTP.Address))
	if err := router.Run(cfg.HTTP.Address); err != nil {
		log.Error("http server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

func connectDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database dsn is empty")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	db.AutoMigrate(&model.Consultation{}, &model.ChatMessage{})

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}
