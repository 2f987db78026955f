package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ser/app/internal/api/handler"
	"ser/app/internal/config"
	"ser/app/internal/localization"
	"ser/app/internal/logging"
	"ser/app/internal/models"
	"ser/app/internal/moderation"
	"ser/app/internal/pairing"
	"ser/app/internal/storage"
	"ser/app/internal/telemetry"
)

func setupDependencies(cfg config.ServerConfig, log zerolog.Logger) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect PostgreSQL")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect Redis")
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.ChatRoom{},
		&models.MetUser{},
		&models.ReconnectRequest{},
		&models.Report{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	log.Info().Msg("database and Redis connections established, migrations complete")
	return db, rdb
}

func main() {
	// Running without a .env file is fine in containers.
	_ = godotenv.Load()

	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	log := logging.Init(logCfg)

	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid server configuration")
	}

	log.Info().Msg("starting ser backend")

	db, rdb := setupDependencies(cfg, log)
	s := storage.NewStorageService(db, rdb)

	matcher := pairing.NewMatcher(s, log)
	if err := matcher.RecoverActiveRooms(); err != nil {
		log.Fatal().Err(err).Msg("failed to recover active rooms")
	}

	mod := moderation.NewService(s, log)

	loc, err := localization.NewLocalizer()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load localizations")
	}

	events := telemetry.Emitter(telemetry.LogEmitter{Log: log})
	if cfg.TelegramBotToken != "" {
		tg, err := telemetry.NewTelegramEmitter(cfg.TelegramBotToken, cfg.TelegramChatID, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to start telegram telemetry")
		}
		events = telemetry.Multi{events, tg}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go matcher.Run(ctx)

	r := gin.Default()
	h := handler.NewHandler(s, matcher, mod, loc, events, []byte(cfg.JWTSecret), log)
	h.RegisterRoutes(r)

	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
	if err := server.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
