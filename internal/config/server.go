package config

import "github.com/caarlos0/env/v11"

// ServerConfig carries everything the API server needs from the
// environment.
type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass   string `env:"REDIS_PASSWORD"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	// Ops-chat telemetry; telemetry is disabled when the token is empty.
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
