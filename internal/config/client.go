package config

import "github.com/caarlos0/env/v11"

// ClientConfig configures the terminal client.
type ClientConfig struct {
	// ServerURL is the API base URL. When empty the client runs against
	// the built-in preview simulator instead of a live server.
	ServerURL string `env:"SER_SERVER_URL"`
	Token     string `env:"SER_TOKEN"`

	IdentityFile string `env:"SER_IDENTITY_FILE"`
}

func LoadClient() (ClientConfig, error) {
	var cfg ClientConfig
	err := env.Parse(&cfg)
	return cfg, err
}
