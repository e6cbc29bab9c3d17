package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set are kept. A missing file is not an error.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv overlays environment variables on cfg. Set variables win over the file.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&cfg.Telegram.Token, "BOT_TOKEN")
	set(&cfg.Telegram.ChannelID, "CHANNEL_ID")
	set(&cfg.Storage.Driver, "DB_DRIVER")
	set(&cfg.Storage.DSN, "DATABASE_URL")
	set(&cfg.Storage.Host, "DB_HOST")
	set(&cfg.Storage.Port, "DB_PORT")
	set(&cfg.Storage.Name, "DB_NAME")
	set(&cfg.Storage.User, "DB_USER")
	set(&cfg.Storage.Password, "DB_PASSWORD")
	set(&cfg.Logging.Level, "LOG_LEVEL")
}
