package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var (
	PORT       string
	DB_DRIVER  string
	DB_URL     string
	JWT_SECRET string

	CORS_ORIGIN    string
	AUTOSAVE_DELAY time.Duration
	LOG_LEVEL      string
	GIN_MODE       string
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		logrus.Debug("No .env file found. Using system environment variables.")
	}

	v := newViper()

	PORT = v.GetString("PORT")
	DB_DRIVER = v.GetString("DB_DRIVER")
	DB_URL = mustEnv(v, "DB_URL")
	JWT_SECRET = mustEnv(v, "JWT_SECRET")

	CORS_ORIGIN = v.GetString("CORS_ORIGIN")
	AUTOSAVE_DELAY = v.GetDuration("AUTOSAVE_DELAY")
	LOG_LEVEL = v.GetString("LOG_LEVEL")
	GIN_MODE = v.GetString("GIN_MODE")
}

// LoadDB reads only the database settings, for commands that do not serve.
func LoadDB() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found. Using system environment variables.")
	}

	v := newViper()
	DB_DRIVER = v.GetString("DB_DRIVER")
	DB_URL = mustEnv(v, "DB_URL")
	LOG_LEVEL = v.GetString("LOG_LEVEL")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("CORS_ORIGIN", "http://localhost:3000")
	v.SetDefault("AUTOSAVE_DELAY", "2s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("GIN_MODE", "debug")
	return v
}

func mustEnv(v *viper.Viper, key string) string {
	val := v.GetString(key)
	if val == "" {
		logrus.Fatalf("Missing required environment variable: %s", key)
	}
	return val
}
