package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	applog "bookstore/internal/log"
)

type Config struct {
	Port          string
	DBDSN         string
	LogFile       string
	LogLevel      string
	LogFormat     string
	JWTSecret     string
	JWTTTL        time.Duration
	RedisURL      string
	AdminEmail    string
	AdminPassword string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func Load() Config {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil {
		applog.Logger().Debug().Msg("no .env file, using process environment")
	}

	ttl := 24 * time.Hour
	if raw := os.Getenv("JWT_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			ttl = d
		} else if h, err := strconv.Atoi(raw); err == nil && h > 0 {
			ttl = time.Duration(h) * time.Hour
		}
	}

	cfg := Config{
		Port:          getenv("PORT", "8080"),
		DBDSN:         getenv("DB_DSN", "bookstore.db"), // sqlite file in project root
		LogFile:       os.Getenv("LOG_FILE"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		LogFormat:     getenv("LOG_FORMAT", "json"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTTTL:        ttl,
		RedisURL:      os.Getenv("REDIS_URL"),
		AdminEmail:    getenv("ADMIN_EMAIL", "admin@bookstore.test"),
		AdminPassword: getenv("ADMIN_PASSWORD", "Passw0rd!"),
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = randomSecret()
		applog.Logger().Warn().Msg("JWT_SECRET not set, using a random per-process secret; tokens will not survive a restart")
	}
	applog.Logger().Info().
		Str("port", cfg.Port).
		Str("db_dsn", cfg.DBDSN).
		Str("log_level", cfg.LogLevel).
		Bool("redis", cfg.RedisURL != "").
		Dur("jwt_ttl", cfg.JWTTTL).
		Msg("config loaded")
	return cfg
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("config: no entropy for JWT secret: " + err.Error())
	}
	return hex.EncodeToString(b)
}
