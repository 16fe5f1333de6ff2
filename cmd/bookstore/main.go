package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"bookstore/internal/config"
	"bookstore/internal/http/handlers"
	applog "bookstore/internal/log"
	"bookstore/internal/ratelimit"
	"bookstore/internal/repos"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			applog.Logger().Warn().Err(err).Str("file", cfg.LogFile).Msg("could not open log file")
		} else {
			defer f.Close()
			out = io.MultiWriter(os.Stdout, f)
		}
	}
	applog.Init(out, cfg.LogLevel, cfg.LogFormat)
	log := applog.Logger()

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := repos.EnsureAdmin(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("ensure admin account")
	}

	var storage fiber.Storage
	if cfg.RedisURL != "" {
		rs, err := ratelimit.NewRedisStorage(cfg.RedisURL, "bookstore:limiter")
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, rate limits kept in memory")
		} else {
			defer rs.Close()
			storage = rs
		}
	}

	app := handlers.NewApp(handlers.NewDeps(db, cfg), handlers.Options{Storage: storage})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(ctx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("listening")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}
