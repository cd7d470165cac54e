package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/phenrril/customerdesk/internal/app"
)

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = time.RFC3339
	zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := app.LoadConfig()
	if err != nil {
		zlog.Fatal().Err(err).Msg("configuración inválida")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	application, err := app.NewApp(ctx, cfg, nil)
	if err != nil {
		stop()
		zlog.Fatal().Err(err).Msg("failed to create app")
	}

	code := run(ctx, application, os.Args[1:], os.Stdout, os.Stderr)
	application.Close()
	stop()
	os.Exit(code)
}
