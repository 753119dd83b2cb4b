package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"group-moderator/bot"
	"group-moderator/config"
	"group-moderator/handlers"
	"group-moderator/model"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func setupLogging(level, format string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if format == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
}

func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shut down metrics server")
		}
	}()

	log.Info().Str("addr", addr).Msg("metrics server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func main() {
	setupLogging(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	cfg, loader, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg.LogLevel, cfg.LogFormat)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), os.ModePerm); err != nil {
		log.Fatal().Err(err).Msg("failed to create data directory")
	}

	b, err := bot.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating bot")
	}
	handlers.Register(b)

	loader.Watch(func(newCfg *model.Config) {
		b.SetConfig(newCfg)
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.Run(ctx)
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(ctx, cfg.MetricsAddr)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("bot stopped with error")
		b.Close()
		os.Exit(1)
	}
	log.Info().Msg("bot stopped")
}
