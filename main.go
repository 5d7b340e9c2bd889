package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/concentration/internal/config"
	"github.com/robalobadob/concentration/internal/httpserver"
	"github.com/robalobadob/concentration/internal/palette"
	"github.com/robalobadob/concentration/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	symbols, err := palette.Load(cfg.PaletteFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load card palette")
	}

	kv, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Store).Msg("failed to open store")
	}
	defer kv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := httpserver.New(cfg, symbols, kv)
	log.Info().Str("port", cfg.Port).Str("store", cfg.Store).Int("symbols", len(symbols)).Msg("starting concentration server")
	if err := srv.Run(ctx, ":"+cfg.Port); err != nil {
		log.Error().Err(err).Msg("server exited")
		return
	}
	log.Info().Msg("server stopped")
}

func openStore(cfg config.Config) (store.KV, error) {
	if cfg.Store == "memory" {
		return store.NewMemory(), nil
	}
	return store.OpenSQLite(cfg.DBPath)
}
