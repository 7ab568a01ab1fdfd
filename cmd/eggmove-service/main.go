package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/eggmove/eggmove/config"
	"github.com/eggmove/eggmove/engine"
	"github.com/eggmove/eggmove/service"
	"github.com/eggmove/eggmove/snapshot"
)

func main() {
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	exPath := filepath.Dir(ex)

	cfg := config.DefaultConfig()
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("bad-config")
	}
	cfg.AdjustRelativePaths(exPath)
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Info().Interface("config", cfg.SanitizedSettings()).Str("exPath", exPath).Msg("loaded-config")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snap, err := snapshot.Open(ctx, cfg.GetString(config.ConfigSnapshot), snapshot.OpenOptions{
		FetchAttempts: uint(cfg.GetInt(config.ConfigSnapshotFetchAttempts)),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("could-not-open-snapshot")
	}
	policy, err := engine.PolicyFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could-not-load-policy")
	}
	eng := engine.New(snap, policy, engine.OptionsFromConfig(cfg))

	nc, err := nats.Connect(cfg.GetString(config.ConfigNatsURL))
	if err != nil {
		log.Fatal().AnErr("natsConnectErr", err).Msg("could-not-connect")
	}
	defer nc.Close()

	svc := service.New(eng)
	if err := svc.Listen(ctx, nc, cfg.GetString(config.ConfigNatsSubject)); err != nil {
		log.Fatal().Err(err).Msg("listen-failed")
	}
	log.Info().Msg("server gracefully shutting down")
}
