package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"

	"github.com/campushire/campushire/internal/config"
	"github.com/campushire/campushire/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	if cfg.Redis.Address == "" {
		log.Fatal().Msg("REDIS_ADDRESS is required to run asynqmon")
	}

	h := asynqmon.New(asynqmon.Options{
		RootPath:     "/asynqmon",
		RedisConnOpt: asynq.RedisClientOpt{Addr: cfg.Redis.Address},
	})
	defer h.Close()

	log.Info().
		Str("addr", cfg.Worker.MonitorAddr).
		Str("redis", cfg.Redis.Address).
		Msg("Starting Asynqmon")

	// h serves everything under RootPath
	if err := http.ListenAndServe(cfg.Worker.MonitorAddr, h); err != nil {
		log.Fatal().Err(err).Msg("Asynqmon stopped")
	}
}
