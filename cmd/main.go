package main

import (
	"log/slog"
	"os"

	httpapi "github.com/immxrtalbeast/peercall/internal/api/http"
	"github.com/immxrtalbeast/peercall/internal/config"
	"github.com/immxrtalbeast/peercall/internal/registry"
	"github.com/immxrtalbeast/peercall/internal/service"
	"github.com/immxrtalbeast/peercall/lib/logger/slogpretty"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	reg := registry.New()
	signalingService := service.NewSignalingService(reg, log, cfg.WebSocket.EventQueueSize)

	signalingController := httpapi.NewSignalingController(signalingService, log, cfg.WebSocket)
	userController := httpapi.NewUserController(signalingService)

	router := httpapi.SetupRouter(signalingController, userController, cfg)

	log.Info("starting application", slog.String("addr", cfg.HTTP.Address))

	var err error
	if cfg.HTTP.CertFile != "" && cfg.HTTP.KeyFile != "" {
		err = router.RunTLS(cfg.HTTP.Address, cfg.HTTP.CertFile, cfg.HTTP.KeyFile)
	} else {
		err = router.Run(cfg.HTTP.Address)
	}
	if err != nil {
		log.Error("http server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
