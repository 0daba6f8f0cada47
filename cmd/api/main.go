package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"resume-tailor/internal/bootstrap"
	"resume-tailor/internal/shared/config"
	"resume-tailor/internal/shared/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer app.Close()

	if err := server.Run(ctx, server.Addr(cfg.Port), app.Router); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
