package main

import (
	"context"
	"log"

	"github.com/marcalaing/gpt-rank-sub000/internal/bootstrap"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/config"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/server"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/storage/db"
)

func main() {
	cfg := config.Load()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	if app.DB != nil {
		if err := db.RunMigrations(context.Background(), app.DB); err != nil {
			log.Fatalf("migrations: %v", err)
		}
	}

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s env=%s providers=%v", addr, cfg.Env, app.Providers.Names())

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
