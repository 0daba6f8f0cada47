package main

// Run database migrations:
//   go run ./cmd/migrate          apply pending migrations
//   go run ./cmd/migrate status   print migration state

import (
	"context"
	"log"
	"os"

	"resume-tailor/internal/shared/config"
	"resume-tailor/internal/shared/storage/db"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if len(os.Args) > 1 && os.Args[1] == "status" {
		if err := db.MigrationStatus(ctx, sqlDB); err != nil {
			log.Printf("failed to read migration status: %v", err)
			os.Exit(1)
		}
		return
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		log.Printf("failed to run migrations: %v", err)
		os.Exit(1)
	}
}
