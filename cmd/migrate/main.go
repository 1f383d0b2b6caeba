package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/nicuwatch/nicudash/internal/config"
	"github.com/nicuwatch/nicudash/internal/repository/postgres"
	"github.com/nicuwatch/nicudash/migrations"
)

func main() {
	status := flag.Bool("status", false, "list pending migrations without applying them")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall migration timeout")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Printf("Connected to %s database\n", cfg.Database.Driver)

	migrationsFS, err := migrations.ForDriver(cfg.Database.Driver)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if *status {
		pending, err := postgres.Pending(ctx, db, migrationsFS)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to check migration status: %v\n", err)
			os.Exit(1)
		}
		if len(pending) == 0 {
			fmt.Println("Database is up to date")
			return
		}
		for _, name := range pending {
			fmt.Printf("pending: %s\n", name)
		}
		return
	}

	applied, err := postgres.RunMigrations(ctx, db, cfg.Database.Driver, migrationsFS)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}

	if applied == 0 {
		fmt.Println("No pending migrations")
		return
	}
	fmt.Printf("Applied %d migration(s)\n", applied)
}
