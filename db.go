package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"marate/pkg/gormstore"
	"marate/pkg/ledger"
	"marate/pkg/memstore"
	"marate/pkg/receiptpdf"
)

// initEngine opens the configured store, migrates and seeds it, and wires the
// ledger engine with the PDF renderer.
func initEngine(ctx context.Context) (*ledger.Engine, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	engine := ledger.New(store, receiptpdf.New(), logger)
	if v := os.Getenv("RENDER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			engine.SetRenderTimeout(d)
		} else {
			log.Printf("ignoring invalid RENDER_TIMEOUT %q: %v", v, err)
		}
	}

	if err := seedAdmin(ctx, engine); err != nil {
		return nil, err
	}
	return engine, nil
}

// openStore selects the backend: DATA_BACKEND=memory for an in-process store,
// anything else requires a Postgres DSN in DB_DSN.
func openStore() (ledger.Store, error) {
	if os.Getenv("DATA_BACKEND") == "memory" {
		return memstore.New(), nil
	}

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN (or DATA_BACKEND=memory).")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	store := gormstore.New(db)

	// Control schema migrations with env DB_AUTO_MIGRATE (default true).
	shouldMigrate := true
	if v := strings.ToLower(os.Getenv("DB_AUTO_MIGRATE")); v == "false" || v == "0" || v == "no" {
		shouldMigrate = false
	}
	if shouldMigrate {
		if err := store.AutoMigrate(); err != nil {
			log.Printf("migration warning: %v", err)
		}
	}
	return store, nil
}

// seedAdmin ensures the protected admin account exists. Credentials come from
// env with the development defaults logged, same as always.
func seedAdmin(ctx context.Context, engine *ledger.Engine) error {
	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
		log.Println("ADMIN_PASSWORD not set, using development default")
	}
	return engine.SeedAdmin(ctx, username, password)
}
