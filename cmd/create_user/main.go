package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"marate/pkg/gormstore"
	"marate/pkg/ledger"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("usage: go run ./cmd/create_user <username> <password>")
		os.Exit(2)
	}
	username := os.Args[1]
	password := os.Args[2]

	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	store := gormstore.New(db)
	if err := store.AutoMigrate(); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	engine := ledger.New(store, nil, nil)
	user, err := engine.Register(context.Background(), username, password)
	if err != nil {
		var conflict *ledger.ConflictError
		if errors.As(err, &conflict) {
			fmt.Printf("user %s already exists\n", username)
			os.Exit(0)
		}
		log.Fatalf("failed to create user: %v", err)
	}
	fmt.Printf("created user %s id=%d\n", user.Username, user.ID)
}
