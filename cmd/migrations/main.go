package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/vncsmyrnk/keyvote/internal/adapters/repository/sqldb"
	"github.com/vncsmyrnk/keyvote/internal/config"
)

// Runs a single named migration, e.g. `migrations init.up` or
// `migrations 0001_init.down`.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("a migration name is required.")
	}
	migrationName := os.Args[1]

	cfg, err := config.LoadDatabase()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.DatabaseDriver() == config.DriverFile {
		log.Fatal("migrations only apply to the postgres and sqlite drivers")
	}

	ctx := context.Background()
	db, err := sqldb.Open(ctx, cfg.DatabaseDriver(), cfg.DatabaseDSN())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	fileName, content, err := sqldb.MigrationFile(migrationName)
	if err != nil {
		log.Fatal(err)
	}

	if _, err := db.ExecContext(ctx, string(content)); err != nil {
		log.Fatalf("Failed to execute SQL file: %v", err)
	}

	fmt.Printf("Migration file %s executed successfully.\n", fileName)
}
