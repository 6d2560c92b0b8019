// Package migrations embeds the SQL schema and applies it in order
package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"sort"

	_ "github.com/lib/pq" // PostgreSQL driver for database/sql
)

//go:embed *.sql
var files embed.FS

// Files returns the migration file names in the order they are applied.
func Files() ([]string, error) {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Apply executes every migration against db. Each file is idempotent.
func Apply(db *sql.DB) error {
	names, err := Files()
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}

	for _, name := range names {
		content, err := files.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", name, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
		log.Printf("Applied migration: %s", name)
	}
	return nil
}

// ApplyURL opens a database/sql connection to databaseURL and applies all migrations.
func ApplyURL(databaseURL string) error {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return Apply(db)
}
