// internal/platform/database/postgres.go
package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

// Config holds the postgres connection parameters for one service.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// Connect opens a postgres connection and waits for the database to become
// reachable. Services start alongside the database in compose environments,
// so the first attempts are expected to fail.
func Connect(cfg Config) (*sql.DB, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	var db *sql.DB
	var err error
	maxRetries := 10

	for i := 1; i <= maxRetries; i++ {
		log.Printf("Connecting to database (attempt %d/%d)...", i, maxRetries)
		db, err = sql.Open("postgres", connStr)
		if err == nil {
			err = db.Ping()
		}

		if err == nil {
			db.SetMaxOpenConns(25)
			db.SetMaxIdleConns(25)
			db.SetConnMaxLifetime(5 * time.Minute)
			return db, nil
		}

		time.Sleep(2 * time.Second)
	}

	return nil, fmt.Errorf("database not reachable after %d attempts: %w", maxRetries, err)
}
