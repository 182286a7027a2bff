package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// ErrNoDSN is returned when neither the configured DSN nor DATABASE_URL is set.
var ErrNoDSN = errors.New("database: no DSN configured (set storage.dsn or DATABASE_URL)")

// ResolveDSN returns dsn, or DATABASE_URL from the environment when dsn is empty.
func ResolveDSN(dsn string) (string, error) {
	if dsn = strings.TrimSpace(dsn); dsn != "" {
		return dsn, nil
	}
	if direct := strings.TrimSpace(os.Getenv("DATABASE_URL")); direct != "" {
		return direct, nil
	}
	return "", ErrNoDSN
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	dsn, err := ResolveDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return db, nil
}
