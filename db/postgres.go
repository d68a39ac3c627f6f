package db

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/NataTusia/Haah-and-Cash/logger"
)

// OpenPostgres opens the catalogue pool. An unreachable server is logged, not
// fatal: lookups acquire and verify their own connection.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	d, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	d.SetMaxOpenConns(4)
	d.SetMaxIdleConns(2)
	d.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := d.PingContext(pingCtx); err != nil {
		logger.WarnWithFields("catalogue database unreachable at startup", logger.Fields{"error": err.Error()})
	}
	return d, nil
}
