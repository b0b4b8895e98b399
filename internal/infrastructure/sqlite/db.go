// Package sqlite implementa los puertos del libro sobre SQLite (modernc.org/sqlite, sin cgo).
// Pensado para una sola instancia: farmacia o bodega de un centro sin servidor PostgreSQL.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite"
)

// Open abre la base y configura los pragmas. Una sola conexión: SQLite admite un escritor a la
// vez y así las transacciones del libro quedan serializadas dentro del proceso.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	// _pragma se aplica a cada conexión nueva que abra database/sql
	params := url.Values{
		"_txlock": {"immediate"},
		"_pragma": {"busy_timeout(5000)", "foreign_keys(1)"},
	}
	db, err := sql.Open("sqlite", "file:"+path+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}
	return db, nil
}
