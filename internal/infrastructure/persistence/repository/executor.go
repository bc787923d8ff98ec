// Package repository holds the SQLite implementations of the persistence
// ports. Structured fields (expense lines, approval slots, policy limits)
// are stored as JSON columns; everything queried on is a plain column.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/clearhr/claimflow/internal/infrastructure/persistence/sqlite"
)

// executor interface covers both *sql.DB and *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// getExecutor returns the context's transaction when one is active,
// otherwise the bare connection
func getExecutor(ctx context.Context, db *sql.DB) executor {
	if tx := sqlite.ExtractTx(ctx); tx != nil {
		return tx
	}
	return db
}

// marshalJSON serializes a structured field for storage; nil maps and empty
// slices store as an empty string
func marshalJSON(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal field: %w", err)
	}
	return string(data), nil
}

// unmarshalJSON deserializes a structured field; empty input leaves the
// target untouched
func unmarshalJSON(data string, v interface{}) error {
	if data == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("failed to unmarshal field: %w", err)
	}
	return nil
}
