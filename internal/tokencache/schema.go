package tokencache

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// schemaStatements are executed in order to create the database schema.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS token_counts (
		namespace TEXT    NOT NULL,
		digest    BLOB    NOT NULL,
		tokens    INTEGER NOT NULL,
		last_used INTEGER NOT NULL,
		PRIMARY KEY (namespace, digest)
	) WITHOUT ROWID`,

	`CREATE INDEX IF NOT EXISTS idx_token_counts_last_used ON token_counts(last_used)`,
}

// migrate creates or updates the database schema to the latest version.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("tokencache: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("tokencache: read schema version: %w", err)
	}
	if current >= schemaVersion {
		return nil
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("tokencache: migrate: %w\nstatement: %s", err, stmt)
		}
	}

	if _, err := db.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("tokencache: record schema version: %w", err)
	}
	return nil
}
