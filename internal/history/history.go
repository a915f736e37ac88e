// Package history records metrics runs in a SQL database.
package history

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/bitergia/grimoirelab-metrics/internal/contract"
	"github.com/bitergia/grimoirelab-metrics/schema"
)

// OpenHistory opens the run store of backend. An empty backend means history
// is disabled and returns a nil store.
func OpenHistory(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	if backend == "" {
		return nil, nil
	}
	store, err := NewRunStore(backend, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize run history: %w", err)
	}
	return store, nil
}

// CloseHistory closes a store returned by OpenHistory. A nil store is ignored.
func CloseHistory(store contract.RunStore) {
	if store != nil {
		_ = store.Close()
	}
}

// ClearHistory removes every recorded run for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the history tables.
// For NoneBackend, it does nothing.
func ClearHistory(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		db, _, err := openDatabase(backend, connStr)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		return dropTables(db, backend, packageMetricsTable, metricsRunsTable)

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported history backend for clearing: %s", backend)
	}
}

// dropTables drops the given tables if they exist.
func dropTables(db *sql.DB, backend schema.DatabaseBackend, tables ...string) error {
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", backend, err)
	}

	for _, table := range tables {
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(table, backend))
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	return nil
}
