// Package store keeps the stats table in Postgres or SQLite: schema migrations,
// connection setup and bulk import from a raw table.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/dataset"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Table is the table created by the migrations.
const Table = "player_stats"

// ColumnsTable records the imported header in CSV order.
const ColumnsTable = "player_stats_columns"

// RowNumberColumn preserves source row order.
const RowNumberColumn = "row_num"

// Dialect is the SQL flavour behind a database URL.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ErrUnsupportedURL is returned for database URLs with an unknown scheme.
var ErrUnsupportedURL = errors.New("unsupported database url")

// ParseURL splits a database URL into its dialect and the DSN for database/sql.
// postgres:// and postgresql:// URLs are passed through; sqlite://path yields path.
func ParseURL(databaseURL string) (Dialect, string, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return Postgres, databaseURL, nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("%w: empty sqlite path", ErrUnsupportedURL)
		}
		return SQLite, path, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedURL, Redact(databaseURL))
	}
}

// IsDatabaseURL reports whether s names a database this package can open.
func IsDatabaseURL(s string) bool {
	_, _, err := ParseURL(s)
	return err == nil
}

// Open opens and pings the database behind databaseURL.
func Open(ctx context.Context, databaseURL string) (*sql.DB, Dialect, error) {
	dialect, dsn, err := ParseURL(databaseURL)
	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if dialect == SQLite {
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to ping database: %w", err)
	}
	return db, dialect, nil
}

// Migrate applies all pending migrations to databaseURL.
func Migrate(databaseURL string) error {
	if _, _, err := ParseURL(databaseURL); err != nil {
		return err
	}

	migrationsDir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to access migrations directory: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsDir, ".")
	if err != nil {
		return fmt.Errorf("failed to create source driver: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Source returns a dataset source reading the migrated table in import order.
func Source(db *sql.DB, label string) *dataset.SQLSource {
	return &dataset.SQLSource{DB: db, Table: Table, ColumnsTable: ColumnsTable, OrderBy: RowNumberColumn, Label: label}
}

// ColumnName maps a CSV header to the table's column name.
func ColumnName(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}

// ErrDuplicateColumn is returned when two header names map to the same column.
var ErrDuplicateColumn = errors.New("duplicate column")

// Import replaces the table contents with raw in a single transaction. Header
// columns the table lacks are added as TEXT, and the header is recorded in
// ColumnsTable so Source returns it in CSV order. Row numbers follow raw's row
// order. It returns the number of rows written.
func Import(ctx context.Context, db *sql.DB, dialect Dialect, raw *dataset.RawTable) (int, error) {
	if len(raw.Header) == 0 {
		return 0, errors.New("import: empty header")
	}

	columns := make([]string, len(raw.Header))
	seen := make(map[string]string, len(raw.Header))
	for i, h := range raw.Header {
		name := ColumnName(h)
		if name == "" || name == RowNumberColumn {
			return 0, fmt.Errorf("import: invalid column name %q", h)
		}
		if prev, ok := seen[name]; ok {
			return 0, fmt.Errorf("import: %w: %q and %q", ErrDuplicateColumn, prev, h)
		}
		seen[name] = h
		columns[i] = name
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning import: %w", err)
	}
	defer tx.Rollback()

	if err := addMissingColumns(ctx, tx, columns); err != nil {
		return 0, err
	}
	if err := writeHeader(ctx, tx, dialect, raw.Header, columns); err != nil {
		return 0, err
	}

	quoted := make([]string, 0, len(columns)+1)
	quoted = append(quoted, pq.QuoteIdentifier(RowNumberColumn))
	for _, c := range columns {
		quoted = append(quoted, pq.QuoteIdentifier(c))
	}
	placeholders := make([]string, len(quoted))
	for i := range placeholders {
		placeholders[i] = placeholder(dialect, i+1)
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pq.QuoteIdentifier(Table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+pq.QuoteIdentifier(Table)); err != nil {
		return 0, fmt.Errorf("clearing %s: %w", Table, err)
	}

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(quoted))
	for i, row := range raw.Rows {
		if len(row) != len(raw.Header) {
			return 0, fmt.Errorf("row %d: expected %d fields, got %d", i+1, len(raw.Header), len(row))
		}
		args[0] = i + 1
		for j, v := range row {
			args[j+1] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("inserting row %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return len(raw.Rows), nil
}

// addMissingColumns adds a TEXT column for every name the table does not have yet.
func addMissingColumns(ctx context.Context, tx *sql.Tx, columns []string) error {
	rows, err := tx.QueryContext(ctx, "SELECT * FROM "+pq.QuoteIdentifier(Table)+" WHERE 1 = 0")
	if err != nil {
		return fmt.Errorf("reading %s columns: %w", Table, err)
	}
	existing, err := rows.Columns()
	rows.Close()
	if err != nil {
		return fmt.Errorf("reading %s columns: %w", Table, err)
	}

	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[strings.ToLower(c)] = true
	}
	for _, c := range columns {
		if have[c] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT", pq.QuoteIdentifier(Table), pq.QuoteIdentifier(c))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("adding column %s: %w", c, err)
		}
	}
	return nil
}

// writeHeader replaces the recorded header with this import's.
func writeHeader(ctx context.Context, tx *sql.Tx, dialect Dialect, header, columns []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+pq.QuoteIdentifier(ColumnsTable)); err != nil {
		return fmt.Errorf("clearing %s: %w", ColumnsTable, err)
	}

	insert := fmt.Sprintf("INSERT INTO %s (position, name, column_name) VALUES (%s, %s, %s)",
		pq.QuoteIdentifier(ColumnsTable), placeholder(dialect, 1), placeholder(dialect, 2), placeholder(dialect, 3))
	for i, h := range header {
		if _, err := tx.ExecContext(ctx, insert, i+1, strings.TrimSpace(h), columns[i]); err != nil {
			return fmt.Errorf("recording column %s: %w", h, err)
		}
	}
	return nil
}

func placeholder(d Dialect, n int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Redact drops userinfo from a database URL so it can be logged.
func Redact(s string) string {
	scheme, rest, ok := strings.Cut(s, "://")
	if !ok {
		return s
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = rest[at+1:]
	}
	return scheme + "://" + rest
}
