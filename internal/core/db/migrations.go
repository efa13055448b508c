package db

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	embeddedmigrations "github.com/solatis/rulesynth/migrations"
)

/*
 * Schema migrations.
 *
 * Migration files are embedded per driver (migrations/sqlite,
 * migrations/postgres) and applied in file name order. Each applied file is
 * recorded in the migrations table with its SHA-256 checksum; editing an
 * applied file afterwards makes every later run fail until the database is
 * rebuilt.
 *
 * Each migration runs in its own transaction together with its bookkeeping
 * row, so a failed migration leaves no trace.
 */

// MigrationStatus represents the state of a single migration.
type MigrationStatus struct {
	ID          string
	Checksum    string
	Applied     bool
	AppliedAt   *time.Time
	ExecutionMs int64
}

type migration struct {
	id       string
	checksum string
	sql      string
}

const migrationsTableSqlite = `
CREATE TABLE IF NOT EXISTS migrations (
	migration_id TEXT PRIMARY KEY,
	checksum TEXT NOT NULL,
	applied_at TEXT NOT NULL,
	execution_ms INTEGER NOT NULL,
	CHECK (applied_at LIKE '____-__-__T__:__:__Z')
)`

const migrationsTablePostgres = `
CREATE TABLE IF NOT EXISTS migrations (
	migration_id TEXT PRIMARY KEY,
	checksum TEXT NOT NULL,
	applied_at TIMESTAMP WITHOUT TIME ZONE NOT NULL,
	execution_ms INTEGER NOT NULL
)`

// MigrateUp applies every pending migration for the driver of db. It fails
// before applying anything when an applied migration's checksum changed or
// its file disappeared.
func MigrateUp(ctx context.Context, db *sqlx.DB) error {
	migrations, applied, err := prepare(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if _, ok := applied[m.id]; ok {
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return err
		}
	}
	return nil
}

// MigrateStatus lists every embedded migration in order with its applied
// state.
func MigrateStatus(ctx context.Context, db *sqlx.DB) ([]MigrationStatus, error) {
	migrations, applied, err := prepare(ctx, db)
	if err != nil {
		return nil, err
	}

	statuses := make([]MigrationStatus, 0, len(migrations))
	for _, m := range migrations {
		if st, ok := applied[m.id]; ok {
			statuses = append(statuses, st)
			continue
		}
		statuses = append(statuses, MigrationStatus{ID: m.id, Checksum: m.checksum})
	}
	return statuses, nil
}

// prepare loads the embedded migrations and the applied set, validating
// checksums of everything already applied.
func prepare(ctx context.Context, db *sqlx.DB) ([]migration, map[string]MigrationStatus, error) {
	fsys, dir, table, err := migrationSource(db.DriverName())
	if err != nil {
		return nil, nil, err
	}
	if _, err := db.ExecContext(ctx, table); err != nil {
		return nil, nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations, err := parseMigrationFiles(fsys, dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse migrations: %w", err)
	}
	applied, err := loadApplied(ctx, db)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}

	embedded := make(map[string]string, len(migrations))
	for _, m := range migrations {
		embedded[m.id] = m.checksum
	}
	for id, st := range applied {
		want, ok := embedded[id]
		if !ok {
			return nil, nil, fmt.Errorf("migration %s exists in database but not in embedded files", id)
		}
		if st.Checksum != want {
			return nil, nil, fmt.Errorf("checksum mismatch for migration %s: expected %s, got %s", id, want, st.Checksum)
		}
	}
	return migrations, applied, nil
}

func migrationSource(driver string) (embed.FS, string, string, error) {
	switch driver {
	case "sqlite3":
		return embeddedmigrations.SqliteMigrations, "sqlite", migrationsTableSqlite, nil
	case "postgres":
		return embeddedmigrations.PostgresMigrations, "postgres", migrationsTablePostgres, nil
	default:
		return embed.FS{}, "", "", fmt.Errorf("unsupported database driver: %s", driver)
	}
}

func parseMigrationFiles(fsys embed.FS, dir string) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var migrations []migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		content, err := fsys.ReadFile(path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", e.Name(), err)
		}
		sum := sha256.Sum256(content)
		migrations = append(migrations, migration{
			id:       e.Name(),
			checksum: hex.EncodeToString(sum[:]),
			sql:      string(content),
		})
	}

	slices.SortFunc(migrations, func(a, b migration) int {
		return strings.Compare(a.id, b.id)
	})
	return migrations, nil
}

func loadApplied(ctx context.Context, db *sqlx.DB) (map[string]MigrationStatus, error) {
	rows, err := db.QueryxContext(ctx, "SELECT migration_id, checksum, applied_at, execution_ms FROM migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]MigrationStatus)
	for rows.Next() {
		st := MigrationStatus{Applied: true}
		var appliedAt string
		if err := rows.Scan(&st.ID, &st.Checksum, &appliedAt, &st.ExecutionMs); err != nil {
			return nil, err
		}
		// sqlite stores RFC3339 text; postgres timestamps scan as RFC3339Nano.
		if ts, err := time.Parse(time.RFC3339Nano, appliedAt); err == nil {
			st.AppliedAt = &ts
		}
		applied[st.ID] = st
	}
	return applied, rows.Err()
}

func apply(ctx context.Context, db *sqlx.DB, m migration) error {
	start := time.Now()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for migration %s: %w", m.id, err)
	}
	defer tx.Rollback()

	// lib/pq rejects multiple statements in one Exec.
	for _, stmt := range strings.Split(stripComments(m.sql), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.id, err)
		}
	}

	var appliedAt any = time.Now().UTC()
	if tx.DriverName() == "sqlite3" {
		appliedAt = start.UTC().Format(time.RFC3339)
	}
	record := tx.Rebind("INSERT INTO migrations (migration_id, checksum, applied_at, execution_ms) VALUES (?, ?, ?, ?)")
	if _, err := tx.ExecContext(ctx, record, m.id, m.checksum, appliedAt, time.Since(start).Milliseconds()); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", m.id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", m.id, err)
	}
	return nil
}

// stripComments drops full-line "--" comments so a leading header comment
// does not swallow the statement that follows it.
func stripComments(sqlText string) string {
	lines := strings.Split(sqlText, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
