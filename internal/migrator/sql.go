package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"deploykit/pkg/playbook"
)

const pingTimeout = 5 * time.Second

// SQLMigrator applies plain *.sql migration files against a Postgres
// database, tracking applied versions in a schema_migrations table.
type SQLMigrator struct{}

// NewSQLMigrator creates a new SQLMigrator.
func NewSQLMigrator() *SQLMigrator {
	return &SQLMigrator{}
}

// migration is one on-disk migration file. Version is the file name, which
// also defines the application order.
type migration struct {
	Version string
	Path    string
}

// Migrate applies all pending migrations in lexical order, each inside its
// own transaction together with the version bookkeeping row.
func (m *SQLMigrator) Migrate(ctx context.Context, spec *playbook.Spec) error {
	url := os.Getenv(spec.Database.URLEnv)
	if url == "" {
		return fmt.Errorf("database connection string not set: environment variable %s is empty", spec.Database.URLEnv)
	}

	migrationsDir := spec.Database.Migrations
	if !filepath.IsAbs(migrationsDir) {
		migrationsDir = filepath.Join(spec.WorkDir, migrationsDir)
	}

	all, err := listMigrations(migrationsDir)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		slog.Info("No migration files found", "dir", migrationsDir)
		return nil
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := ensureVersionTable(ctx, db); err != nil {
		return err
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return err
	}

	todo := pending(all, applied)
	if len(todo) == 0 {
		slog.Info("Schema is up to date", "applied", len(applied))
		return nil
	}

	slog.Info("Applying schema migrations", "pending", len(todo), "applied", len(applied))

	for _, mig := range todo {
		if err := applyMigration(ctx, db, mig); err != nil {
			return fmt.Errorf("migration %s failed: %w", mig.Version, err)
		}
		slog.Info("Applied migration", "version", mig.Version)
	}

	slog.Info("Schema migrations applied successfully", "count", len(todo))
	return nil
}

// listMigrations returns the *.sql files in dir, sorted by file name.
func listMigrations(dir string) ([]migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("migrations directory not found: %s", dir)
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var migrations []migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		migrations = append(migrations, migration{
			Version: entry.Name(),
			Path:    filepath.Join(dir, entry.Name()),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// pending filters out migrations whose version is already recorded.
func pending(all []migration, applied map[string]bool) []migration {
	var todo []migration
	for _, m := range all {
		if !applied[m.Version] {
			todo = append(todo, m)
		}
	}
	return todo
}

func ensureVersionTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}
	return nil
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate applied migrations: %w", err)
	}

	return applied, nil
}

// applyMigration executes one migration file and records its version in the
// same transaction, so a partial apply never marks the version done.
func applyMigration(ctx context.Context, db *sql.DB, mig migration) error {
	contents, err := os.ReadFile(mig.Path)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, string(contents)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Error("Failed to roll back migration transaction", "version", mig.Version, "error", rbErr)
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, mig.Version); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Error("Failed to roll back migration transaction", "version", mig.Version, "error", rbErr)
		}
		return fmt.Errorf("failed to record migration version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	return nil
}
