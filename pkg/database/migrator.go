package database

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const migrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    VARCHAR(255) PRIMARY KEY,
	applied_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
)`

// Migrator applies ordered *.sql files, recording each applied version.
type Migrator struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewMigrator builds a Migrator.
func NewMigrator(db *sqlx.DB, logger *zap.Logger) *Migrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{db: db, logger: logger}
}

// Up applies every pending migration found at the root of files.
func (m *Migrator) Up(ctx context.Context, files fs.FS) error {
	if _, err := m.db.ExecContext(ctx, migrationsTable); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := m.apply(ctx, files, name); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) apply(ctx context.Context, files fs.FS, name string) error {
	version := migrationVersion(name)

	var applied bool
	if err := m.db.GetContext(ctx, &applied, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version); err != nil {
		return fmt.Errorf("check migration %s: %w", version, err)
	}
	if applied {
		m.logger.Debug("migration already applied", zap.String("version", version))
		return nil
	}

	body, err := fs.ReadFile(files, name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}

	err = WithTx(ctx, m.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("execute migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", version, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.logger.Info("migration applied", zap.String("version", version), zap.String("file", name))
	return nil
}

// migrationVersion extracts "001" from "001_init.sql".
func migrationVersion(name string) string {
	base := path.Base(name)
	if idx := strings.Index(base, "_"); idx > 0 {
		return base[:idx]
	}
	return strings.TrimSuffix(base, ".sql")
}
