package db

import (
	"context"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Migrator applies SQL files from an fs.FS in lexical order and records each
// applied file in schema_migrations. Every file runs in its own transaction.
type Migrator struct {
	pool   *pgxpool.Pool
	fsys   fs.FS
	logger *zap.Logger
}

func NewMigrator(pool *pgxpool.Pool, fsys fs.FS, logger *zap.Logger) *Migrator {
	return &Migrator{
		pool:   pool,
		fsys:   fsys,
		logger: logger,
	}
}

func (m *Migrator) Run(ctx context.Context) error {
	if _, err := m.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename   TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return errors.Wrap(err, "create schema_migrations")
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return errors.Wrap(err, "read applied migrations")
	}

	files, err := MigrationFiles(m.fsys)
	if err != nil {
		return err
	}

	count := 0
	for _, name := range files {
		if applied[name] {
			m.logger.Debug("migration already applied", zap.String("file", name))
			continue
		}

		content, err := fs.ReadFile(m.fsys, name)
		if err != nil {
			return errors.Wrapf(err, "read migration %s", name)
		}

		err = pgx.BeginFunc(ctx, m.pool, func(tx pgx.Tx) error {
			for i, stmt := range SplitStatements(string(content)) {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return errors.Wrapf(err, "statement %d", i+1)
				}
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1)`, name)
			return err
		})
		if err != nil {
			return errors.Wrapf(err, "apply migration %s", name)
		}

		m.logger.Info("migration applied", zap.String("file", name))
		count++
	}

	m.logger.Info("database schema up to date", zap.Int("applied", count))
	return nil
}

func (m *Migrator) applied(ctx context.Context) (map[string]bool, error) {
	rows, err := m.pool.Query(ctx, `SELECT filename FROM schema_migrations`)
	if err != nil {
		return nil, err
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}

	applied := make(map[string]bool, len(names))
	for _, n := range names {
		applied[n] = true
	}
	return applied, nil
}

// MigrationFiles lists the .sql files at the root of fsys in lexical order.
func MigrationFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, errors.Wrap(err, "read migrations")
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// SplitStatements splits a migration into statements at line-final
// semicolons, keeping $$-quoted bodies intact. Comment-only chunks are dropped.
func SplitStatements(content string) []string {
	var (
		statements []string
		current    strings.Builder
		dollars    int
	)

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		current.Reset()
		if stmt == "" || isComment(stmt) {
			return
		}
		statements = append(statements, strings.TrimSuffix(stmt, ";"))
	}

	for _, line := range strings.Split(content, "\n") {
		dollars += strings.Count(line, "$$")
		current.WriteString(line)
		current.WriteString("\n")

		trimmed := strings.TrimSpace(line)
		if dollars%2 == 0 && strings.HasSuffix(trimmed, ";") && !strings.HasPrefix(trimmed, "--") {
			flush()
		}
	}
	flush()

	return statements
}

func isComment(stmt string) bool {
	for _, line := range strings.Split(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return false
		}
	}
	return true
}
