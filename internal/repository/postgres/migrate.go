package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migration is one numbered schema file.
type Migration struct {
	Version   int        `db:"version"`
	Name      string     `db:"name"`
	AppliedAt *time.Time `db:"applied_at"`
	sql       string
}

// Migrator applies embedded migrations exactly once each.
type Migrator struct {
	BaseRepository
	files  fs.FS
	logger *zap.Logger
}

func NewMigrator(db *sqlx.DB, logger *zap.Logger) *Migrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{BaseRepository: NewBaseRepository(db), files: migrationFiles, logger: logger}
}

const migrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INT PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// load returns the embedded migrations ordered by version.
func (m *Migrator) load() ([]*Migration, error) {
	entries, err := fs.Glob(m.files, "migrations/*.sql")
	if err != nil {
		return nil, err
	}

	var migrations []*Migration
	for _, file := range entries {
		base := path.Base(file)
		prefix, _, ok := strings.Cut(base, "_")
		if !ok {
			return nil, fmt.Errorf("migration %s: name must be <version>_<name>.sql", base)
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migration %s: bad version: %w", base, err)
		}
		body, err := fs.ReadFile(m.files, file)
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, &Migration{
			Version: version,
			Name:    strings.TrimSuffix(base, ".sql"),
			sql:     string(body),
		})
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

func (m *Migrator) applied(ctx context.Context) (map[int]time.Time, error) {
	if _, err := m.db.ExecContext(ctx, migrationsTable); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var rows []Migration
	if err := m.db.SelectContext(ctx, &rows, `SELECT version, name, applied_at FROM schema_migrations`); err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}

	done := make(map[int]time.Time, len(rows))
	for _, row := range rows {
		if row.AppliedAt != nil {
			done[row.Version] = *row.AppliedAt
		}
	}
	return done, nil
}

// Up applies every pending migration, each in its own transaction.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	migrations, err := m.load()
	if err != nil {
		return 0, err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, mig := range migrations {
		if _, ok := done[mig.Version]; ok {
			continue
		}

		start := time.Now()
		err := m.WithTx(ctx, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, mig.sql); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return count, fmt.Errorf("migration %s failed: %w", mig.Name, err)
		}

		count++
		m.logger.Info("applied migration",
			zap.Int("version", mig.Version),
			zap.String("name", mig.Name),
			zap.Duration("took", time.Since(start)))
	}
	return count, nil
}

// Status lists every known migration with its applied time, if any.
func (m *Migrator) Status(ctx context.Context) ([]*Migration, error) {
	migrations, err := m.load()
	if err != nil {
		return nil, err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	for _, mig := range migrations {
		if at, ok := done[mig.Version]; ok {
			at := at
			mig.AppliedAt = &at
		}
	}
	return migrations, nil
}
