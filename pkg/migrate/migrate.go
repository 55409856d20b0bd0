// Package migrate applies the goose SQL migrations that back the sql queue
// store.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
)

const DefaultDir = "pkg/migrate/migrations"

// Migrator runs migrations from one directory against one database. It does
// not own the connection.
type Migrator struct {
	provider *goose.Provider
}

// Step is one migration applied or rolled back.
type Step struct {
	Version  int64
	Path     string
	Duration time.Duration
}

// Status is the applied state of a migration file.
type Status struct {
	Version   int64
	Path      string
	Applied   bool
	AppliedAt time.Time
}

// gooseDialect maps a GORM dialector name onto the goose dialect.
func gooseDialect(dialect string) (goose.Dialect, error) {
	switch dialect {
	case "postgres":
		return goose.DialectPostgres, nil
	case "sqlite", "sqlite3":
		return goose.DialectSQLite3, nil
	}
	return "", fmt.Errorf("unsupported migration dialect %q", dialect)
}

func NewMigrator(db *sql.DB, dialect, dir string) (*Migrator, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("dir is required")
	}
	gd, err := gooseDialect(dialect)
	if err != nil {
		return nil, err
	}
	provider, err := goose.NewProvider(gd, db, os.DirFS(dir))
	if err != nil {
		return nil, fmt.Errorf("load migrations from %s: %w", dir, err)
	}
	return &Migrator{provider: provider}, nil
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) ([]Step, error) {
	results, err := m.provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose up: %w", err)
	}
	return steps(results...), nil
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) ([]Step, error) {
	result, err := m.provider.Down(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose down: %w", err)
	}
	return steps(result), nil
}

func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose status: %w", err)
	}
	out := make([]Status, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, Status{
			Version:   st.Source.Version,
			Path:      st.Source.Path,
			Applied:   st.State == goose.StateApplied,
			AppliedAt: st.AppliedAt,
		})
	}
	return out, nil
}

func (m *Migrator) Version(ctx context.Context) (int64, error) {
	return m.provider.GetDBVersion(ctx)
}

// To migrates up or down until the database sits at target.
func (m *Migrator) To(ctx context.Context, target int64) ([]Step, error) {
	current, err := m.Version(ctx)
	if err != nil {
		return nil, fmt.Errorf("get db version: %w", err)
	}
	var results []*goose.MigrationResult
	switch {
	case current == target:
		return nil, nil
	case current < target:
		results, err = m.provider.UpTo(ctx, target)
	default:
		results, err = m.provider.DownTo(ctx, target)
	}
	if err != nil {
		return nil, fmt.Errorf("goose migrate %d -> %d: %w", current, target, err)
	}
	return steps(results...), nil
}

func steps(results ...*goose.MigrationResult) []Step {
	out := make([]Step, 0, len(results))
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		out = append(out, Step{Version: r.Source.Version, Path: r.Source.Path, Duration: r.Duration})
	}
	return out
}

// Run applies "up" or "down" without reporting the individual steps.
func Run(ctx context.Context, db *sql.DB, dialect, dir, command string) error {
	m, err := NewMigrator(db, dialect, dir)
	if err != nil {
		return err
	}
	switch command {
	case "up":
		_, err = m.Up(ctx)
	case "down":
		_, err = m.Down(ctx)
	default:
		err = fmt.Errorf("unsupported migration command %q", command)
	}
	return err
}

// ParseVersion accepts the YYYYMMDDHHMMSS prefix used by migration files,
// or "0" to roll back everything.
func ParseVersion(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "0" {
		return 0, nil
	}
	if _, err := time.Parse(versionLayout, raw); err != nil {
		return 0, fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS)", raw)
	}
	return strconv.ParseInt(raw, 10, 64)
}
