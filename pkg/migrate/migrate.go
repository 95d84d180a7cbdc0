package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/pressly/goose/v3"
)

// DefaultDir is where new migrations are written during development.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Result describes one migration touched or inspected by a command.
type Result struct {
	Version   int64
	Path      string
	Direction string
	State     string
	Duration  time.Duration
	AppliedAt time.Time
}

// Source resolves the migration filesystem. An empty dir selects the copy compiled into the binary.
func Source(dir string) (fs.FS, error) {
	if dir == "" {
		sub, err := fs.Sub(embedded, "migrations")
		if err != nil {
			return nil, fmt.Errorf("embedded migrations: %w", err)
		}
		return sub, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

// The provider is never closed here: Close would close the shared pool.
func newProvider(db *sql.DB, dir string) (*goose.Provider, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	fsys, err := Source(dir)
	if err != nil {
		return nil, err
	}
	// the schema uses postgres enum types and partial indexes
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return provider, nil
}

// Run executes up, down or status against db.
func Run(ctx context.Context, db *sql.DB, dir string, command string) ([]Result, error) {
	provider, err := newProvider(db, dir)
	if err != nil {
		return nil, err
	}

	switch command {
	case "up":
		results, err := provider.Up(ctx)
		if err != nil {
			return nil, fmt.Errorf("goose up: %w", err)
		}
		return fromMigrationResults(results), nil
	case "down":
		result, err := provider.Down(ctx)
		if err != nil {
			return nil, fmt.Errorf("goose down: %w", err)
		}
		return fromMigrationResults([]*goose.MigrationResult{result}), nil
	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			return nil, fmt.Errorf("goose status: %w", err)
		}
		out := make([]Result, 0, len(statuses))
		for _, st := range statuses {
			if st == nil || st.Source == nil {
				continue
			}
			out = append(out, Result{
				Version:   st.Source.Version,
				Path:      st.Source.Path,
				State:     string(st.State),
				AppliedAt: st.AppliedAt,
			})
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported migrate command %q", command)
}

// MigrateToVersion migrates up or down until the database sits at targetVersion.
func MigrateToVersion(ctx context.Context, db *sql.DB, dir string, targetVersion string) ([]Result, error) {
	target, err := ParseVersion(targetVersion)
	if err != nil {
		return nil, err
	}
	provider, err := newProvider(db, dir)
	if err != nil {
		return nil, err
	}

	current, err := provider.GetDBVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("get db version: %w", err)
	}

	var results []*goose.MigrationResult
	switch {
	case current == target:
		return nil, nil
	case current < target:
		results, err = provider.UpTo(ctx, target)
	default:
		results, err = provider.DownTo(ctx, target)
	}
	if err != nil {
		return nil, fmt.Errorf("goose migrate %d -> %d: %w", current, target, err)
	}
	return fromMigrationResults(results), nil
}

// ParseVersion accepts the YYYYMMDDHHMMSS prefix used in migration filenames.
func ParseVersion(raw string) (int64, error) {
	if len(raw) != 14 {
		return 0, fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS)", raw)
	}
	if _, err := time.Parse(versionLayout, raw); err != nil {
		return 0, fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", raw, err)
	}
	return strconv.ParseInt(raw, 10, 64)
}

func fromMigrationResults(results []*goose.MigrationResult) []Result {
	out := make([]Result, 0, len(results))
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		out = append(out, Result{
			Version:   res.Source.Version,
			Path:      res.Source.Path,
			Direction: res.Direction,
			Duration:  res.Duration,
		})
	}
	return out
}
