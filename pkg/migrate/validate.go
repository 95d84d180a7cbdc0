package migrate

import (
	"fmt"
	"io/fs"
	"regexp"
	"strings"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks migration filenames, version uniqueness and goose annotations.
// An empty dir validates the embedded migrations. A directory without any .sql file is rejected.
func ValidateDir(dir string) error {
	fsys, err := Source(dir)
	if err != nil {
		return err
	}
	if dir == "" {
		dir = "embedded"
	}
	return validateFS(fsys, dir)
}

func validateFS(fsys fs.FS, label string) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read dir %q: %w", label, err)
	}

	seen := map[string]string{} // version -> filename
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		name := e.Name()

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		version := m[1]
		if prev, ok := seen[version]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", version, prev, name)
		}
		seen[version] = name

		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read file %q: %w", name, err)
		}
		if err := validateAnnotations(name, string(b)); err != nil {
			return err
		}
	}

	if len(seen) == 0 {
		return fmt.Errorf("no migrations found in %q", label)
	}
	return nil
}

func validateAnnotations(name, txt string) error {
	up := strings.Index(txt, "-- +goose Up")
	if up < 0 {
		return fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
	}
	down := strings.Index(txt, "-- +goose Down")
	if down < 0 {
		return fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
	}
	if down < up {
		return fmt.Errorf("migration %q declares Down before Up", name)
	}
	begins := strings.Count(txt, "-- +goose StatementBegin")
	ends := strings.Count(txt, "-- +goose StatementEnd")
	if begins != ends {
		return fmt.Errorf("migration %q has %d StatementBegin and %d StatementEnd", name, begins, ends)
	}
	return nil
}
