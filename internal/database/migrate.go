package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
)

//go:embed migrations/*.surql
var migrationFiles embed.FS

// Migration is a named SurrealQL script
type Migration struct {
	Name   string
	Script string
}

// Migrations returns the embedded schema scripts in apply order
func Migrations() ([]Migration, error) {
	return loadMigrations(migrationFiles, "migrations")
}

func loadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".surql") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", entry.Name(), err)
		}
		migrations = append(migrations, Migration{
			Name:   strings.TrimSuffix(entry.Name(), ".surql"),
			Script: string(data),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Name < migrations[j].Name
	})
	return migrations, nil
}

// Migrate applies every embedded migration that has not been recorded in
// schema_migration yet and returns how many were applied.
func Migrate(ctx context.Context, db Database) (int, error) {
	migrations, err := Migrations()
	if err != nil {
		return 0, err
	}
	return applyMigrations(ctx, db, migrations)
}

func applyMigrations(ctx context.Context, db Database, migrations []Migration) (int, error) {
	applied := 0
	for _, m := range migrations {
		done, err := migrationApplied(ctx, db, m.Name)
		if err != nil {
			return applied, err
		}
		if done {
			continue
		}

		if err := db.Execute(ctx, m.Script, nil); err != nil {
			return applied, fmt.Errorf("migration %s failed: %w", m.Name, err)
		}
		if err := db.Execute(ctx, `CREATE schema_migration CONTENT { name: $name, applied_on: time::now() }`,
			map[string]interface{}{"name": m.Name}); err != nil {
			return applied, fmt.Errorf("failed to record migration %s: %w", m.Name, err)
		}

		slog.Info("migration applied", "name", m.Name)
		applied++
	}
	return applied, nil
}

func migrationApplied(ctx context.Context, db Database, name string) (bool, error) {
	_, err := db.QueryOne(ctx, `SELECT id FROM schema_migration WHERE name = $name LIMIT 1`,
		map[string]interface{}{"name": name})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	case errors.Is(err, ErrQuery) && strings.Contains(strings.ToLower(err.Error()), "does not exist"):
		// First run on a strict server, before the bookkeeping table exists.
		return false, nil
	default:
		return false, fmt.Errorf("failed to check migration %s: %w", name, err)
	}
}
