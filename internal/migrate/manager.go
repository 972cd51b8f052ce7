// Package migrate applies versioned SQL migrations from an fs.FS.
// Migration files are named NNNN_name.up.sql / NNNN_name.down.sql and
// applied state is tracked in a schema_migrations table.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// Migration pairs the up and down scripts for one version.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// Manager loads migrations from a filesystem and applies them to a database.
type Manager struct {
	db         *sql.DB
	migrations []Migration
}

func NewManager(db *sql.DB, fsys fs.FS) (*Manager, error) {
	migrations, err := loadMigrations(fsys)
	if err != nil {
		return nil, err
	}
	return &Manager{db: db, migrations: migrations}, nil
}

func loadMigrations(fsys fs.FS) ([]Migration, error) {
	byVersion := map[int]*Migration{}

	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		name := d.Name()

		var suffix string
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			suffix = ".up.sql"
		case strings.HasSuffix(name, ".down.sql"):
			suffix = ".down.sql"
		default:
			return nil
		}

		base := strings.TrimSuffix(name, suffix)
		idx := strings.IndexByte(base, '_')
		if idx <= 0 {
			return fmt.Errorf("malformed migration filename %q", name)
		}
		var version int
		if _, err := fmt.Sscanf(base[:idx], "%d", &version); err != nil {
			return fmt.Errorf("malformed migration version in %q", name)
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}

		m := byVersion[version]
		if m == nil {
			m = &Migration{Version: version, Name: base[idx+1:]}
			byVersion[version] = m
		}
		if suffix == ".up.sql" {
			m.UpSQL = string(data)
		} else {
			m.DownSQL = string(data)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.UpSQL == "" {
			return nil, fmt.Errorf("migration %d is missing its up script", m.Version)
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (m *Manager) ensureTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`)
	return err
}

func (m *Manager) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT version FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := map[int]bool{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// Up applies every pending migration in order and returns how many ran.
func (m *Manager) Up(ctx context.Context) (int, error) {
	if err := m.ensureTable(ctx); err != nil {
		return 0, err
	}
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return 0, err
	}

	ran := 0
	for _, mig := range m.migrations {
		if applied[mig.Version] {
			continue
		}
		if err := m.apply(ctx, mig.UpSQL, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
				mig.Version, mig.Name)
			return err
		}); err != nil {
			return ran, fmt.Errorf("apply migration %d (%s): %w", mig.Version, mig.Name, err)
		}
		ran++
	}
	return ran, nil
}

// Down rolls back the most recently applied migration.
func (m *Manager) Down(ctx context.Context) error {
	if err := m.ensureTable(ctx); err != nil {
		return err
	}
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		mig := m.migrations[i]
		if !applied[mig.Version] {
			continue
		}
		if mig.DownSQL == "" {
			return fmt.Errorf("migration %d has no down script", mig.Version)
		}
		if err := m.apply(ctx, mig.DownSQL, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx,
				`DELETE FROM schema_migrations WHERE version = $1`, mig.Version)
			return err
		}); err != nil {
			return fmt.Errorf("roll back migration %d (%s): %w", mig.Version, mig.Name, err)
		}
		return nil
	}
	return fmt.Errorf("no applied migrations to roll back")
}

// Status reports each known migration and whether it has been applied.
func (m *Manager) Status(ctx context.Context) ([]string, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(m.migrations))
	for _, mig := range m.migrations {
		state := "pending"
		if applied[mig.Version] {
			state = "applied"
		}
		lines = append(lines, fmt.Sprintf("%04d %-30s %s", mig.Version, mig.Name, state))
	}
	return lines, nil
}

func (m *Manager) apply(ctx context.Context, script string, record func(*sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, stmt := range splitStatements(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := record(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// splitStatements breaks a script on semicolons. Good enough for the DDL
// in ops/migrations; no procedural SQL is used there.
func splitStatements(script string) []string {
	var out []string
	for _, part := range strings.Split(script, ";") {
		stmt := strings.TrimSpace(part)
		if stmt == "" || strings.HasPrefix(stmt, "--") {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
