package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

const defaultTable = "schema_migrations"

var ErrNothingApplied = errors.New("migrate: no migrations applied")

// Migration pairs the up and down scripts sharing one name prefix, for example 0001_init.
type Migration struct {
	Name string
	Up   string
	Down string // empty when the migration cannot be reverted
}

// Entry is one line of Status output.
type Entry struct {
	Name      string
	AppliedAt *time.Time
}

// Manager applies SQL migrations read from a file system, usually the schema
// embedded by package migrations. Each script runs in one transaction together
// with its bookkeeping row.
type Manager struct {
	db    *sql.DB
	fsys  fs.FS
	table string
	now   func() time.Time
}

// Option configures Manager.
type Option func(*Manager)

// WithTable overrides the bookkeeping table.
func WithTable(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.table = name
		}
	}
}

func NewManager(db *sql.DB, fsys fs.FS, opts ...Option) *Manager {
	m := &Manager{db: db, fsys: fsys, table: defaultTable, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Up applies every migration not yet recorded, in name order.
func (m *Manager) Up(ctx context.Context) error {
	all, applied, err := m.state(ctx)
	if err != nil {
		return err
	}
	for _, mig := range all {
		if _, ok := applied[mig.Name]; ok {
			continue
		}
		record := fmt.Sprintf(`insert into %s(name, applied_at) values ($1, $2)`, m.table)
		if err := m.run(ctx, mig.Up, record, mig.Name, m.now().UTC()); err != nil {
			return fmt.Errorf("apply migration %s: %w", mig.Name, err)
		}
	}
	return nil
}

// Down reverts the most recently applied migration.
func (m *Manager) Down(ctx context.Context) error {
	all, applied, err := m.state(ctx)
	if err != nil {
		return err
	}
	var last *Migration
	var lastAt time.Time
	for i := range all {
		at, ok := applied[all[i].Name]
		if !ok {
			continue
		}
		if last == nil || !at.Before(lastAt) {
			last, lastAt = &all[i], at
		}
	}
	if last == nil {
		return ErrNothingApplied
	}
	if last.Down == "" {
		return fmt.Errorf("migrate: %s has no down script", last.Name)
	}
	forget := fmt.Sprintf(`delete from %s where name = $1`, m.table)
	if err := m.run(ctx, last.Down, forget, last.Name); err != nil {
		return fmt.Errorf("rollback migration %s: %w", last.Name, err)
	}
	return nil
}

// Status lists every known migration with its application time, pending ones last.
func (m *Manager) Status(ctx context.Context) ([]Entry, error) {
	all, applied, err := m.state(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(all))
	for _, mig := range all {
		e := Entry{Name: mig.Name}
		if at, ok := applied[mig.Name]; ok {
			e.AppliedAt = &at
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].AppliedAt, out[j].AppliedAt
		switch {
		case a != nil && b != nil:
			return a.Before(*b)
		default:
			return a != nil && b == nil
		}
	})
	return out, nil
}

func (m *Manager) state(ctx context.Context) ([]Migration, map[string]time.Time, error) {
	all, err := Load(m.fsys)
	if err != nil {
		return nil, nil, err
	}
	ddl := fmt.Sprintf(`create table if not exists %s (
		name       text primary key,
		applied_at timestamptz not null default now()
	)`, m.table)
	if _, err := m.db.ExecContext(ctx, ddl); err != nil {
		return nil, nil, err
	}
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf(`select name, applied_at from %s`, m.table))
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	applied := make(map[string]time.Time)
	for rows.Next() {
		var (
			name string
			at   time.Time
		)
		if err := rows.Scan(&name, &at); err != nil {
			return nil, nil, err
		}
		applied[name] = at
	}
	return all, applied, rows.Err()
}

// run executes script and the bookkeeping statement atomically.
func (m *Manager) run(ctx context.Context, script, bookkeeping string, args ...any) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, stmt := range splitStatements(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, bookkeeping, args...); err != nil {
		return err
	}
	return tx.Commit()
}

// Load reads NAME.up.sql / NAME.down.sql pairs from fsys. An up script is required for each name.
func Load(fsys fs.FS) ([]Migration, error) {
	if fsys == nil {
		return nil, errors.New("migrate: no migration source")
	}
	byName := make(map[string]*Migration)
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		base := path.Base(p)
		var name string
		var down bool
		switch {
		case strings.HasSuffix(base, ".up.sql"):
			name = strings.TrimSuffix(base, ".up.sql")
		case strings.HasSuffix(base, ".down.sql"):
			name, down = strings.TrimSuffix(base, ".down.sql"), true
		default:
			return nil
		}
		body, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		mig, ok := byName[name]
		if !ok {
			mig = &Migration{Name: name}
			byName[name] = mig
		}
		if down {
			mig.Down = string(body)
		} else {
			mig.Up = string(body)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]Migration, 0, len(byName))
	for _, mig := range byName {
		if strings.TrimSpace(mig.Up) == "" {
			return nil, fmt.Errorf("migrate: %s has no up script", mig.Name)
		}
		out = append(out, *mig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// splitStatements cuts a script on semicolons outside single-quoted literals
// and drops "--" line comments and empty statements.
func splitStatements(script string) []string {
	var (
		stmts   []string
		cur     strings.Builder
		quoted  bool
		comment bool
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			stmts = append(stmts, s)
		}
		cur.Reset()
	}
	runes := []rune(script)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case comment:
			if r == '\n' {
				comment = false
				cur.WriteRune(r)
			}
		case !quoted && r == '-' && i+1 < len(runes) && runes[i+1] == '-':
			comment = true
			i++
		case r == '\'':
			quoted = !quoted
			cur.WriteRune(r)
		case r == ';' && !quoted:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return stmts
}
