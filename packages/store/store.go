// Package store persists environment snapshots so that values produced by
// one run can seed the next. It never stores run history.
//
// SQLite (mattn/go-sqlite3) is the default backend; postgres:// and
// postgresql:// connection strings use PostgreSQL through pgx.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	// Database drivers
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/abdul-hamid-achik/colrun/packages/core/env"
)

// ErrNotFound is returned when no environment has the requested name.
var ErrNotFound = errors.New("environment not found")

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS environments (
	name       TEXT PRIMARY KEY,
	id         TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS variables (
	environment TEXT NOT NULL REFERENCES environments(name) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	key         TEXT NOT NULL,
	value       TEXT NOT NULL,
	enabled     INTEGER NOT NULL,
	type        TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (environment, position)
);`

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS environments (
		name       TEXT PRIMARY KEY,
		id         TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS variables (
		environment TEXT NOT NULL REFERENCES environments(name) ON DELETE CASCADE,
		position    INTEGER NOT NULL,
		key         TEXT NOT NULL,
		value       TEXT NOT NULL,
		enabled     BOOLEAN NOT NULL,
		type        TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (environment, position)
	)`,
}

// dialect holds what differs between the backends.
type dialect struct {
	driver     string
	schema     []string
	numbered   bool // $1 placeholders instead of ?
	singleConn bool
}

var (
	sqliteDialect   = dialect{driver: "sqlite3", schema: []string{sqliteSchema}, singleConn: true}
	postgresDialect = dialect{driver: "pgx", schema: postgresSchema, numbered: true}
)

// bind rewrites ? placeholders for dialects that number them.
func (d dialect) bind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Summary describes a stored environment without its values.
type Summary struct {
	Name      string    `json:"name"`
	Variables int       `json:"variables"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Store struct {
	db      *sql.DB
	dialect dialect
}

// Open opens (and creates if needed) the store. Accepted forms are
// postgres://..., postgresql://..., sqlite://path, sqlite:path, or a plain
// file path.
func Open(connectionString string) (*Store, error) {
	d, dsn := parseConnectionString(connectionString)
	if dsn == "" {
		return nil, fmt.Errorf("empty store path")
	}
	if d.driver == sqliteDialect.driver {
		dsn = withQueryParam(dsn, "_foreign_keys=on")
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if d.singleConn {
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, stmt := range d.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to initialise store: %w", err)
		}
	}

	return &Store{db: db, dialect: d}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveEnvironment replaces the stored snapshot named e.Name.
func (s *Store) SaveEnvironment(ctx context.Context, e *env.Environment) error {
	if e == nil || e.Name == "" {
		return fmt.Errorf("environment name is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, s.dialect.bind(`
		INSERT INTO environments (name, id, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET id = excluded.id, updated_at = excluded.updated_at`),
		e.Name, e.ID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving environment %q: %w", e.Name, err)
	}

	if _, err := tx.ExecContext(ctx, s.dialect.bind(`DELETE FROM variables WHERE environment = ?`), e.Name); err != nil {
		return fmt.Errorf("clearing variables of %q: %w", e.Name, err)
	}

	for i, v := range e.Values {
		_, err := tx.ExecContext(ctx,
			s.dialect.bind(`INSERT INTO variables (environment, position, key, value, enabled, type) VALUES (?, ?, ?, ?, ?, ?)`),
			e.Name, i, v.Key, v.Value, v.Enabled, v.Type)
		if err != nil {
			return fmt.Errorf("saving variable %q: %w", v.Key, err)
		}
	}

	return tx.Commit()
}

// LoadEnvironment returns the snapshot named name, values in saved order.
func (s *Store) LoadEnvironment(ctx context.Context, name string) (*env.Environment, error) {
	e := env.New(name)
	err := s.db.QueryRowContext(ctx, s.dialect.bind(`SELECT id FROM environments WHERE name = ?`), name).Scan(&e.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		s.dialect.bind(`SELECT key, value, enabled, type FROM variables WHERE environment = ? ORDER BY position`), name)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v env.Variable
		if err := rows.Scan(&v.Key, &v.Value, &v.Enabled, &v.Type); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		e.Values = append(e.Values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return e, nil
}

// ListEnvironments returns every stored environment, sorted by name.
func (s *Store) ListEnvironments(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.name, e.updated_at, COUNT(v.key)
		FROM environments e LEFT JOIN variables v ON v.environment = e.name
		GROUP BY e.name, e.updated_at
		ORDER BY e.name`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	summaries := make([]Summary, 0)
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.Name, &sum.UpdatedAt, &sum.Variables); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

func (s *Store) DeleteEnvironment(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, s.dialect.bind(`DELETE FROM environments WHERE name = ?`), name)
	if err != nil {
		return fmt.Errorf("deleting environment %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// withQueryParam appends param to a sqlite DSN that may already carry a query.
func withQueryParam(dsn, param string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + param
	}
	return dsn + "?" + param
}

func parseConnectionString(connStr string) (dialect, string) {
	connStr = strings.TrimSpace(connStr)
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		return postgresDialect, connStr
	}
	if rest, ok := strings.CutPrefix(connStr, "sqlite://"); ok {
		return sqliteDialect, rest
	}
	if rest, ok := strings.CutPrefix(connStr, "sqlite:"); ok {
		return sqliteDialect, rest
	}
	return sqliteDialect, connStr
}
