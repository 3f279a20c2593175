// internal/writer/sqlstore/sqlstore.go
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/tamzrod/energy-relay/internal/record"
	"github.com/tamzrod/energy-relay/internal/retry"
)

// Dialect selects identifier quoting and placeholder style.
type Dialect uint8

const (
	MySQL Dialect = iota
	Postgres
)

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "mysql":
		return MySQL, nil
	case "postgres":
		return Postgres, nil
	default:
		return 0, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
}

func (d Dialect) quote(ident string) string {
	if d == Postgres {
		return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
	}
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (d Dialect) placeholder(i int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

// InsertStatement builds the single-row insert for table and columns.
func InsertStatement(d Dialect, table string, columns []string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.quote(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.quote(c))
	}
	b.WriteString(") VALUES (")
	for i := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.placeholder(i + 1))
	}
	b.WriteString(")")
	return b.String()
}

// Store inserts one row per record; columns are the record field titles.
type Store struct {
	db      *sql.DB
	columns int
	stmt    string
}

// Open connects lazily; the first Insert reaches the server.
func Open(driver, dsn, table string, columns []string) (*Store, error) {
	d, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driver, err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	return New(db, d, table, columns), nil
}

func New(db *sql.DB, d Dialect, table string, columns []string) *Store {
	return &Store{
		db:      db,
		columns: len(columns),
		stmt:    InsertStatement(d, table, columns),
	}
}

// Insert writes r as one row within ctx.
func (s *Store) Insert(ctx context.Context, r record.Record) error {
	if r.Len() != s.columns {
		return retry.Permanent(fmt.Errorf("sqlstore: record has %d fields, table has %d columns", r.Len(), s.columns))
	}

	args := make([]any, 0, s.columns)
	for _, f := range r.Fields() {
		args = append(args, f)
	}

	if _, err := s.db.ExecContext(ctx, s.stmt, args...); err != nil {
		return fmt.Errorf("sqlstore: insert: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }
