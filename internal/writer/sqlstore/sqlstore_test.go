// internal/writer/sqlstore/sqlstore_test.go
package sqlstore

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/tamzrod/energy-relay/internal/record"
	"github.com/tamzrod/energy-relay/internal/retry"
)

func TestInsertStatement(t *testing.T) {
	cols := []string{"Time", "SOC"}

	if got := InsertStatement(MySQL, "dataparameter", cols); got != "INSERT INTO `dataparameter` (`Time`, `SOC`) VALUES (?, ?)" {
		t.Fatalf("mysql: %s", got)
	}
	if got := InsertStatement(Postgres, "dataparameter", cols); got != `INSERT INTO "dataparameter" ("Time", "SOC") VALUES ($1, $2)` {
		t.Fatalf("postgres: %s", got)
	}
}

func TestDialectFor(t *testing.T) {
	if d, err := DialectFor("postgres"); err != nil || d != Postgres {
		t.Fatalf("postgres: d=%v err=%v", d, err)
	}
	if _, err := DialectFor("sqlite3"); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestStoreInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	s := New(db, Postgres, "dataparameter", []string{"Time", "SOC"})
	r, _ := record.New([]string{"2024-01-01 00:00:00", "80"})

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "dataparameter" ("Time", "SOC") VALUES ($1, $2)`)).
		WithArgs("2024-01-01 00:00:00", "80").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.Insert(context.Background(), r); err != nil {
		t.Fatalf("Insert() err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStoreInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	s := New(db, MySQL, "dataparameter", []string{"A"})
	r, _ := record.New([]string{"1"})

	boom := errors.New("connection refused")
	mock.ExpectExec("INSERT INTO").WillReturnError(boom)

	if err := s.Insert(context.Background(), r); !errors.Is(err, boom) {
		t.Fatalf("err=%v want wrapped %v", err, boom)
	}
}

func TestStoreInsertFieldCountMismatch(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	s := New(db, MySQL, "t", []string{"A", "B"})
	r, _ := record.New([]string{"1"})

	err := s.Insert(context.Background(), r)
	if !retry.IsPermanent(err) {
		t.Fatalf("mismatch must not be retried, err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no statement expected: %v", err)
	}
}
