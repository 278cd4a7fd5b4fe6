package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestEnsureSchema_RunsEveryStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	for range schema {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("expected nil err, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestEnsureSchema_StopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS products").WillReturnError(errors.New("permission denied"))

	if err := EnsureSchema(context.Background(), db); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	dup := fmt.Errorf("insert order: %w", &pgconn.PgError{Code: "23505"})
	if !IsUniqueViolation(dup) {
		t.Fatalf("expected wrapped 23505 to be detected")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("foreign key violation must not count as unique violation")
	}
	if IsUniqueViolation(errors.New("duplicate key")) {
		t.Fatalf("plain errors must not count as unique violation")
	}
}

func TestViolatedConstraint(t *testing.T) {
	err := fmt.Errorf("save profile: %w", &pgconn.PgError{Code: "23505", ConstraintName: "user_profiles_email_key"})
	if got := ViolatedConstraint(err); got != "user_profiles_email_key" {
		t.Fatalf("expected email constraint, got %q", got)
	}
	if got := ViolatedConstraint(&pgconn.PgError{Code: "23503", ConstraintName: "fk"}); got != "" {
		t.Fatalf("expected no constraint for 23503, got %q", got)
	}
}
