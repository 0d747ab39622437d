package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUndefinedColumn(t *testing.T) {
	err := &pgconn.PgError{Code: "42703", Message: `column "token_version" does not exist`}
	if !IsUndefinedColumn(err) {
		t.Fatalf("expected undefined column classification")
	}
	if !IsUndefinedColumn(fmt.Errorf("query users: %w", err)) {
		t.Fatalf("expected classification through wrapping")
	}
	if IsUndefinedColumn(&pgconn.PgError{Code: "42P01"}) {
		t.Fatalf("undefined table must not classify as undefined column")
	}
	if IsUndefinedColumn(errors.New(`column "token_version" does not exist`)) {
		t.Fatalf("free-text match must not classify")
	}
}

func TestIsNoRows(t *testing.T) {
	if !IsNoRows(pgx.ErrNoRows) {
		t.Fatalf("expected no-rows classification")
	}
	if IsNoRows(errors.New("no rows")) {
		t.Fatalf("unrelated error must not classify")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("expected unique violation classification")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("foreign key violation must not classify")
	}
}
