package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrOpenSessionExists = errors.New("operator already has an open session")
	ErrSessionNotOpen    = errors.New("session is not open")
)

const (
	pgUniqueViolation = "23505"

	// Partial unique index: one open session per operator.
	openSessionIndex = "uq_cash_sessions_open_operator"
)

// notFound collapses gorm's sentinel into the package one so callers never
// import gorm to test for a missing row.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgUniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
}
