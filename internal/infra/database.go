package infra

import (
	"fmt"

	"cashdesk/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens a GORM connection backed by pgx and brings the schema up
// to date: AutoMigrate for tables and columns, then idempotent SQL patches
// for what GORM cannot express (partial indexes, sequences, checks).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations is safe to call on every start and from integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.CashRegister{},
		&model.Denomination{},
		&model.Product{},
		&model.Session{},
		&model.Transaction{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot handle.
// Each statement is guarded with IF NOT EXISTS so re-running is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// Atomic open: the second concurrent INSERT for an operator fails with 23505.
		{"one open session per operator", `
CREATE UNIQUE INDEX IF NOT EXISTS uq_cash_sessions_open_operator
    ON cash_sessions (operator_id)
    WHERE status = 'open'`},
		{"session code sequence",
			`CREATE SEQUENCE IF NOT EXISTS cash_session_code_seq`},
		{"transaction code sequence",
			`CREATE SEQUENCE IF NOT EXISTS cash_transaction_code_seq`},
		{"history lookup by register", `
CREATE INDEX IF NOT EXISTS idx_cash_sessions_register_opened
    ON cash_sessions (register_id, opened_at DESC)`},
		{"positive transaction amount", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_cash_transactions_amount_positive') THEN
    ALTER TABLE cash_transactions
      ADD CONSTRAINT chk_cash_transactions_amount_positive CHECK (amount > 0);
  END IF;
END $$`},
		{"known session status", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_cash_sessions_status') THEN
    ALTER TABLE cash_sessions
      ADD CONSTRAINT chk_cash_sessions_status CHECK (status IN ('open', 'closed', 'suspended'));
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
