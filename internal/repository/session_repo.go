package repository

import (
	"context"
	"errors"
	"fmt"

	"cashdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionFilter selects a session history. Exactly one of OperatorID and
// RegisterID is set by the service layer.
type SessionFilter struct {
	OperatorID *uuid.UUID
	RegisterID *uuid.UUID
	Limit      int
}

// FinalizeFunc computes the closing state of a locked open session from its
// complete ledger. Returning an error rolls the close back.
type FinalizeFunc func(s *model.Session, txs []model.Transaction) error

// SessionRepository owns cash sessions and their transaction ledger.
// Transactions are append-only: there is no update or delete.
type SessionRepository interface {
	// Create assigns the session code and inserts the row. A second open
	// session for the same operator fails with ErrOpenSessionExists.
	Create(ctx context.Context, s *model.Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
	FindOpenByOperator(ctx context.Context, operatorID uuid.UUID) (*model.Session, error)
	History(ctx context.Context, filter SessionFilter) ([]model.Session, error)

	// Close locks the operator's open session FOR UPDATE, hands it and its
	// ledger to finalize and persists the result in the same transaction.
	// ErrSessionNotOpen when no open session with that id belongs to the operator.
	Close(ctx context.Context, id, operatorID uuid.UUID, finalize FinalizeFunc) (*model.Session, error)

	// AppendTransaction takes a shared lock on the session row, so it either
	// commits before a concurrent Close reads the ledger or observes the
	// closed status. ErrNotFound / ErrSessionNotOpen otherwise.
	AppendTransaction(ctx context.Context, t *model.Transaction) error
	ListTransactions(ctx context.Context, sessionID uuid.UUID) ([]model.Transaction, error)
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) Create(ctx context.Context, s *model.Session) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := nextval(tx, "cash_session_code_seq")
		if err != nil {
			return err
		}
		s.Code = fmt.Sprintf("SES-%08d", n)
		return tx.Omit(clause.Associations).Create(s).Error
	})
	if isUniqueViolation(err, openSessionIndex) {
		return ErrOpenSessionExists
	}
	return err
}

func (r *sessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	var s model.Session
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *sessionRepo) FindOpenByOperator(ctx context.Context, operatorID uuid.UUID) (*model.Session, error) {
	var s model.Session
	err := r.db.WithContext(ctx).
		Where("operator_id = ? AND status = ?", operatorID, model.SessionOpen).
		First(&s).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *sessionRepo) History(ctx context.Context, filter SessionFilter) ([]model.Session, error) {
	q := r.db.WithContext(ctx).Model(&model.Session{})
	if filter.OperatorID != nil {
		q = q.Where("operator_id = ?", *filter.OperatorID)
	}
	if filter.RegisterID != nil {
		q = q.Where("register_id = ?", *filter.RegisterID)
	}

	var sessions []model.Session
	err := q.Order("opened_at DESC").Order("code DESC").
		Limit(filter.Limit).
		Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepo) Close(ctx context.Context, id, operatorID uuid.UUID, finalize FinalizeFunc) (*model.Session, error) {
	var s model.Session
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND operator_id = ? AND status = ?", id, operatorID, model.SessionOpen).
			First(&s).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotOpen
			}
			return err
		}

		var txs []model.Transaction
		if err := tx.Where("session_id = ?", id).Order("created_at ASC").Order("code ASC").Find(&txs).Error; err != nil {
			return err
		}

		if err := finalize(&s, txs); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(&s).Error
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) AppendTransaction(ctx context.Context, t *model.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s model.Session
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Select("id", "status").
			First(&s, "id = ?", t.SessionID).Error
		if err != nil {
			return notFound(err)
		}
		if !s.Status.AcceptsTransactions() {
			return ErrSessionNotOpen
		}

		n, err := nextval(tx, "cash_transaction_code_seq")
		if err != nil {
			return err
		}
		t.Code = fmt.Sprintf("TX-%010d", n)
		return tx.Create(t).Error
	})
}

func (r *sessionRepo) ListTransactions(ctx context.Context, sessionID uuid.UUID) ([]model.Transaction, error) {
	var txs []model.Transaction
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").Order("code ASC").
		Find(&txs).Error
	return txs, err
}

// nextval draws from a Postgres sequence inside tx so codes are unique and
// creation-ordered without a read-modify-write race.
func nextval(tx *gorm.DB, seq string) (int64, error) {
	var n int64
	err := tx.Raw("SELECT nextval(?::regclass)", seq).Scan(&n).Error
	return n, err
}
