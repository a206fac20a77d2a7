package repository

import (
	"context"

	"cashdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegisterRepository reads cash registers. Registers are reference data
// maintained outside this service (see cmd/seed for local setup).
type RegisterRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.CashRegister, error)
}

type registerRepo struct{ db *gorm.DB }

func NewRegisterRepository(db *gorm.DB) RegisterRepository { return &registerRepo{db: db} }

func (r *registerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CashRegister, error) {
	var reg model.CashRegister
	if err := r.db.WithContext(ctx).First(&reg, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &reg, nil
}
