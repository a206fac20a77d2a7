package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is an immutable entry in a session's cash ledger.
// Entries are NEVER modified or deleted; corrections are recorded as new
// entries (a refund, a withdrawal).
type Transaction struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID     uuid.UUID        `gorm:"type:uuid;index;not null"`
	OrderRef      *string          `gorm:"type:varchar(64)"`
	Code          string           `gorm:"type:varchar(32);uniqueIndex;not null"`
	Type          TransactionType  `gorm:"type:varchar(20);not null"`
	Amount        decimal.Decimal  `gorm:"type:decimal(14,2);not null"`
	PaymentMethod PaymentMethod    `gorm:"type:varchar(20);not null"`
	CashReceived  *decimal.Decimal `gorm:"type:decimal(14,2)"`
	ChangeGiven   *decimal.Decimal `gorm:"type:decimal(14,2)"`
	OperatorID    uuid.UUID        `gorm:"type:uuid;not null"`
	Notes         *string
	CreatedAt     time.Time `gorm:"not null;index"`
}

func (Transaction) TableName() string { return "cash_transactions" }
