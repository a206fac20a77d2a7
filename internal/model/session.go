package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DenominationCounts maps a denomination id to the number of units counted.
// Persisted as jsonb.
type DenominationCounts map[uuid.UUID]int

func (d DenominationCounts) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *DenominationCounts) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("denomination counts: unsupported type %T", value)
	}
	counts := DenominationCounts{}
	if err := json.Unmarshal(raw, &counts); err != nil {
		return err
	}
	*d = counts
	return nil
}

// Session is one cashier shift: the unit of cash reconciliation.
// Created open by RegisterLedger.Open and mutated exactly once by Close.
// Summary fields stay NULL until close.
type Session struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RegisterID *uuid.UUID    `gorm:"type:uuid;index"`
	OperatorID uuid.UUID     `gorm:"type:uuid;not null;index"`
	StoreID    *uuid.UUID    `gorm:"type:uuid"`
	Code       string        `gorm:"type:varchar(32);uniqueIndex;not null"`
	Status     SessionStatus `gorm:"type:varchar(20);not null;default:'open'"`
	OpenedAt   time.Time     `gorm:"not null;index"`
	ClosedAt   *time.Time

	OpeningCash          decimal.Decimal    `gorm:"type:decimal(14,2);not null"`
	OpeningDenominations DenominationCounts `gorm:"type:jsonb"`
	OpeningNotes         *string

	ClosingCash          *decimal.Decimal   `gorm:"type:decimal(14,2)"`
	ClosingDenominations DenominationCounts `gorm:"type:jsonb"`
	ClosingNotes         *string

	// Derived once at close by calc.Summarize.
	ExpectedCash      *decimal.Decimal `gorm:"type:decimal(14,2)"`
	CashDifference    *decimal.Decimal `gorm:"type:decimal(14,2)"`
	TotalSales        *decimal.Decimal `gorm:"type:decimal(14,2)"`
	TotalTransactions *int
	CashSales         *decimal.Decimal  `gorm:"type:decimal(14,2)"`
	CardSales         *decimal.Decimal  `gorm:"type:decimal(14,2)"`
	OtherSales        *decimal.Decimal  `gorm:"type:decimal(14,2)"`
	CashRefunds       *decimal.Decimal  `gorm:"type:decimal(14,2)"`
	Withdrawals       *decimal.Decimal  `gorm:"type:decimal(14,2)"`
	Deposits          *decimal.Decimal  `gorm:"type:decimal(14,2)"`
	DiscrepancyPct    *decimal.Decimal  `gorm:"type:decimal(7,2)"`
	DiscrepancyLevel  *DiscrepancyLevel `gorm:"type:varchar(20)"`

	Transactions []Transaction `gorm:"foreignKey:SessionID"`
}

func (Session) TableName() string { return "cash_sessions" }

// MaxDiscrepancyPct is the largest magnitude the decimal(7,2)
// discrepancy_pct column holds. Larger percentages are stored clamped.
var MaxDiscrepancyPct = decimal.RequireFromString("99999.99")

// CashRegister is a physical drawer. Reference data for this service.
type CashRegister struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string          `gorm:"not null"`
	Code         string          `gorm:"type:varchar(32);uniqueIndex;not null"`
	StoreID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Active       bool            `gorm:"not null;default:true"`
	InitialFloat decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (CashRegister) TableName() string { return "cash_registers" }
