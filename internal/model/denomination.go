package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Denomination is one countable currency unit. Reference data, read-only here.
type Denomination struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CurrencyCode string           `gorm:"type:varchar(3);not null;index:idx_denominations_currency_value,unique"`
	Value        decimal.Decimal  `gorm:"type:decimal(14,2);not null;index:idx_denominations_currency_value,unique"`
	Type         DenominationType `gorm:"type:varchar(10);not null"`
	Label        string           `gorm:"not null"`
	SortOrder    int              `gorm:"not null;default:0"`
	Active       bool             `gorm:"not null;default:true"`
}
