package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the slice of the external catalog the totals endpoint reads.
// The catalog owns this table; nothing here writes to it.
type Product struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name             string           `gorm:"not null"`
	Price            decimal.Decimal  `gorm:"type:decimal(14,2);not null"`
	TaxRate          *decimal.Decimal `gorm:"type:decimal(5,2)"`
	PriceIncludesTax bool             `gorm:"not null;default:false"`
	Active           bool             `gorm:"not null;default:true"`
}
