package dto

import "github.com/shopspring/decimal"

type DenominationResponse struct {
	ID           string          `json:"id"`
	CurrencyCode string          `json:"currency_code"`
	Value        decimal.Decimal `json:"value"`
	Type         string          `json:"type"` // coin | note
	Label        string          `json:"label"`
	SortOrder    int             `json:"sort_order"`
}

type BreakdownRequest struct {
	Currency string          `json:"currency" validate:"omitempty,len=3"`
	Amount   decimal.Decimal `json:"amount"   validate:"min=0"`
}

type BreakdownItem struct {
	DenominationID string          `json:"denomination_id"`
	Label          string          `json:"label"`
	Value          decimal.Decimal `json:"value"`
	Count          int             `json:"count"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

// BreakdownResponse lists denominations largest first. Remainder is the part
// of Amount the set cannot express; Exact is false when it is non-zero.
type BreakdownResponse struct {
	Currency  string          `json:"currency"`
	Amount    decimal.Decimal `json:"amount"`
	Items     []BreakdownItem `json:"items"`
	Remainder decimal.Decimal `json:"remainder"`
	Exact     bool            `json:"exact"`
}
