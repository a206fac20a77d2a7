package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// OpenSessionRequest opens a shift for the authenticated operator.
// OpeningCash may be omitted only when RegisterID is given: the register's
// initial float is used.
type OpenSessionRequest struct {
	RegisterID           *string           `json:"register_id"           validate:"omitempty,uuid"`
	OpeningCash          *decimal.Decimal  `json:"opening_cash"          validate:"omitempty,min=0"`
	OpeningDenominations map[uuid.UUID]int `json:"opening_denominations" validate:"omitempty,dive,min=0"`
	Notes                *string           `json:"notes"                 validate:"omitempty,max=500"`
}

type CloseSessionRequest struct {
	ClosingCash          *decimal.Decimal  `json:"closing_cash"          validate:"omitempty,min=0"`
	ClosingDenominations map[uuid.UUID]int `json:"closing_denominations" validate:"omitempty,dive,min=0"`
	Notes                *string           `json:"notes"                 validate:"omitempty,max=500"`
}

// SessionHistoryFilter is bound from the query string of GET /v1/sessions/history.
// Exactly one of OperatorID and RegisterID is required.
type SessionHistoryFilter struct {
	OperatorID string `form:"operator_id" validate:"omitempty,uuid"`
	RegisterID string `form:"register_id" validate:"omitempty,uuid"`
	Limit      int    `form:"limit"       validate:"omitempty,min=1"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// SessionSummaryResponse is only present once a session is closed; an open
// session never reveals its expected cash.
type SessionSummaryResponse struct {
	ExpectedCash      decimal.Decimal `json:"expected_cash"`
	CashDifference    decimal.Decimal `json:"cash_difference"`
	TotalSales        decimal.Decimal `json:"total_sales"`
	TotalTransactions int             `json:"total_transactions"`
	CashSales         decimal.Decimal `json:"cash_sales"`
	CardSales         decimal.Decimal `json:"card_sales"`
	OtherSales        decimal.Decimal `json:"other_sales"`
	CashRefunds       decimal.Decimal `json:"cash_refunds"`
	Withdrawals       decimal.Decimal `json:"withdrawals"`
	Deposits          decimal.Decimal `json:"deposits"`
	DiscrepancyPct    decimal.Decimal `json:"discrepancy_pct"`
	DiscrepancyLevel  string          `json:"discrepancy_level"` // normal | warning | critical
}

type SessionResponse struct {
	ID                   string                  `json:"id"`
	Code                 string                  `json:"code"`
	RegisterID           *string                 `json:"register_id"`
	OperatorID           string                  `json:"operator_id"`
	StoreID              *string                 `json:"store_id"`
	Status               string                  `json:"status"`
	OpenedAt             string                  `json:"opened_at"`
	ClosedAt             *string                 `json:"closed_at"`
	OpeningCash          decimal.Decimal         `json:"opening_cash"`
	OpeningDenominations map[uuid.UUID]int       `json:"opening_denominations,omitempty"`
	OpeningNotes         *string                 `json:"opening_notes"`
	ClosingCash          *decimal.Decimal        `json:"closing_cash"`
	ClosingDenominations map[uuid.UUID]int       `json:"closing_denominations,omitempty"`
	ClosingNotes         *string                 `json:"closing_notes"`
	Summary              *SessionSummaryResponse `json:"summary"`
}
