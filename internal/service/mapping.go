package service

import (
	"time"

	"cashdesk/internal/dto"
	"cashdesk/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const timeLayout = time.RFC3339

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func timePtrString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(timeLayout)
	return &s
}

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func toSessionResponse(s *model.Session) dto.SessionResponse {
	resp := dto.SessionResponse{
		ID:                   s.ID.String(),
		Code:                 s.Code,
		RegisterID:           uuidPtrString(s.RegisterID),
		OperatorID:           s.OperatorID.String(),
		StoreID:              uuidPtrString(s.StoreID),
		Status:               string(s.Status),
		OpenedAt:             s.OpenedAt.UTC().Format(timeLayout),
		ClosedAt:             timePtrString(s.ClosedAt),
		OpeningCash:          s.OpeningCash,
		OpeningDenominations: s.OpeningDenominations,
		OpeningNotes:         s.OpeningNotes,
		ClosingCash:          s.ClosingCash,
		ClosingDenominations: s.ClosingDenominations,
		ClosingNotes:         s.ClosingNotes,
	}

	// Blind count: derived totals exist only after close.
	if s.Status == model.SessionClosed && s.ExpectedCash != nil {
		sum := &dto.SessionSummaryResponse{
			ExpectedCash:   *s.ExpectedCash,
			CashDifference: decimalOrZero(s.CashDifference),
			TotalSales:     decimalOrZero(s.TotalSales),
			CashSales:      decimalOrZero(s.CashSales),
			CardSales:      decimalOrZero(s.CardSales),
			OtherSales:     decimalOrZero(s.OtherSales),
			CashRefunds:    decimalOrZero(s.CashRefunds),
			Withdrawals:    decimalOrZero(s.Withdrawals),
			Deposits:       decimalOrZero(s.Deposits),
			DiscrepancyPct: decimalOrZero(s.DiscrepancyPct),
		}
		if s.TotalTransactions != nil {
			sum.TotalTransactions = *s.TotalTransactions
		}
		if s.DiscrepancyLevel != nil {
			sum.DiscrepancyLevel = string(*s.DiscrepancyLevel)
		}
		resp.Summary = sum
	}
	return resp
}

func toTransactionResponse(t *model.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:            t.ID.String(),
		SessionID:     t.SessionID.String(),
		Code:          t.Code,
		OrderRef:      t.OrderRef,
		Type:          string(t.Type),
		Amount:        t.Amount,
		PaymentMethod: string(t.PaymentMethod),
		CashReceived:  t.CashReceived,
		ChangeGiven:   t.ChangeGiven,
		OperatorID:    t.OperatorID.String(),
		Notes:         t.Notes,
		CreatedAt:     t.CreatedAt.UTC().Format(timeLayout),
	}
}

// checkMoney rejects negative amounts and amounts finer than the currency's
// minor unit, which the decimal(14,2) columns would silently round.
func checkMoney(field string, v decimal.Decimal, places int32) error {
	if v.IsNegative() {
		return invalid(field, "must not be negative")
	}
	if !v.Equal(v.Round(places)) {
		return invalid(field, "more than %d decimal places", places)
	}
	return nil
}
