package dto

import "github.com/shopspring/decimal"

type RecordTransactionRequest struct {
	SessionID     string           `json:"session_id"     validate:"required,uuid"`
	Type          string           `json:"type"           validate:"required,oneof=sale refund withdrawal deposit"`
	Amount        decimal.Decimal  `json:"amount"         validate:"gt=0"`
	PaymentMethod string           `json:"payment_method" validate:"required,oneof=cash card digital_wallet other"`
	OrderRef      *string          `json:"order_ref"      validate:"omitempty,max=64"`
	CashReceived  *decimal.Decimal `json:"cash_received"  validate:"omitempty,min=0"`
	Notes         *string          `json:"notes"          validate:"omitempty,max=500"`
}

type TransactionResponse struct {
	ID            string           `json:"id"`
	SessionID     string           `json:"session_id"`
	Code          string           `json:"code"`
	OrderRef      *string          `json:"order_ref"`
	Type          string           `json:"type"`
	Amount        decimal.Decimal  `json:"amount"`
	PaymentMethod string           `json:"payment_method"`
	CashReceived  *decimal.Decimal `json:"cash_received"`
	ChangeGiven   *decimal.Decimal `json:"change_given"`
	OperatorID    string           `json:"operator_id"`
	Notes         *string          `json:"notes"`
	CreatedAt     string           `json:"created_at"`
}
