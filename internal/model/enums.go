package model

import (
	"database/sql/driver"
	"fmt"
)

// SessionStatus is the lifecycle state of a cashier session.
// Only open → closed is a defined transition; suspended is reserved.
type SessionStatus string

const (
	SessionOpen      SessionStatus = "open"
	SessionClosed    SessionStatus = "closed"
	SessionSuspended SessionStatus = "suspended"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionOpen, SessionClosed, SessionSuspended:
		return true
	}
	return false
}

// AcceptsTransactions reports whether ledger entries may be appended.
func (s SessionStatus) AcceptsTransactions() bool {
	switch s {
	case SessionOpen:
		return true
	case SessionClosed, SessionSuspended:
		return false
	default:
		return false
	}
}

func (s SessionStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid session status %q", string(s))
	}
	return string(s), nil
}

func (s *SessionStatus) Scan(value interface{}) error {
	str, err := scanString(value)
	if err != nil {
		return err
	}
	*s = SessionStatus(str)
	if !s.Valid() {
		return fmt.Errorf("invalid session status %q", str)
	}
	return nil
}

// TransactionType encodes the direction of a ledger entry; amounts are always positive.
type TransactionType string

const (
	TxSale       TransactionType = "sale"
	TxRefund     TransactionType = "refund"
	TxWithdrawal TransactionType = "withdrawal"
	TxDeposit    TransactionType = "deposit"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxSale, TxRefund, TxWithdrawal, TxDeposit:
		return true
	}
	return false
}

// PaymentMethod is the tender used for a ledger entry.
type PaymentMethod string

const (
	PayCash          PaymentMethod = "cash"
	PayCard          PaymentMethod = "card"
	PayDigitalWallet PaymentMethod = "digital_wallet"
	PayOther         PaymentMethod = "other"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PayCash, PayCard, PayDigitalWallet, PayOther:
		return true
	}
	return false
}

// AllPaymentMethods lists every known method in display order.
func AllPaymentMethods() []PaymentMethod {
	return []PaymentMethod{PayCash, PayCard, PayDigitalWallet, PayOther}
}

// DenominationType distinguishes coins from notes.
type DenominationType string

const (
	DenominationCoin DenominationType = "coin"
	DenominationNote DenominationType = "note"
)

func (d DenominationType) Valid() bool {
	return d == DenominationCoin || d == DenominationNote
}

// DiscrepancyLevel classifies the cash difference found at close.
// normal: |pct| <= warning threshold, warning: <= critical threshold, critical: above it.
type DiscrepancyLevel string

const (
	DiscrepancyNormal   DiscrepancyLevel = "normal"
	DiscrepancyWarning  DiscrepancyLevel = "warning"
	DiscrepancyCritical DiscrepancyLevel = "critical"
)

func scanString(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", fmt.Errorf("unexpected NULL")
	default:
		return "", fmt.Errorf("unsupported type %T", value)
	}
}
