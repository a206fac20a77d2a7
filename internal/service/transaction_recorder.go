package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cashdesk/internal/dto"
	"cashdesk/internal/model"
	"cashdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type RecorderPolicy struct {
	// ActivePaymentMethods limits which tenders this deployment accepts.
	// Empty means every known method.
	ActivePaymentMethods []model.PaymentMethod
	CurrencyDecimals     int32
}

// TransactionRecorder appends immutable entries to an open session's ledger.
type TransactionRecorder interface {
	Record(ctx context.Context, operatorID uuid.UUID, req dto.RecordTransactionRequest) (*dto.TransactionResponse, error)
}

type transactionRecorder struct {
	sessions repository.SessionRepository
	active   map[model.PaymentMethod]bool
	places   int32
}

func NewTransactionRecorder(sessions repository.SessionRepository, policy RecorderPolicy) TransactionRecorder {
	methods := policy.ActivePaymentMethods
	if len(methods) == 0 {
		methods = model.AllPaymentMethods()
	}
	active := make(map[model.PaymentMethod]bool, len(methods))
	for _, m := range methods {
		active[m] = true
	}
	return &transactionRecorder{sessions: sessions, active: active, places: policy.CurrencyDecimals}
}

func (r *transactionRecorder) Record(ctx context.Context, operatorID uuid.UUID, req dto.RecordTransactionRequest) (*dto.TransactionResponse, error) {
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return nil, invalid("session_id", "not a valid id")
	}

	typ := model.TransactionType(req.Type)
	if !typ.Valid() {
		return nil, invalid("type", "unknown transaction type %q", req.Type)
	}
	method := model.PaymentMethod(req.PaymentMethod)
	if !method.Valid() {
		return nil, invalid("payment_method", "unknown payment method %q", req.PaymentMethod)
	}
	if !r.active[method] {
		return nil, invalid("payment_method", "payment method %q is not enabled", req.PaymentMethod)
	}
	if !req.Amount.IsPositive() {
		return nil, invalid("amount", "must be greater than zero")
	}
	if err := checkMoney("amount", req.Amount, r.places); err != nil {
		return nil, err
	}

	tx := &model.Transaction{
		SessionID:     sessionID,
		OrderRef:      trimmed(req.OrderRef),
		Type:          typ,
		Amount:        req.Amount,
		PaymentMethod: method,
		OperatorID:    operatorID,
		Notes:         trimmed(req.Notes),
	}

	// Only a cash sale hands out change; a missing tender means exact cash.
	if typ == model.TxSale && method == model.PayCash {
		received := req.Amount
		if req.CashReceived != nil {
			received = *req.CashReceived
			if err := checkMoney("cash_received", received, r.places); err != nil {
				return nil, err
			}
		}
		if received.LessThan(req.Amount) {
			return nil, ErrInsufficientCashReceived
		}
		change := received.Sub(req.Amount)
		tx.CashReceived = &received
		tx.ChangeGiven = &change
	}

	if err := r.sessions.AppendTransaction(ctx, tx); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrSessionNotFound
		case errors.Is(err, repository.ErrSessionNotOpen):
			return nil, ErrFrozenSession
		default:
			return nil, fmt.Errorf("append transaction: %w", err)
		}
	}

	log.Debug().
		Str("session_id", sessionID.String()).
		Str("code", tx.Code).
		Str("type", string(tx.Type)).
		Str("payment_method", string(tx.PaymentMethod)).
		Str("amount", tx.Amount.String()).
		Msg("transaction recorded")

	resp := toTransactionResponse(tx)
	return &resp, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
