package service_test

import (
	"context"
	"testing"

	"cashdesk/internal/dto"
	"cashdesk/internal/model"
	"cashdesk/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_CashSaleComputesChange(t *testing.T) {
	env := newLedgerEnv()
	operator := uuid.New()
	s := env.open(t, operator, "100")

	tx, err := env.recorder.Record(context.Background(), operator, dto.RecordTransactionRequest{
		SessionID: s.ID, Type: "sale", PaymentMethod: "cash",
		Amount: d("37.25"), CashReceived: dp("50"), OrderRef: sp(" ORD-1 "),
	})
	require.NoError(t, err)

	assert.Regexp(t, `^TX-\d{10}$`, tx.Code)
	require.NotNil(t, tx.CashReceived)
	require.NotNil(t, tx.ChangeGiven)
	assert.Equal(t, "50", tx.CashReceived.String())
	assert.Equal(t, "12.75", tx.ChangeGiven.String())
	assert.Equal(t, "ORD-1", *tx.OrderRef)
	assert.Equal(t, operator.String(), tx.OperatorID)
}

func TestRecorder_CashSaleWithoutTenderIsExact(t *testing.T) {
	env := newLedgerEnv()
	operator := uuid.New()
	s := env.open(t, operator, "0")

	tx, err := env.recorder.Record(context.Background(), operator, dto.RecordTransactionRequest{
		SessionID: s.ID, Type: "sale", PaymentMethod: "cash", Amount: d("9.99"),
	})
	require.NoError(t, err)
	assert.Equal(t, "9.99", tx.CashReceived.String())
	assert.True(t, tx.ChangeGiven.IsZero())
}

func TestRecorder_InsufficientCash(t *testing.T) {
	env := newLedgerEnv()
	operator := uuid.New()
	s := env.open(t, operator, "0")

	_, err := env.recorder.Record(context.Background(), operator, dto.RecordTransactionRequest{
		SessionID: s.ID, Type: "sale", PaymentMethod: "cash", Amount: d("20"), CashReceived: dp("19.99"),
	})
	assert.ErrorIs(t, err, service.ErrInsufficientCashReceived)

	txs, err := env.repo.ListTransactions(context.Background(), uuid.MustParse(s.ID))
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestRecorder_NonCashSaleStoresNoTender(t *testing.T) {
	env := newLedgerEnv()
	operator := uuid.New()
	s := env.open(t, operator, "0")

	for _, req := range []dto.RecordTransactionRequest{
		{SessionID: s.ID, Type: "sale", PaymentMethod: "card", Amount: d("10"), CashReceived: dp("20")},
		{SessionID: s.ID, Type: "refund", PaymentMethod: "cash", Amount: d("5"), CashReceived: dp("5")},
		{SessionID: s.ID, Type: "withdrawal", PaymentMethod: "cash", Amount: d("5")},
	} {
		tx, err := env.recorder.Record(context.Background(), operator, req)
		require.NoError(t, err)
		assert.Nil(t, tx.CashReceived, req.Type+"/"+req.PaymentMethod)
		assert.Nil(t, tx.ChangeGiven, req.Type+"/"+req.PaymentMethod)
	}
}

func TestRecorder_Validation(t *testing.T) {
	env := newLedgerEnv()
	operator := uuid.New()
	s := env.open(t, operator, "0")

	cases := map[string]struct {
		req   dto.RecordTransactionRequest
		field string
	}{
		"zero amount": {
			dto.RecordTransactionRequest{SessionID: s.ID, Type: "sale", PaymentMethod: "card", Amount: d("0")},
			"amount",
		},
		"negative amount": {
			dto.RecordTransactionRequest{SessionID: s.ID, Type: "sale", PaymentMethod: "card", Amount: d("-3")},
			"amount",
		},
		"sub-cent amount": {
			dto.RecordTransactionRequest{SessionID: s.ID, Type: "sale", PaymentMethod: "card", Amount: d("1.001")},
			"amount",
		},
		"unknown type": {
			dto.RecordTransactionRequest{SessionID: s.ID, Type: "void", PaymentMethod: "card", Amount: d("1")},
			"type",
		},
		"unknown method": {
			dto.RecordTransactionRequest{SessionID: s.ID, Type: "sale", PaymentMethod: "cheque", Amount: d("1")},
			"payment_method",
		},
		"bad session id": {
			dto.RecordTransactionRequest{SessionID: "nope", Type: "sale", PaymentMethod: "card", Amount: d("1")},
			"session_id",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.recorder.Record(context.Background(), operator, tc.req)
			assertValidation(t, err, tc.field)
		})
	}
}

func TestRecorder_DisabledPaymentMethod(t *testing.T) {
	env := newLedgerEnv()
	recorder := service.NewTransactionRecorder(env.repo, service.RecorderPolicy{
		ActivePaymentMethods: []model.PaymentMethod{model.PayCash, model.PayCard},
		CurrencyDecimals:     2,
	})
	operator := uuid.New()
	s := env.open(t, operator, "0")

	_, err := recorder.Record(context.Background(), operator, dto.RecordTransactionRequest{
		SessionID: s.ID, Type: "sale", PaymentMethod: "digital_wallet", Amount: d("4"),
	})
	assertValidation(t, err, "payment_method")
}

func TestRecorder_UnknownSession(t *testing.T) {
	env := newLedgerEnv()
	_, err := env.recorder.Record(context.Background(), uuid.New(), dto.RecordTransactionRequest{
		SessionID: uuid.NewString(), Type: "sale", PaymentMethod: "card", Amount: d("1"),
	})
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
}
