package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"cashdesk/internal/dto"
	"cashdesk/internal/model"
	"cashdesk/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerEnv struct {
	repo      *memSessionRepo
	registers *memRegisterRepo
	denoms    []model.Denomination
	pub       *recordingPublisher
	ledger    service.RegisterLedger
	recorder  service.TransactionRecorder
}

func newLedgerEnv() *ledgerEnv {
	env := &ledgerEnv{
		repo:      newMemSessionRepo(),
		registers: &memRegisterRepo{registers: map[uuid.UUID]model.CashRegister{}},
		denoms:    usdDenominations(),
		pub:       &recordingPublisher{},
	}
	denomSvc := service.NewDenominationService(&memDenominationRepo{denoms: env.denoms}, "USD")
	env.ledger = service.NewRegisterLedger(env.repo, env.registers, denomSvc, env.pub, service.DefaultLedgerPolicy())
	env.recorder = service.NewTransactionRecorder(env.repo, service.RecorderPolicy{CurrencyDecimals: 2})
	return env
}

func (e *ledgerEnv) addRegister(active bool, float string) model.CashRegister {
	reg := model.CashRegister{
		ID: uuid.New(), Name: "Front", Code: "REG-" + uuid.NewString()[:4],
		StoreID: uuid.New(), Active: active, InitialFloat: d(float),
	}
	e.registers.registers[reg.ID] = reg
	return reg
}

func (e *ledgerEnv) open(t *testing.T, operator uuid.UUID, opening string) *dto.SessionResponse {
	t.Helper()
	s, err := e.ledger.Open(context.Background(), operator, nil, dto.OpenSessionRequest{OpeningCash: dp(opening)})
	require.NoError(t, err)
	return s
}

func (e *ledgerEnv) record(t *testing.T, operator uuid.UUID, sessionID, typ, method, amount string) {
	t.Helper()
	_, err := e.recorder.Record(context.Background(), operator, dto.RecordTransactionRequest{
		SessionID: sessionID, Type: typ, PaymentMethod: method, Amount: d(amount),
	})
	require.NoError(t, err)
}

func assertValidation(t *testing.T, err error, field string) {
	t.Helper()
	ve, ok := service.AsValidation(err)
	require.True(t, ok, "expected a validation error, got %v", err)
	assert.Equal(t, field, ve.Field)
}

// ── Open ─────────────────────────────────────────────────────────────────────

func TestLedger_OpenCreatesOpenSession(t *testing.T) {
	env := newLedgerEnv()
	operator := uuid.New()

	s := env.open(t, operator, "500")

	assert.Equal(t, "open", s.Status)
	assert.Equal(t, operator.String(), s.OperatorID)
	assert.Regexp(t, `^SES-\d{8}$`, s.Code)
	assert.Equal(t, "500", s.OpeningCash.String())
	assert.Nil(t, s.ClosedAt)
	assert.Nil(t, s.Summary, "an open session exposes no derived totals")
}

func TestLedger_OpenTwiceFails(t *testing.T) {
	env := newLedgerEnv()
	operator := uuid.New()
	env.open(t, operator, "100")

	_, err := env.ledger.Open(context.Background(), operator, nil, dto.OpenSessionRequest{OpeningCash: dp("50")})
	assert.ErrorIs(t, err, service.ErrAlreadyOpen)

	// A different operator is unaffected.
	env.open(t, uuid.New(), "50")
}

func TestLedger_ConcurrentOpensYieldOneSession(t *testing.T) {
	env := newLedgerEnv()
	operator := uuid.New()
	const attempts = 16

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.ledger.Open(context.Background(), operator, nil, dto.OpenSessionRequest{OpeningCash: dp("10")})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, already int
	for err := range results {
		if err == nil {
			ok++
		} else if assert.ErrorIs(t, err, service.ErrAlreadyOpen) {
			already++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, already)
}

func TestLedger_OpenRequiresCashWithoutRegister(t *testing.T) {
	env := newLedgerEnv()
	_, err := env.ledger.Open(context.Background(), uuid.New(), nil, dto.OpenSessionRequest{})
	assertValidation(t, err, "opening_cash")

	_, err = env.ledger.Open(context.Background(), uuid.New(), nil, dto.OpenSessionRequest{OpeningCash: dp("-1")})
	assertValidation(t, err, "opening_cash")

	_, err = env.ledger.Open(context.Background(), uuid.New(), nil, dto.OpenSessionRequest{OpeningCash: dp("10.005")})
	assertValidation(t, err, "opening_cash")
}

func TestLedger_OpenWithRegisterDefaultsFloatAndStore(t *testing.T) {
	env := newLedgerEnv()
	reg := env.addRegister(true, "150")
	claimStore := uuid.New()

	s, err := env.ledger.Open(context.Background(), uuid.New(), &claimStore, dto.OpenSessionRequest{
		RegisterID: sp(reg.ID.String()),
	})
	require.NoError(t, err)

	assert.Equal(t, "150", s.OpeningCash.String())
	require.NotNil(t, s.RegisterID)
	assert.Equal(t, reg.ID.String(), *s.RegisterID)
	require.NotNil(t, s.StoreID)
	assert.Equal(t, reg.StoreID.String(), *s.StoreID, "register's store wins over the token claim")

	// An explicit amount overrides the float.
	s2, err := env.ledger.Open(context.Background(), uuid.New(), nil, dto.OpenSessionRequest{
		RegisterID: sp(reg.ID.String()), OpeningCash: dp("75"),
	})
	require.NoError(t, err)
	assert.Equal(t, "75", s2.OpeningCash.String())
}

func TestLedger_OpenRejectsUnknownOrInactiveRegister(t *testing.T) {
	env := newLedgerEnv()
	inactive := env.addRegister(false, "0")

	_, err := env.ledger.Open(context.Background(), uuid.New(), nil, dto.OpenSessionRequest{
		RegisterID: sp(inactive.ID.String()),
	})
	assertValidation(t, err, "register_id")

	_, err = env.ledger.Open(context.Background(), uuid.New(), nil, dto.OpenSessionRequest{
		RegisterID: sp(uuid.NewString()), OpeningCash: dp("1"),
	})
	assertValidation(t, err, "register_id")
}

func TestLedger_OpeningDenominationsMustMatch(t *testing.T) {
	env := newLedgerEnv()
	hundred, twenty := env.denoms[0], env.denoms[2]

	_, err := env.ledger.Open(context.Background(), uuid.New(), nil, dto.OpenSessionRequest{
		OpeningCash:          dp("120"),
		OpeningDenominations: map[uuid.UUID]int{hundred.ID: 1},
	})
	assertValidation(t, err, "opening_denominations")

	s, err := env.ledger.Open(context.Background(), uuid.New(), nil, dto.OpenSessionRequest{
		OpeningCash:          dp("120"),
		OpeningDenominations: map[uuid.UUID]int{hundred.ID: 1, twenty.ID: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, s.OpeningDenominations[twenty.ID])
}

// ── Close ────────────────────────────────────────────────────────────────────

func TestLedger_FullShiftReconciles(t *testing.T) {
	env := newLedgerEnv()
	operator := uuid.New()
	s := env.open(t, operator, "500")

	env.record(t, operator, s.ID, "sale", "cash", "120.50")
	env.record(t, operator, s.ID, "sale", "cash", "79.50")
	env.record(t, operator, s.ID, "sale", "card", "300")
	env.record(t, operator, s.ID, "sale", "digital_wallet", "45")
	env.record(t, operator, s.ID, "refund", "cash", "20")
	env.record(t, operator, s.ID, "withdrawal", "cash", "100")
	env.record(t, operator, s.ID, "deposit", "cash", "30")

	closed, err := env.ledger.Close(context.Background(), uuid.MustParse(s.ID), operator, dto.CloseSessionRequest{
		ClosingCash: dp("610"), Notes: sp("all good"),
	})
	require.NoError(t, err)

	assert.Equal(t, "closed", closed.Status)
	require.NotNil(t, closed.ClosedAt)
	require.NotNil(t, closed.Summary)
	sum := closed.Summary
	assert.Equal(t, "610", sum.ExpectedCash.String())
	assert.True(t, sum.CashDifference.IsZero())
	assert.Equal(t, 7, sum.TotalTransactions)
	assert.Equal(t, "545", sum.TotalSales.String())
	assert.Equal(t, "200", sum.CashSales.String())
	assert.Equal(t, "300", sum.CardSales.String())
	assert.Equal(t, "45", sum.OtherSales.String())
	assert.Equal(t, "20", sum.CashRefunds.String())
	assert.Equal(t, "100", sum.Withdrawals.String())
	assert.Equal(t, "30", sum.Deposits.String())
	assert.Equal(t, "normal", sum.DiscrepancyLevel)

	require.Len(t, env.pub.published, 1)
	assert.Equal(t, closed.ID, env.pub.published[0].ID)
}

func TestLedger_DiscrepancyClassification(t *testing.T) {
	cases := []struct {
		counted string
		diff    string
		pct     string
		level   string
	}{
		{"205", "5", "2.5", "warning"},
		{"200", "0", "0", "normal"},
		{"198", "-2", "-1", "normal"},
		{"150", "-50", "-25", "critical"},
	}
	for _, tc := range cases {
		t.Run(tc.counted, func(t *testing.T) {
			env := newLedgerEnv()
			operator := uuid.New()
			s := env.open(t, operator, "100")
			env.record(t, operator, s.ID, "sale", "cash", "100")

			closed, err := env.ledger.Close(context.Background(), uuid.MustParse(s.ID), operator, dto.CloseSessionRequest{
				ClosingCash: dp(tc.counted),
			})
			require.NoError(t, err)
			assert.Equal(t, tc.diff, closed.Summary.CashDifference.String())
			assert.Equal(t, tc.pct, closed.Summary.DiscrepancyPct.String())
			assert.Equal(t, tc.level, closed.Summary.DiscrepancyLevel)
		})
	}
}

func TestLedger_DiscrepancyAgainstZeroExpected(t *testing.T) {
	env := newLedgerEnv()
	operator := uuid.New()
	s := env.open(t, operator, "0")

	closed, err := env.ledger.Close(context.Background(), uuid.MustParse(s.ID), operator, dto.CloseSessionRequest{
		ClosingCash: dp("5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "100", closed.Summary.DiscrepancyPct.String())
	assert.Equal(t, "critical", closed.Summary.DiscrepancyLevel)
}

func TestLedger_DiscrepancyAgainstTinyExpectedIsClamped(t *testing.T) {
	env := newLedgerEnv()
	operator := uuid.New()
	s := env.open(t, operator, "0")
	env.record(t, operator, s.ID, "sale", "cash", "0.50")

	closed, err := env.ledger.Close(context.Background(), uuid.MustParse(s.ID), operator, dto.CloseSessionRequest{
		ClosingCash: dp("1000"),
	})
	require.NoError(t, err)
	assert.Equal(t, "999.5", closed.Summary.CashDifference.String())
	assert.Equal(t, model.MaxDiscrepancyPct.String(), closed.Summary.DiscrepancyPct.String())
	assert.Equal(t, "critical", closed.Summary.DiscrepancyLevel)

	s = env.open(t, operator, "100000")
	closed, err = env.ledger.Close(context.Background(), uuid.MustParse(s.ID), operator, dto.CloseSessionRequest{
		ClosingCash: dp("0"),
	})
	require.NoError(t, err)
	assert.Equal(t, "-100", closed.Summary.DiscrepancyPct.String(), "shortages never exceed -100%")
}

func TestLedger_CloseRejectsOtherOperatorAndSecondClose(t *testing.T) {
	env := newLedgerEnv()
	operator := uuid.New()
	s := env.open(t, operator, "10")
	id := uuid.MustParse(s.ID)

	_, err := env.ledger.Close(context.Background(), id, uuid.New(), dto.CloseSessionRequest{ClosingCash: dp("10")})
	assert.ErrorIs(t, err, service.ErrNotFoundOrClosed)

	_, err = env.ledger.Close(context.Background(), id, operator, dto.CloseSessionRequest{ClosingCash: dp("10")})
	require.NoError(t, err)

	_, err = env.ledger.Close(context.Background(), id, operator, dto.CloseSessionRequest{ClosingCash: dp("10")})
	assert.ErrorIs(t, err, service.ErrNotFoundOrClosed)

	_, err = env.ledger.Close(context.Background(), uuid.New(), operator, dto.CloseSessionRequest{ClosingCash: dp("10")})
	assert.ErrorIs(t, err, service.ErrNotFoundOrClosed)
}

func TestLedger_CloseValidatesInput(t *testing.T) {
	env := newLedgerEnv()
	operator := uuid.New()
	s := env.open(t, operator, "20")
	id := uuid.MustParse(s.ID)

	_, err := env.ledger.Close(context.Background(), id, operator, dto.CloseSessionRequest{})
	assertValidation(t, err, "closing_cash")

	_, err = env.ledger.Close(context.Background(), id, operator, dto.CloseSessionRequest{
		ClosingCash:          dp("20"),
		ClosingDenominations: map[uuid.UUID]int{env.denoms[3].ID: 1}, // one 10 note
	})
	assertValidation(t, err, "closing_denominations")

	// Nothing was closed by the rejected attempts.
	active, err := env.ledger.Active(context.Background(), operator)
	require.NoError(t, err)
	assert.Equal(t, s.ID, active.ID)
}

func TestLedger_FrozenAfterClose(t *testing.T) {
	env := newLedgerEnv()
	operator := uuid.New()
	s := env.open(t, operator, "0")
	env.record(t, operator, s.ID, "sale", "cash", "10")

	closed, err := env.ledger.Close(context.Background(), uuid.MustParse(s.ID), operator, dto.CloseSessionRequest{ClosingCash: dp("10")})
	require.NoError(t, err)

	_, err = env.recorder.Record(context.Background(), operator, dto.RecordTransactionRequest{
		SessionID: s.ID, Type: "sale", PaymentMethod: "cash", Amount: d("5"),
	})
	assert.ErrorIs(t, err, service.ErrFrozenSession)

	again, err := env.ledger.Get(context.Background(), uuid.MustParse(s.ID))
	require.NoError(t, err)
	assert.Equal(t, closed.Summary.ExpectedCash.String(), again.Summary.ExpectedCash.String())
	assert.Equal(t, 1, again.Summary.TotalTransactions)
}

func TestLedger_PublishFailureDoesNotFailClose(t *testing.T) {
	env := newLedgerEnv()
	env.pub.err = errPublish
	operator := uuid.New()
	s := env.open(t, operator, "0")

	closed, err := env.ledger.Close(context.Background(), uuid.MustParse(s.ID), operator, dto.CloseSessionRequest{ClosingCash: dp("0")})
	require.NoError(t, err)
	assert.Equal(t, "closed", closed.Status)
}

// ── Queries ──────────────────────────────────────────────────────────────────

func TestLedger_HistoryNewestFirstWithLimit(t *testing.T) {
	env := newLedgerEnv()
	operator := uuid.New()
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		require.NoError(t, env.repo.Create(context.Background(), &model.Session{
			OperatorID: operator, Status: model.SessionClosed,
			OpenedAt: base.Add(time.Duration(i) * time.Hour), OpeningCash: d("0"),
		}))
	}

	got, err := env.ledger.History(context.Background(), dto.SessionHistoryFilter{OperatorID: operator.String()})
	require.NoError(t, err)
	require.Len(t, got, 20, "default limit")
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].OpenedAt > got[i].OpenedAt, "newest first")
	}

	got, err = env.ledger.History(context.Background(), dto.SessionHistoryFilter{OperatorID: operator.String(), Limit: 3})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestLedger_HistoryFilterByRegister(t *testing.T) {
	env := newLedgerEnv()
	reg := env.addRegister(true, "0")
	s, err := env.ledger.Open(context.Background(), uuid.New(), nil, dto.OpenSessionRequest{RegisterID: sp(reg.ID.String())})
	require.NoError(t, err)
	env.open(t, uuid.New(), "0")

	got, err := env.ledger.History(context.Background(), dto.SessionHistoryFilter{RegisterID: reg.ID.String()})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, s.ID, got[0].ID)
}

func TestLedger_HistoryNeedsExactlyOneFilter(t *testing.T) {
	env := newLedgerEnv()
	_, err := env.ledger.History(context.Background(), dto.SessionHistoryFilter{})
	assertValidation(t, err, "operator_id")

	_, err = env.ledger.History(context.Background(), dto.SessionHistoryFilter{
		OperatorID: uuid.NewString(), RegisterID: uuid.NewString(),
	})
	assertValidation(t, err, "operator_id")
}

func TestLedger_ActiveGetAndTransactions(t *testing.T) {
	env := newLedgerEnv()
	operator := uuid.New()

	_, err := env.ledger.Active(context.Background(), operator)
	assert.ErrorIs(t, err, service.ErrSessionNotFound)

	s := env.open(t, operator, "5")
	env.record(t, operator, s.ID, "sale", "card", "12")
	env.record(t, operator, s.ID, "deposit", "cash", "3")

	active, err := env.ledger.Active(context.Background(), operator)
	require.NoError(t, err)
	assert.Equal(t, s.ID, active.ID)

	txs, err := env.ledger.Transactions(context.Background(), uuid.MustParse(s.ID))
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "sale", txs[0].Type)
	assert.Equal(t, "deposit", txs[1].Type)
	assert.Less(t, txs[0].Code, txs[1].Code)

	_, err = env.ledger.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
	_, err = env.ledger.Transactions(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
}
