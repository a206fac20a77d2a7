package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cashdesk/internal/calc"
	"cashdesk/internal/dto"
	"cashdesk/internal/model"
	"cashdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// LedgerPolicy carries the configuration the ledger needs. It is passed in
// explicitly; the ledger reads no global state.
type LedgerPolicy struct {
	Currency         string
	CurrencyDecimals int32

	// Absolute discrepancy percentages bounding the normal and warning levels.
	WarningPct  decimal.Decimal
	CriticalPct decimal.Decimal

	HistoryDefaultLimit int
	HistoryMaxLimit     int
}

func DefaultLedgerPolicy() LedgerPolicy {
	return LedgerPolicy{
		Currency:            "USD",
		CurrencyDecimals:    2,
		WarningPct:          decimal.NewFromInt(1),
		CriticalPct:         decimal.NewFromInt(5),
		HistoryDefaultLimit: 20,
		HistoryMaxLimit:     100,
	}
}

// SessionReportPublisher receives closed sessions for out-of-band reporting.
type SessionReportPublisher interface {
	PublishSessionClosed(ctx context.Context, s dto.SessionResponse) error
}

// RegisterLedger manages the lifecycle of cashier sessions:
// no_session → open → closed. closed is terminal.
type RegisterLedger interface {
	Open(ctx context.Context, operatorID uuid.UUID, storeID *uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionResponse, error)
	Close(ctx context.Context, sessionID, operatorID uuid.UUID, req dto.CloseSessionRequest) (*dto.SessionResponse, error)
	History(ctx context.Context, filter dto.SessionHistoryFilter) ([]dto.SessionResponse, error)
	Active(ctx context.Context, operatorID uuid.UUID) (*dto.SessionResponse, error)
	Get(ctx context.Context, sessionID uuid.UUID) (*dto.SessionResponse, error)
	Transactions(ctx context.Context, sessionID uuid.UUID) ([]dto.TransactionResponse, error)
}

type registerLedger struct {
	sessions  repository.SessionRepository
	registers repository.RegisterRepository
	denoms    DenominationService
	publisher SessionReportPublisher // optional
	policy    LedgerPolicy
	now       func() time.Time
}

// NewRegisterLedger wires the ledger. publisher may be nil.
func NewRegisterLedger(
	sessions repository.SessionRepository,
	registers repository.RegisterRepository,
	denoms DenominationService,
	publisher SessionReportPublisher,
	policy LedgerPolicy,
) RegisterLedger {
	return &registerLedger{
		sessions:  sessions,
		registers: registers,
		denoms:    denoms,
		publisher: publisher,
		policy:    policy,
		now:       time.Now,
	}
}

// ── Open ──────────────────────────────────────────────────────────────────────

func (l *registerLedger) Open(ctx context.Context, operatorID uuid.UUID, storeID *uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionResponse, error) {
	sess := &model.Session{
		OperatorID:   operatorID,
		StoreID:      storeID,
		Status:       model.SessionOpen,
		OpeningNotes: req.Notes,
	}

	var opening *decimal.Decimal
	if req.RegisterID != nil {
		regID, err := uuid.Parse(*req.RegisterID)
		if err != nil {
			return nil, invalid("register_id", "not a valid id")
		}
		reg, err := l.registers.FindByID(ctx, regID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid("register_id", "unknown register")
		}
		if err != nil {
			return nil, fmt.Errorf("find register: %w", err)
		}
		if !reg.Active {
			return nil, invalid("register_id", "register is inactive")
		}
		sess.RegisterID = &reg.ID
		sess.StoreID = &reg.StoreID
		initial := reg.InitialFloat
		opening = &initial
	}
	if req.OpeningCash != nil {
		opening = req.OpeningCash
	}
	if opening == nil {
		return nil, invalid("opening_cash", "required when no register is given")
	}
	if err := checkMoney("opening_cash", *opening, l.policy.CurrencyDecimals); err != nil {
		return nil, err
	}
	sess.OpeningCash = *opening

	if len(req.OpeningDenominations) > 0 {
		counts := model.DenominationCounts(req.OpeningDenominations)
		if err := l.denoms.Verify(ctx, "opening_denominations", l.policy.Currency, counts, sess.OpeningCash); err != nil {
			return nil, err
		}
		sess.OpeningDenominations = counts
	}

	sess.OpenedAt = l.now().UTC()
	if err := l.sessions.Create(ctx, sess); err != nil {
		if errors.Is(err, repository.ErrOpenSessionExists) {
			return nil, ErrAlreadyOpen
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	log.Info().
		Str("session_id", sess.ID.String()).
		Str("code", sess.Code).
		Str("operator_id", operatorID.String()).
		Str("opening_cash", sess.OpeningCash.String()).
		Msg("cash session opened")

	resp := toSessionResponse(sess)
	return &resp, nil
}

// ── Close ─────────────────────────────────────────────────────────────────────
// Blind count: the expected amount is computed only after the operator has
// declared what is in the drawer.

func (l *registerLedger) Close(ctx context.Context, sessionID, operatorID uuid.UUID, req dto.CloseSessionRequest) (*dto.SessionResponse, error) {
	if req.ClosingCash == nil {
		return nil, invalid("closing_cash", "required")
	}
	counted := *req.ClosingCash
	if err := checkMoney("closing_cash", counted, l.policy.CurrencyDecimals); err != nil {
		return nil, err
	}

	var counts model.DenominationCounts
	if len(req.ClosingDenominations) > 0 {
		counts = model.DenominationCounts(req.ClosingDenominations)
		if err := l.denoms.Verify(ctx, "closing_denominations", l.policy.Currency, counts, counted); err != nil {
			return nil, err
		}
	}

	closedAt := l.now().UTC()
	sess, err := l.sessions.Close(ctx, sessionID, operatorID, func(s *model.Session, txs []model.Transaction) error {
		sum := calc.Summarize(s.OpeningCash, txs)
		diff := counted.Sub(sum.ExpectedCash)
		pct := discrepancyPct(diff, sum.ExpectedCash)
		level := classifyDiscrepancy(pct, l.policy)

		s.ClosingCash = &counted
		s.ClosingDenominations = counts
		s.ClosingNotes = req.Notes
		s.ExpectedCash = &sum.ExpectedCash
		s.CashDifference = &diff
		s.TotalSales = &sum.TotalSales
		s.TotalTransactions = &sum.TotalTransactions
		s.CashSales = &sum.CashSales
		s.CardSales = &sum.CardSales
		s.OtherSales = &sum.OtherSales
		s.CashRefunds = &sum.CashRefunds
		s.Withdrawals = &sum.Withdrawals
		s.Deposits = &sum.Deposits
		s.DiscrepancyPct = &pct
		s.DiscrepancyLevel = &level
		s.ClosedAt = &closedAt
		s.Status = model.SessionClosed
		return nil
	})
	if errors.Is(err, repository.ErrSessionNotOpen) {
		return nil, ErrNotFoundOrClosed
	}
	if err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}

	evt := log.Info()
	if *sess.DiscrepancyLevel == model.DiscrepancyCritical {
		evt = log.Warn()
	}
	evt.Str("session_id", sess.ID.String()).
		Str("code", sess.Code).
		Str("expected_cash", sess.ExpectedCash.String()).
		Str("closing_cash", counted.String()).
		Str("difference", sess.CashDifference.String()).
		Str("level", string(*sess.DiscrepancyLevel)).
		Msg("cash session closed")

	resp := toSessionResponse(sess)
	if l.publisher != nil {
		// Reporting is best effort; the close is already committed.
		if err := l.publisher.PublishSessionClosed(ctx, resp); err != nil {
			log.Warn().Err(err).Str("session_id", sess.ID.String()).Msg("session report not queued")
		}
	}
	return &resp, nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (l *registerLedger) History(ctx context.Context, filter dto.SessionHistoryFilter) ([]dto.SessionResponse, error) {
	if (filter.OperatorID == "") == (filter.RegisterID == "") {
		return nil, invalid("operator_id", "exactly one of operator_id or register_id is required")
	}

	var f repository.SessionFilter
	if filter.OperatorID != "" {
		id, err := uuid.Parse(filter.OperatorID)
		if err != nil {
			return nil, invalid("operator_id", "not a valid id")
		}
		f.OperatorID = &id
	} else {
		id, err := uuid.Parse(filter.RegisterID)
		if err != nil {
			return nil, invalid("register_id", "not a valid id")
		}
		f.RegisterID = &id
	}

	switch {
	case filter.Limit < 0:
		return nil, invalid("limit", "must be positive")
	case filter.Limit == 0:
		f.Limit = l.policy.HistoryDefaultLimit
	case filter.Limit > l.policy.HistoryMaxLimit:
		f.Limit = l.policy.HistoryMaxLimit
	default:
		f.Limit = filter.Limit
	}

	sessions, err := l.sessions.History(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("session history: %w", err)
	}
	out := make([]dto.SessionResponse, len(sessions))
	for i := range sessions {
		out[i] = toSessionResponse(&sessions[i])
	}
	return out, nil
}

func (l *registerLedger) Active(ctx context.Context, operatorID uuid.UUID) (*dto.SessionResponse, error) {
	sess, err := l.sessions.FindOpenByOperator(ctx, operatorID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find open session: %w", err)
	}
	resp := toSessionResponse(sess)
	return &resp, nil
}

func (l *registerLedger) Get(ctx context.Context, sessionID uuid.UUID) (*dto.SessionResponse, error) {
	sess, err := l.sessions.FindByID(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	resp := toSessionResponse(sess)
	return &resp, nil
}

func (l *registerLedger) Transactions(ctx context.Context, sessionID uuid.UUID) ([]dto.TransactionResponse, error) {
	if _, err := l.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	txs, err := l.sessions.ListTransactions(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]dto.TransactionResponse, len(txs))
	for i := range txs {
		out[i] = toTransactionResponse(&txs[i])
	}
	return out, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// discrepancyPct is diff as a percentage of expected, two decimals. Any
// difference against an expected amount of zero counts as ±100%. The result
// is clamped to ±model.MaxDiscrepancyPct so that every count can be stored.
func discrepancyPct(diff, expected decimal.Decimal) decimal.Decimal {
	if diff.IsZero() {
		return decimal.Zero
	}
	if expected.IsZero() {
		return decimal.NewFromInt(100).Mul(decimal.NewFromInt(int64(diff.Sign())))
	}
	pct := diff.Div(expected.Abs()).Mul(decimal.NewFromInt(100)).Round(2)
	if pct.Abs().GreaterThan(model.MaxDiscrepancyPct) {
		return model.MaxDiscrepancyPct.Mul(decimal.NewFromInt(int64(pct.Sign())))
	}
	return pct
}

// classifyDiscrepancy: normal up to WarningPct, warning up to CriticalPct,
// critical above.
func classifyDiscrepancy(pct decimal.Decimal, p LedgerPolicy) model.DiscrepancyLevel {
	abs := pct.Abs()
	switch {
	case abs.LessThanOrEqual(p.WarningPct):
		return model.DiscrepancyNormal
	case abs.LessThanOrEqual(p.CriticalPct):
		return model.DiscrepancyWarning
	default:
		return model.DiscrepancyCritical
	}
}
