package service_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"cashdesk/internal/dto"
	"cashdesk/internal/model"
	"cashdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ── In-memory SessionRepository ──────────────────────────────────────────────
// One mutex stands in for the row locks and the partial unique index.

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]model.Session
	txs      []model.Transaction
	seqS     int64
	seqT     int64
	clock    time.Time
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{
		sessions: make(map[uuid.UUID]model.Session),
		clock:    time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func (r *memSessionRepo) Create(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sessions {
		if existing.OperatorID == s.OperatorID && existing.Status == model.SessionOpen {
			return repository.ErrOpenSessionExists
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.seqS++
	s.Code = fmt.Sprintf("SES-%08d", r.seqS)
	r.sessions[s.ID] = *s
	return nil
}

func (r *memSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *memSessionRepo) FindOpenByOperator(_ context.Context, operatorID uuid.UUID) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.OperatorID == operatorID && s.Status == model.SessionOpen {
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memSessionRepo) History(_ context.Context, f repository.SessionFilter) ([]model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Session
	for _, s := range r.sessions {
		if f.OperatorID != nil && s.OperatorID != *f.OperatorID {
			continue
		}
		if f.RegisterID != nil && (s.RegisterID == nil || *s.RegisterID != *f.RegisterID) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.After(out[j].OpenedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *memSessionRepo) Close(_ context.Context, id, operatorID uuid.UUID, finalize repository.FinalizeFunc) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.OperatorID != operatorID || s.Status != model.SessionOpen {
		return nil, repository.ErrSessionNotOpen
	}
	var txs []model.Transaction
	for _, t := range r.txs {
		if t.SessionID == id {
			txs = append(txs, t)
		}
	}
	if err := finalize(&s, txs); err != nil {
		return nil, err
	}
	r.sessions[id] = s
	return &s, nil
}

func (r *memSessionRepo) AppendTransaction(_ context.Context, t *model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[t.SessionID]
	if !ok {
		return repository.ErrNotFound
	}
	if !s.Status.AcceptsTransactions() {
		return repository.ErrSessionNotOpen
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.seqT++
	t.Code = fmt.Sprintf("TX-%010d", r.seqT)
	r.clock = r.clock.Add(time.Second)
	t.CreatedAt = r.clock
	r.txs = append(r.txs, *t)
	return nil
}

func (r *memSessionRepo) ListTransactions(_ context.Context, sessionID uuid.UUID) ([]model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Transaction
	for _, t := range r.txs {
		if t.SessionID == sessionID {
			out = append(out, t)
		}
	}
	return out, nil
}

// ── Reference data ───────────────────────────────────────────────────────────

type memRegisterRepo struct {
	registers map[uuid.UUID]model.CashRegister
}

func (r *memRegisterRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CashRegister, error) {
	reg, ok := r.registers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &reg, nil
}

type memDenominationRepo struct{ denoms []model.Denomination }

func (r *memDenominationRepo) ListByCurrency(_ context.Context, currency string) ([]model.Denomination, error) {
	var out []model.Denomination
	for _, d := range r.denoms {
		if d.CurrencyCode == currency {
			out = append(out, d)
		}
	}
	return out, nil
}

type memCatalog struct {
	products map[uuid.UUID]model.Product
	calls    int
}

func (c *memCatalog) FindPricing(_ context.Context, id uuid.UUID) (*model.Product, error) {
	c.calls++
	p, ok := c.products[id]
	if !ok || !p.Active {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []dto.SessionResponse
	err       error
}

func (p *recordingPublisher) PublishSessionClosed(_ context.Context, s dto.SessionResponse) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, s)
	return nil
}

var errPublish = errors.New("queue down")

// ── Helpers ──────────────────────────────────────────────────────────────────

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func sp(s string) *string { return &s }

func usdDenominations() []model.Denomination {
	mk := func(value string, typ model.DenominationType, order int) model.Denomination {
		return model.Denomination{
			ID: uuid.New(), CurrencyCode: "USD", Value: d(value), Type: typ,
			Label: "$" + value, SortOrder: order, Active: true,
		}
	}
	return []model.Denomination{
		mk("100", model.DenominationNote, 1),
		mk("50", model.DenominationNote, 2),
		mk("20", model.DenominationNote, 3),
		mk("10", model.DenominationNote, 4),
		mk("5", model.DenominationNote, 5),
		mk("1", model.DenominationNote, 6),
		mk("0.25", model.DenominationCoin, 7),
		mk("0.10", model.DenominationCoin, 8),
		mk("0.05", model.DenominationCoin, 9),
		mk("0.01", model.DenominationCoin, 10),
	}
}
