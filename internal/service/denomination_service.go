package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"cashdesk/internal/calc"
	"cashdesk/internal/dto"
	"cashdesk/internal/model"
	"cashdesk/internal/repository"

	"github.com/shopspring/decimal"
)

type DenominationService interface {
	// List returns the active denominations of currency in display order.
	// An empty currency means the configured one.
	List(ctx context.Context, currency string) ([]dto.DenominationResponse, error)
	Suggest(ctx context.Context, req dto.BreakdownRequest) (*dto.BreakdownResponse, error)
	// Verify checks that a counted breakdown adds up exactly to declared.
	// field names the request field in the returned ValidationError.
	Verify(ctx context.Context, field, currency string, counts model.DenominationCounts, declared decimal.Decimal) error
}

type denominationService struct {
	repo     repository.DenominationRepository
	currency string
}

func NewDenominationService(repo repository.DenominationRepository, currency string) DenominationService {
	return &denominationService{repo: repo, currency: strings.ToUpper(currency)}
}

func (s *denominationService) resolveCurrency(currency string) string {
	if currency == "" {
		return s.currency
	}
	return strings.ToUpper(currency)
}

func (s *denominationService) List(ctx context.Context, currency string) ([]dto.DenominationResponse, error) {
	denoms, err := s.repo.ListByCurrency(ctx, s.resolveCurrency(currency))
	if err != nil {
		return nil, fmt.Errorf("list denominations: %w", err)
	}
	out := make([]dto.DenominationResponse, 0, len(denoms))
	for _, d := range denoms {
		if !d.Active {
			continue
		}
		out = append(out, dto.DenominationResponse{
			ID:           d.ID.String(),
			CurrencyCode: d.CurrencyCode,
			Value:        d.Value,
			Type:         string(d.Type),
			Label:        d.Label,
			SortOrder:    d.SortOrder,
		})
	}
	return out, nil
}

func (s *denominationService) Suggest(ctx context.Context, req dto.BreakdownRequest) (*dto.BreakdownResponse, error) {
	currency := s.resolveCurrency(req.Currency)
	denoms, err := s.repo.ListByCurrency(ctx, currency)
	if err != nil {
		return nil, fmt.Errorf("list denominations: %w", err)
	}

	b, err := calc.SuggestBreakdown(req.Amount, denoms)
	if errors.Is(err, calc.ErrNegativeInput) {
		return nil, invalid("amount", "must not be negative")
	}
	if err != nil {
		return nil, err
	}

	resp := &dto.BreakdownResponse{
		Currency:  currency,
		Amount:    req.Amount,
		Items:     make([]dto.BreakdownItem, 0, len(b.Counts)),
		Remainder: b.Remainder,
		Exact:     b.Remainder.IsZero(),
	}
	for _, d := range denoms {
		n, ok := b.Counts[d.ID]
		if !ok {
			continue
		}
		resp.Items = append(resp.Items, dto.BreakdownItem{
			DenominationID: d.ID.String(),
			Label:          d.Label,
			Value:          d.Value,
			Count:          n,
			Subtotal:       d.Value.Mul(decimal.NewFromInt(int64(n))),
		})
	}
	sort.Slice(resp.Items, func(i, j int) bool {
		return resp.Items[i].Value.GreaterThan(resp.Items[j].Value)
	})
	return resp, nil
}

func (s *denominationService) Verify(ctx context.Context, field, currency string, counts model.DenominationCounts, declared decimal.Decimal) error {
	denoms, err := s.repo.ListByCurrency(ctx, s.resolveCurrency(currency))
	if err != nil {
		return fmt.Errorf("list denominations: %w", err)
	}

	total, err := calc.DenominationTotal(counts, denoms)
	switch {
	case errors.Is(err, calc.ErrUnknownDenomination):
		return invalid(field, "unknown denomination")
	case errors.Is(err, calc.ErrNegativeCount):
		return invalid(field, "counts must not be negative")
	case err != nil:
		return err
	}

	if !total.Equal(declared) {
		return invalid(field, "breakdown totals %s but %s was declared", total.String(), declared.String())
	}
	return nil
}
