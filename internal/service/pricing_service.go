package service

import (
	"context"
	"errors"
	"fmt"

	"cashdesk/internal/calc"
	"cashdesk/internal/dto"
	"cashdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PricingPolicy struct {
	Currency         string
	CurrencyDecimals int32
	// DefaultTaxRate applies to lines whose request and product carry no rate.
	DefaultTaxRate decimal.Decimal
}

// PricingService prices a cart: it resolves catalog products, the default
// tax rate and discount sources, then delegates to calc.CalculateTotals.
type PricingService interface {
	CalculateTotals(ctx context.Context, req dto.TotalsRequest) (*dto.TotalsResponse, error)
}

type pricingService struct {
	catalog repository.ProductCatalog // nil disables product_id lines
	policy  PricingPolicy
}

func NewPricingService(catalog repository.ProductCatalog, policy PricingPolicy) PricingService {
	return &pricingService{catalog: catalog, policy: policy}
}

func (s *pricingService) CalculateTotals(ctx context.Context, req dto.TotalsRequest) (*dto.TotalsResponse, error) {
	lines := make([]calc.Line, len(req.Lines))
	for i, lr := range req.Lines {
		line, err := s.resolveLine(ctx, i, lr)
		if err != nil {
			return nil, err
		}
		lines[i] = line
	}

	discounts := make([]calc.Discount, len(req.Discounts))
	for i, d := range req.Discounts {
		discounts[i] = calc.Discount{Source: d.Source, Kind: calc.DiscountKind(d.Kind), Value: d.Value}
	}
	discount, err := calc.ResolveDiscount(calc.Subtotal(lines), discounts)
	if errors.Is(err, calc.ErrInvalidDiscount) {
		return nil, invalid("discounts", "%v", err)
	}
	if err != nil {
		return nil, err
	}

	shipping := decimal.Zero
	if req.Shipping != nil {
		shipping = *req.Shipping
	}

	totals, err := calc.CalculateTotals(lines, discount, shipping)
	if errors.Is(err, calc.ErrNegativeInput) {
		return nil, invalid("lines", "%v", err)
	}
	if err != nil {
		return nil, err
	}

	rounded := totals.Rounded(s.policy.CurrencyDecimals)
	resp := &dto.TotalsResponse{
		Currency:              s.policy.Currency,
		Subtotal:              rounded.Subtotal,
		Discount:              rounded.Discount,
		SubtotalAfterDiscount: rounded.SubtotalAfterDiscount,
		DiscountRatio:         rounded.DiscountRatio,
		TaxTotal:              rounded.TaxTotal,
		TaxToAdd:              rounded.TaxToAdd,
		Shipping:              rounded.Shipping,
		GrandTotal:            rounded.GrandTotal,
		Lines:                 make([]dto.LineTotalsResponse, len(rounded.Lines)),
	}
	for i, lt := range rounded.Lines {
		resp.Lines[i] = dto.LineTotalsResponse{
			ProductID:        req.Lines[i].ProductID,
			UnitPrice:        lines[i].BasePrice,
			Quantity:         lines[i].Quantity,
			Gross:            lt.Gross,
			EffectivePrice:   lt.EffectivePrice,
			Tax:              lt.Tax,
			TaxRate:          lt.TaxRatePercent,
			PriceIncludesTax: lt.PriceIncludesTax,
		}
	}
	return resp, nil
}

// resolveLine merges a request line with its catalog product. Explicit
// request fields win over catalog values.
func (s *pricingService) resolveLine(ctx context.Context, i int, lr dto.TotalsLineRequest) (calc.Line, error) {
	field := func(name string) string { return fmt.Sprintf("lines[%d].%s", i, name) }

	line := calc.Line{Quantity: lr.Quantity}
	var rate *decimal.Decimal

	if lr.ProductID != nil {
		id, err := uuid.Parse(*lr.ProductID)
		if err != nil {
			return calc.Line{}, invalid(field("product_id"), "not a valid id")
		}
		if s.catalog == nil {
			return calc.Line{}, invalid(field("product_id"), "catalog lookups are disabled")
		}
		p, err := s.catalog.FindPricing(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return calc.Line{}, invalid(field("product_id"), "unknown product")
		}
		if err != nil {
			return calc.Line{}, fmt.Errorf("find product pricing: %w", err)
		}
		line.BasePrice = p.Price
		line.PriceIncludesTax = p.PriceIncludesTax
		rate = p.TaxRate
	} else if lr.BasePrice == nil {
		return calc.Line{}, invalid(field("base_price"), "required without product_id")
	}

	if lr.BasePrice != nil {
		line.BasePrice = *lr.BasePrice
	}
	if lr.PriceIncludesTax != nil {
		line.PriceIncludesTax = *lr.PriceIncludesTax
	}
	if lr.TaxRate != nil {
		rate = lr.TaxRate
	}
	if rate != nil {
		line.TaxRatePercent = *rate
	} else {
		line.TaxRatePercent = s.policy.DefaultTaxRate
	}
	return line, nil
}
