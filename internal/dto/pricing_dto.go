package dto

import "github.com/shopspring/decimal"

// TotalsLineRequest carries either a ProductID (priced from the catalog) or
// an explicit BasePrice. Explicit fields override the catalog values.
type TotalsLineRequest struct {
	ProductID        *string          `json:"product_id"         validate:"omitempty,uuid"`
	BasePrice        *decimal.Decimal `json:"base_price"         validate:"omitempty,min=0"`
	Quantity         decimal.Decimal  `json:"quantity"           validate:"min=0"`
	TaxRate          *decimal.Decimal `json:"tax_rate"           validate:"omitempty,min=0"`
	PriceIncludesTax *bool            `json:"price_includes_tax"`
}

type DiscountRequest struct {
	Source string          `json:"source" validate:"required,oneof=coupon manual"`
	Kind   string          `json:"kind"   validate:"required,oneof=fixed percent"`
	Value  decimal.Decimal `json:"value"  validate:"min=0"`
}

type TotalsRequest struct {
	Lines     []TotalsLineRequest `json:"lines"     validate:"dive"`
	Discounts []DiscountRequest   `json:"discounts" validate:"dive"`
	Shipping  *decimal.Decimal    `json:"shipping"  validate:"omitempty,min=0"`
}

type LineTotalsResponse struct {
	ProductID        *string         `json:"product_id,omitempty"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Quantity         decimal.Decimal `json:"quantity"`
	Gross            decimal.Decimal `json:"gross"`
	EffectivePrice   decimal.Decimal `json:"effective_price"`
	Tax              decimal.Decimal `json:"tax"`
	TaxRate          decimal.Decimal `json:"tax_rate"`
	PriceIncludesTax bool            `json:"price_includes_tax"`
}

// TotalsResponse values are rounded to the currency's minor unit; the
// discount ratio keeps four decimals.
type TotalsResponse struct {
	Currency              string               `json:"currency"`
	Subtotal              decimal.Decimal      `json:"subtotal"`
	Discount              decimal.Decimal      `json:"discount"`
	SubtotalAfterDiscount decimal.Decimal      `json:"subtotal_after_discount"`
	DiscountRatio         decimal.Decimal      `json:"discount_ratio"`
	TaxTotal              decimal.Decimal      `json:"tax_total"`
	TaxToAdd              decimal.Decimal      `json:"tax_to_add"`
	Shipping              decimal.Decimal      `json:"shipping"`
	GrandTotal            decimal.Decimal      `json:"grand_total"`
	Lines                 []LineTotalsResponse `json:"lines"`
}
