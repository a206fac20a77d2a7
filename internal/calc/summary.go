package calc

import (
	"cashdesk/internal/model"

	"github.com/shopspring/decimal"
)

// Summary is the derived drawer position of a session.
type Summary struct {
	TotalTransactions int
	TotalSales        decimal.Decimal
	CashSales         decimal.Decimal
	CardSales         decimal.Decimal
	OtherSales        decimal.Decimal
	Refunds           decimal.Decimal
	CashRefunds       decimal.Decimal
	Withdrawals       decimal.Decimal
	Deposits          decimal.Decimal
	ExpectedCash      decimal.Decimal
}

// Summarize aggregates a session's ledger.
//
//	expected = opening + cash sales + deposits − withdrawals − cash refunds
//
// The result depends only on the set of transactions, not their order.
// Withdrawals and deposits move drawer cash regardless of the recorded
// payment method.
func Summarize(openingCash decimal.Decimal, txs []model.Transaction) Summary {
	s := Summary{
		TotalTransactions: len(txs),
		TotalSales:        decimal.Zero,
		CashSales:         decimal.Zero,
		CardSales:         decimal.Zero,
		Refunds:           decimal.Zero,
		CashRefunds:       decimal.Zero,
		Withdrawals:       decimal.Zero,
		Deposits:          decimal.Zero,
	}

	for _, t := range txs {
		switch t.Type {
		case model.TxSale:
			s.TotalSales = s.TotalSales.Add(t.Amount)
			switch t.PaymentMethod {
			case model.PayCash:
				s.CashSales = s.CashSales.Add(t.Amount)
			case model.PayCard:
				s.CardSales = s.CardSales.Add(t.Amount)
			}
		case model.TxRefund:
			s.Refunds = s.Refunds.Add(t.Amount)
			if t.PaymentMethod == model.PayCash {
				s.CashRefunds = s.CashRefunds.Add(t.Amount)
			}
		case model.TxWithdrawal:
			s.Withdrawals = s.Withdrawals.Add(t.Amount)
		case model.TxDeposit:
			s.Deposits = s.Deposits.Add(t.Amount)
		}
	}

	s.OtherSales = s.TotalSales.Sub(s.CashSales).Sub(s.CardSales)
	s.ExpectedCash = openingCash.
		Add(s.CashSales).
		Add(s.Deposits).
		Sub(s.Withdrawals).
		Sub(s.CashRefunds)
	return s
}
