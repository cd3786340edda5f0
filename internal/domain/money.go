package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// LineTotal is unit price times quantity.
func (i CartLineItem) LineTotal() decimal.Decimal {
	return decimal.NewFromFloat(i.Price).Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SumItems totals a cart snapshot, rounded to cents.
func SumItems(items []CartLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total.Round(2)
}

// FormatBRL renders an amount the way the storefront shows prices, e.g. "R$ 100,00".
func FormatBRL(amount decimal.Decimal) string {
	return "R$ " + strings.Replace(amount.StringFixed(2), ".", ",", 1)
}

// FormatBRLGrouped adds pt-BR thousands separators, e.g. "R$ 1.234,56".
func FormatBRLGrouped(amount decimal.Decimal) string {
	fixed := amount.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	sign := ""
	if amount.IsNegative() {
		sign = "-"
	}
	return "R$ " + sign + b.String() + "," + frac
}
