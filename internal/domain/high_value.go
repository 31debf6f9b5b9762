package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// LineItem is a priced entry on an order. Amount is in Currency.
type LineItem struct {
	Amount   float64 `json:"amount" yaml:"amount" bson:"amount"`
	Currency string  `json:"currency" yaml:"currency" bson:"currency"`
}

// CheckAmountThreshold reports whether total exceeds the high-value
// threshold. Only the exact currency code "THB" is considered.
func CheckAmountThreshold(total float64, currency string) bool {
	if currency != HighValueCurrency {
		return false
	}
	return total > HighValueThreshold
}

// SumLineItemsByCurrency sums the amounts of items whose currency matches
// exactly. The sum is computed in decimal to avoid float drift; NaN and
// infinite amounts are not monetary values and are skipped.
func SumLineItemsByCurrency(items []LineItem, currency string) float64 {
	return sumByCurrency(items, currency).InexactFloat64()
}

func sumByCurrency(items []LineItem, currency string) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		if item.Currency == currency && !math.IsNaN(item.Amount) && !math.IsInf(item.Amount, 0) {
			sum = sum.Add(decimal.NewFromFloat(item.Amount))
		}
	}
	return sum
}
