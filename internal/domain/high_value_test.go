package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckAmountThreshold(t *testing.T) {
	tests := []struct {
		name     string
		total    float64
		currency string
		want     bool
	}{
		{name: "THB above threshold", total: 2000, currency: "THB", want: true},
		{name: "THB exactly at threshold", total: 1500, currency: "THB", want: false},
		{name: "THB just above threshold", total: 1500.01, currency: "THB", want: true},
		{name: "THB below threshold", total: 1000, currency: "THB", want: false},
		{name: "Lowercase currency is not THB", total: 2000, currency: "thb", want: false},
		{name: "Other currency", total: 99999, currency: "USD", want: false},
		{name: "Empty currency", total: 2000, currency: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckAmountThreshold(tt.total, tt.currency))
		})
	}
}

func TestSumLineItemsByCurrency(t *testing.T) {
	items := []LineItem{
		{Amount: 1000, Currency: "THB"},
		{Amount: 500.5, Currency: "THB"},
		{Amount: 900, Currency: "USD"},
		{Amount: 700, Currency: "thb"},
	}

	tests := []struct {
		name     string
		items    []LineItem
		currency string
		want     float64
	}{
		{name: "Sums matching THB items only", items: items, currency: "THB", want: 1500.5},
		{name: "Sums USD", items: items, currency: "USD", want: 900},
		{name: "Case-sensitive match", items: items, currency: "thb", want: 700},
		{name: "No matching currency", items: items, currency: "KRW", want: 0},
		{name: "Nil items", items: nil, currency: "THB", want: 0},
		{
			name:     "Decimal sum avoids float drift",
			items:    []LineItem{{Amount: 0.1, Currency: "THB"}, {Amount: 0.2, Currency: "THB"}},
			currency: "THB",
			want:     0.3,
		},
		{
			name:     "Non-finite amounts are skipped",
			items:    []LineItem{{Amount: math.NaN(), Currency: "THB"}, {Amount: 10, Currency: "THB"}},
			currency: "THB",
			want:     10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SumLineItemsByCurrency(tt.items, tt.currency))
		})
	}
}
