package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderRuleFlags(t *testing.T) {
	tests := []struct {
		name           string
		orderID        string
		boxes          []BoxDimensions
		items          []LineItem
		memberCode     *string
		wantShipping   ShippingMethod
		wantEventTypes []string
		expectError    error
	}{
		{
			name:           "Sea order emits a single evaluation event",
			orderID:        "ORD-001",
			boxes:          createSeaBoxes(),
			items:          []LineItem{{Amount: 100, Currency: "THB"}},
			memberCode:     strPtr("MEM-001"),
			wantShipping:   ShippingMethodSea,
			wantEventTypes: []string{"wms.business-rules.order-evaluated"},
		},
		{
			name:         "Air order also emits a conversion event",
			orderID:      "ORD-002",
			boxes:        createAirBoxes(),
			wantShipping: ShippingMethodAir,
			wantEventTypes: []string{
				"wms.business-rules.order-evaluated",
				"wms.business-rules.shipping-converted",
			},
		},
		{
			name:        "Order id is required",
			orderID:     "  ",
			boxes:       createSeaBoxes(),
			expectError: ErrOrderIDRequired,
		},
		{
			name:        "Invalid box fails",
			orderID:     "ORD-003",
			boxes:       []BoxDimensions{{Width: -1, Height: 1, Depth: 1}},
			expectError: ErrInvalidBoxDimensions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags, err := NewOrderRuleFlags(tt.orderID, tt.boxes, tt.items, tt.memberCode)
			if tt.expectError != nil {
				require.ErrorIs(t, err, tt.expectError)
				assert.Nil(t, flags)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tt.orderID, flags.OrderID)
			assert.Equal(t, tt.wantShipping, flags.ShippingType)
			assert.Equal(t, flags.Validation.RequiresExtraRecipient, flags.RequiresExtraRecipient)
			assert.Equal(t, flags.Validation.MemberCodeMissing, flags.MemberCodeDelayed)
			assert.False(t, flags.EvaluatedAt.IsZero())

			types := make([]string, 0, len(flags.GetDomainEvents()))
			for _, e := range flags.GetDomainEvents() {
				types = append(types, e.EventType())
				assert.Equal(t, flags.EvaluatedAt, e.OccurredAt())
			}
			assert.Equal(t, tt.wantEventTypes, types)

			flags.ClearDomainEvents()
			assert.Empty(t, flags.GetDomainEvents())
		})
	}
}
