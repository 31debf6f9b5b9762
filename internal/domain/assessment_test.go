package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func advisoryKeys(advisories []Advisory) []string {
	keys := make([]string, 0, len(advisories))
	for _, a := range advisories {
		keys = append(keys, a.Rule+":"+string(a.Severity))
	}
	return keys
}

func TestAssessShipment(t *testing.T) {
	tests := []struct {
		name          string
		shipment      Shipment
		wantKeys      []string
		wantHasErrors bool
		wantMethod    ShippingMethod
	}{
		{
			name: "Clean shipment",
			shipment: Shipment{
				Boxes:      createSeaBoxes(),
				Items:      []LineItem{{Amount: 500, Currency: "THB"}},
				MemberCode: strPtr("MEM-001"),
				WeightsKg:  []float64{12.5},
			},
			wantKeys:   []string{},
			wantMethod: ShippingMethodSea,
		},
		{
			name: "Approaching both thresholds",
			shipment: Shipment{
				Boxes:      []BoxDimensions{{Width: 260, Height: 100, Depth: 1000}},
				Items:      []LineItem{{Amount: 1300, Currency: "THB"}},
				MemberCode: strPtr("MEM-001"),
			},
			wantKeys:   []string{"cbm:warning", "highValue:info"},
			wantMethod: ShippingMethodSea,
		},
		{
			name: "Over every limit",
			shipment: Shipment{
				Boxes:     createAirBoxes(),
				Items:     []LineItem{{Amount: 2000, Currency: "THB"}},
				WeightsKg: []float64{31, 26, 10},
			},
			wantKeys:      []string{"cbm:error", "highValue:warning", "memberCode:warning", "weight:error", "weight:warning"},
			wantHasErrors: true,
			wantMethod:    ShippingMethodAir,
		},
		{
			name: "Weight exactly at the limit is only a warning",
			shipment: Shipment{
				MemberCode: strPtr("MEM-001"),
				WeightsKg:  []float64{30},
			},
			wantKeys:   []string{"weight:warning"},
			wantMethod: ShippingMethodSea,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assessment, err := AssessShipment(tt.shipment)
			require.NoError(t, err)

			assert.Equal(t, tt.wantKeys, advisoryKeys(assessment.Advisories))
			assert.Equal(t, tt.wantHasErrors, assessment.HasErrors)
			assert.Equal(t, tt.wantMethod, assessment.ShippingMethod)
		})
	}
}

func TestAssessShipment_ContractFlagsMatchValidateOrder(t *testing.T) {
	shipment := Shipment{
		Boxes: createAirBoxes(),
		Items: []LineItem{{Amount: 2000, Currency: "THB"}},
	}

	assessment, err := AssessShipment(shipment)
	require.NoError(t, err)

	validation, err := ValidateOrder(shipment.Boxes, shipment.Items, shipment.MemberCode)
	require.NoError(t, err)

	assert.Equal(t, validation, assessment.Validation)
	assert.Equal(t, 30.0, assessment.TotalCBM)
}

func TestAssessShipment_WeightIndex(t *testing.T) {
	assessment, err := AssessShipment(Shipment{
		MemberCode: strPtr("MEM-001"),
		WeightsKg:  []float64{5, 40},
	})
	require.NoError(t, err)
	require.Len(t, assessment.Advisories, 1)
	require.NotNil(t, assessment.Advisories[0].Index)
	assert.Equal(t, 1, *assessment.Advisories[0].Index)
	assert.Contains(t, assessment.Advisories[0].Message, "40.00 kg")
}

func TestAssessShipment_InvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		shipment Shipment
		wantErr  error
	}{
		{
			name:     "Non-positive weight",
			shipment: Shipment{WeightsKg: []float64{10, 0}},
			wantErr:  ErrInvalidParcelWeight,
		},
		{
			name:     "Invalid box",
			shipment: Shipment{Boxes: []BoxDimensions{{Width: 10, Height: 10}}},
			wantErr:  ErrInvalidBoxDimensions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AssessShipment(tt.shipment)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsValidationError(err))
		})
	}
}
