package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// ShippingMethod is the freight mode a shipment travels by
type ShippingMethod string

const (
	ShippingMethodSea ShippingMethod = "sea"
	ShippingMethodAir ShippingMethod = "air"
)

// BoxDimensions holds the outer dimensions of a box in centimetres.
// A zero value means the dimension was not supplied.
type BoxDimensions struct {
	Width  float64 `json:"width" yaml:"width" bson:"width"`
	Height float64 `json:"height" yaml:"height" bson:"height"`
	Depth  float64 `json:"depth" yaml:"depth" bson:"depth"`
}

// CBMResult is the outcome of a volume calculation
type CBMResult struct {
	CBM                   float64 `json:"cbm" bson:"cbm"`
	ExceedsThreshold      bool    `json:"exceedsThreshold" bson:"exceedsThreshold"`
	RequiresAirConversion bool    `json:"requiresAirConversion" bson:"requiresAirConversion"`
}

var (
	cm3ToM3      = decimal.NewFromInt(CM3ToM3Divisor)
	cbmThreshold = decimal.NewFromFloat(CBMThresholdM3)
)

// CalculateSingleCBM computes the volume of one box in cubic metres,
// rounded half-up to six decimal places.
func CalculateSingleCBM(box BoxDimensions) (CBMResult, error) {
	cbm, err := boxCBM(-1, box)
	if err != nil {
		return CBMResult{}, err
	}
	return newCBMResult(cbm)
}

// CalculateTotalCBM rounds each box before summing and rounds the total
// again. An empty list yields a zero result. The first invalid box aborts
// the calculation, as does a total too large for float64.
func CalculateTotalCBM(boxes []BoxDimensions) (CBMResult, error) {
	total := decimal.Zero
	for i, box := range boxes {
		cbm, err := boxCBM(i, box)
		if err != nil {
			return CBMResult{}, err
		}
		total = total.Add(cbm)
	}
	return newCBMResult(total.Round(CBMPrecision))
}

// DetermineShippingMethod selects air freight for volumes strictly above
// the sea freight limit.
func DetermineShippingMethod(cbm float64) ShippingMethod {
	if cbm > CBMThresholdM3 {
		return ShippingMethodAir
	}
	return ShippingMethodSea
}

func boxCBM(index int, box BoxDimensions) (decimal.Decimal, error) {
	dims := [...]struct {
		field string
		value float64
	}{
		{"width", box.Width},
		{"height", box.Height},
		{"depth", box.Depth},
	}
	for _, d := range dims {
		if !isPositiveFinite(d.value) {
			return decimal.Zero, newBoxValidationError(index, d.field, d.value)
		}
	}

	volume := decimal.NewFromFloat(box.Width).
		Mul(decimal.NewFromFloat(box.Height)).
		Mul(decimal.NewFromFloat(box.Depth))

	cbm := volume.DivRound(cm3ToM3, CBMPrecision)
	if f := cbm.InexactFloat64(); math.IsInf(f, 0) {
		return decimal.Zero, newVolumeRangeError(index, f)
	}
	return cbm, nil
}

func newCBMResult(cbm decimal.Decimal) (CBMResult, error) {
	f := cbm.InexactFloat64()
	if math.IsInf(f, 0) {
		return CBMResult{}, newVolumeRangeError(-1, f)
	}
	exceeds := cbm.GreaterThan(cbmThreshold)
	return CBMResult{
		CBM:                   f,
		ExceedsThreshold:      exceeds,
		RequiresAirConversion: exceeds,
	}, nil
}

func isPositiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
