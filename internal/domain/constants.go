package domain

// Contract thresholds. These values are shared with the order-entry clients
// and must not be made configurable.
const (
	// CBMThresholdM3 is the sea freight volume limit. Shipments strictly above
	// it are converted to air freight.
	CBMThresholdM3 = 29.0

	// HighValueThreshold is the THB amount above which an extra recipient
	// record is required for customs clearance.
	HighValueThreshold = 1500.0

	// HighValueCurrency is the only currency the high-value rule applies to.
	HighValueCurrency = "THB"

	// CM3ToM3Divisor converts cubic centimetres to cubic metres.
	CM3ToM3Divisor = 1_000_000

	// CBMPrecision is the number of decimal places CBM values are rounded to.
	CBMPrecision = 6
)

// Advisory thresholds used by AssessShipment. They never change the
// contract flags above.
const (
	CBMWarningThresholdM3  = 25.0
	HighValueInfoThreshold = 1200.0
	ParcelWeightLimitKg    = 30.0
	ParcelWeightWarningKg  = 25.0
)
