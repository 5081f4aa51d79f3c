package tariff

import "github.com/iurnickita/airbilling/internal/model"

// Tariff constants. Bracket thresholds, rates and the lighting conversion
// are a compatibility contract: invoice regression tests and downstream
// printing depend on these exact values.

type bracket struct {
	maxMTOWKg int // 0 = no upper bound
	rate      float64
}

// Landing rate per started tonne, selected by the first bracket whose
// maxMTOWKg is not exceeded.
var landingBrackets = map[string][]bracket{
	model.TrafficDomestic: {
		{maxMTOWKg: 14000, rate: 367},
		{maxMTOWKg: 25000, rate: 1206},
		{maxMTOWKg: 75000, rate: 1809},
		{maxMTOWKg: 150000, rate: 2412},
		{maxMTOWKg: 0, rate: 3015},
	},
	model.TrafficInternational: {
		// zero rate below 14t is intentional, not a gap in the table
		{maxMTOWKg: 14000, rate: 0},
		{maxMTOWKg: 25000, rate: 1812},
		{maxMTOWKg: 75000, rate: 2412},
		{maxMTOWKg: 150000, rate: 3015},
		{maxMTOWKg: 0, rate: 3618},
	},
}

const (
	FreeParkingHours        = 2.0
	ParkingRatePerTonneHour = 33.0

	lightingMTOWThresholdKg = 75000
	lightingFeeBelowEUR     = 131.50
	lightingFeeAboveEUR     = 166.57
	eurExchangeRate         = 655.957
)

// Per-passenger rate. The security fee reads the same table on purpose;
// the rate authority publishes a single figure for both.
var passengerRates = map[string]float64{
	model.TrafficDomestic:      1000,
	model.TrafficInternational: 4500,
}

func landingRate(mtowKg int, trafficType string) float64 {
	brackets, ok := landingBrackets[trafficType]
	if !ok {
		brackets = landingBrackets[model.TrafficDomestic]
	}
	for _, b := range brackets {
		if b.maxMTOWKg == 0 || mtowKg <= b.maxMTOWKg {
			return b.rate
		}
	}
	return 0
}

func passengerRate(trafficType string) float64 {
	rate, ok := passengerRates[trafficType]
	if !ok {
		return passengerRates[model.TrafficDomestic]
	}
	return rate
}
