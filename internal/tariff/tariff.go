// Package tariff computes airport fees from a normalized billing input.
// Every function is pure: same input, byte-identical output.
package tariff

import (
	"math"
	"time"

	"github.com/iurnickita/airbilling/internal/model"
)

// Item codes in the fixed assembly order
const (
	CodeLanding           = "ATT"
	CodeFuel              = "CARB"
	CodeParking           = "STAT"
	CodeLightingArrival   = "BAL-ARR"
	CodeLightingDeparture = "BAL-DEP"
	CodeFreight           = "FRET"
	CodePassenger         = "PAX"
	CodeSecurity          = "SUR"
	CodeOvertime          = "HS"
)

// Tonnage rounds up: a started tonne is a billed tonne.
func Tonnage(mtowKg int) int {
	return int(math.Ceil(float64(mtowKg) / 1000))
}

// LandingFee multiplies the started tonnage by the bracket rate of the
// traffic type. Callers must pass a resolved positive MTOW.
func LandingFee(mtowKg int, trafficType string) float64 {
	return float64(Tonnage(mtowKg)) * landingRate(mtowKg, trafficType)
}

// ParkingFee bills started tonne-hours beyond the free allowance.
// Missing timestamps mean no measurable stay, so no fee.
func ParkingFee(mtowKg int, arrivalAt, departureAt *time.Time) float64 {
	if arrivalAt == nil || departureAt == nil {
		return 0
	}
	durationHours := departureAt.Sub(*arrivalAt).Hours()
	billableHours := durationHours - FreeParkingHours
	if billableHours <= 0 {
		return 0
	}
	return math.Ceil(billableHours) * float64(Tonnage(mtowKg)) * ParkingRatePerTonneHour
}

// LightingFee is a fixed EUR fee converted at the pegged rate and rounded
// to the nearest whole unit. Charged once per flagged direction.
func LightingFee(mtowKg int) float64 {
	feeEUR := lightingFeeBelowEUR
	if mtowKg > lightingMTOWThresholdKg {
		feeEUR = lightingFeeAboveEUR
	}
	return math.Round(feeEUR * eurExchangeRate)
}

func PassengerFee(paxCount int, trafficType string) float64 {
	return float64(paxCount) * passengerRate(trafficType)
}

// SecurityFee matches PassengerFee. Same rate table, separate line.
func SecurityFee(paxCount int, trafficType string) float64 {
	return float64(paxCount) * passengerRate(trafficType)
}

// CalculateAllItems assembles the applicable items in the fixed sequence
// landing, fuel, parking, arrival lighting, departure lighting, freight,
// passenger, security, overtime. The order and the resulting sort numbers
// are a rendering contract and must not be changed.
func CalculateAllItems(in model.BillingCalculationInput) []model.InvoiceItem {
	var items []model.InvoiceItem
	sortOrder := 0
	add := func(code, label string, quantity, unitPrice, total float64, group string) {
		sortOrder++
		items = append(items, model.InvoiceItem{
			Code:      code,
			Label:     label,
			Quantity:  quantity,
			UnitPrice: unitPrice,
			Total:     total,
			Group:     group,
			SortOrder: sortOrder,
		})
	}

	if fee := LandingFee(in.MTOWKg, in.TrafficType); fee > 0 {
		tonnage := float64(Tonnage(in.MTOWKg))
		add(CodeLanding, "Landing fee", tonnage, fee/tonnage, fee, model.GroupAero)
	}

	if in.FuelLiters > 0 && in.FuelRate > 0 {
		add(CodeFuel, "Fuel", in.FuelLiters, in.FuelRate, in.FuelLiters*in.FuelRate, model.GroupOther)
	}

	if fee := ParkingFee(in.MTOWKg, in.ArrivalAt, in.DepartureAt); fee > 0 {
		tonneHours := fee / ParkingRatePerTonneHour
		add(CodeParking, "Parking fee", tonneHours, ParkingRatePerTonneHour, fee, model.GroupAero)
	}

	if in.LightingArrival {
		fee := LightingFee(in.MTOWKg)
		add(CodeLightingArrival, "Arrival lighting", 1, fee, fee, model.GroupAero)
	}
	if in.LightingDeparture {
		fee := LightingFee(in.MTOWKg)
		add(CodeLightingDeparture, "Departure lighting", 1, fee, fee, model.GroupAero)
	}

	if in.FreightKg > 0 && in.FreightRate > 0 {
		add(CodeFreight, "Freight handling", in.FreightKg, in.FreightRate, in.FreightKg*in.FreightRate, model.GroupEsc)
	}

	// full and half fare counts are billed on one line; transit pax are free
	if pax := in.PaxFull + in.PaxHalf; pax > 0 {
		paxFee := PassengerFee(pax, in.TrafficType)
		add(CodePassenger, "Passenger fee", float64(pax), paxFee/float64(pax), paxFee, model.GroupEsc)

		secFee := SecurityFee(pax, in.TrafficType)
		add(CodeSecurity, "Security fee", float64(pax), secFee/float64(pax), secFee, model.GroupSurete)
	}

	if in.OvertimeHours > 0 && in.OvertimeRate > 0 {
		add(CodeOvertime, "Overtime", in.OvertimeHours, in.OvertimeRate, in.OvertimeHours*in.OvertimeRate, model.GroupOther)
	}

	return items
}

// Total sums the raw item totals. Rounding happens at the display boundary.
func Total(items []model.InvoiceItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Total
	}
	return total
}

// GroupTotals always returns all four groups, zero-filled.
func GroupTotals(items []model.InvoiceItem) map[string]float64 {
	totals := map[string]float64{
		model.GroupAero:   0,
		model.GroupEsc:    0,
		model.GroupSurete: 0,
		model.GroupOther:  0,
	}
	for _, item := range items {
		totals[item.Group] += item.Total
	}
	return totals
}
