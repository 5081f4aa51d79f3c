package tariff

import (
	"testing"
	"time"

	"github.com/iurnickita/airbilling/internal/model"
	"github.com/stretchr/testify/require"
)

func TestLandingFeeBrackets(t *testing.T) {
	tests := []struct {
		name        string
		mtowKg      int
		trafficType string
		want        float64
	}{
		{"domestic lower bracket boundary", 14000, model.TrafficDomestic, 14 * 367},
		{"domestic just above boundary", 14001, model.TrafficDomestic, 15 * 1206},
		{"domestic second bracket", 22000, model.TrafficDomestic, 22 * 1206},
		{"domestic third bracket", 75000, model.TrafficDomestic, 75 * 1809},
		{"domestic fourth bracket", 150000, model.TrafficDomestic, 150 * 2412},
		{"domestic open bracket", 150001, model.TrafficDomestic, 151 * 3015},
		{"international small aircraft zero rate", 10000, model.TrafficInternational, 0},
		{"international boundary zero rate", 14000, model.TrafficInternational, 0},
		{"international second bracket", 20000, model.TrafficInternational, 20 * 1812},
		{"unknown traffic falls back to domestic", 22000, "", 22 * 1206},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, LandingFee(tt.mtowKg, tt.trafficType))
		})
	}
}

func TestLandingFeeMonotonic(t *testing.T) {
	// fee never decreases with MTOW within one traffic type
	for _, trafficType := range []string{model.TrafficDomestic, model.TrafficInternational} {
		prev := 0.0
		for mtowKg := 1000; mtowKg <= 200000; mtowKg += 1000 {
			fee := LandingFee(mtowKg, trafficType)
			require.GreaterOrEqual(t, fee, prev, "traffic %s mtow %d", trafficType, mtowKg)
			prev = fee
		}
	}
}

func TestParkingFee(t *testing.T) {
	arrival := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)

	// missing timestamps
	require.Equal(t, 0.0, ParkingFee(22000, nil, nil))
	require.Equal(t, 0.0, ParkingFee(22000, &arrival, nil))

	// within the free allowance
	departure := arrival.Add(2 * time.Hour)
	require.Equal(t, 0.0, ParkingFee(22000, &arrival, &departure))

	// 3.5h stay: ceil(1.5) = 2 billable hours, 22 tonnes
	departure = arrival.Add(3*time.Hour + 30*time.Minute)
	require.Equal(t, 2*22*33.0, ParkingFee(22000, &arrival, &departure))

	// scales with started hours
	departure = arrival.Add(3*time.Hour + 31*time.Minute)
	require.Equal(t, 2*22*33.0, ParkingFee(22000, &arrival, &departure))
	departure = arrival.Add(4*time.Hour + 1*time.Minute)
	require.Equal(t, 3*22*33.0, ParkingFee(22000, &arrival, &departure))
}

func TestLightingFee(t *testing.T) {
	// 131.50 EUR below the 75t threshold, 166.57 above, pegged rate 655.957
	require.Equal(t, 86258.0, LightingFee(22000))
	require.Equal(t, 86258.0, LightingFee(75000))
	require.Equal(t, 109263.0, LightingFee(75001))
}

func TestPassengerAndSecurityFee(t *testing.T) {
	require.Equal(t, 100*1000.0, PassengerFee(100, model.TrafficDomestic))
	require.Equal(t, 100*4500.0, PassengerFee(100, model.TrafficInternational))

	// the security fee mirrors the passenger fee exactly
	require.Equal(t, PassengerFee(73, model.TrafficDomestic), SecurityFee(73, model.TrafficDomestic))
	require.Equal(t, PassengerFee(73, model.TrafficInternational), SecurityFee(73, model.TrafficInternational))
}

func TestCalculateAllItemsDomesticRotation(t *testing.T) {
	arrival := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)
	departure := arrival.Add(3*time.Hour + 30*time.Minute)

	items := CalculateAllItems(model.BillingCalculationInput{
		MTOWKg:      22000,
		TrafficType: model.TrafficDomestic,
		ArrivalAt:   &arrival,
		DepartureAt: &departure,
		PaxFull:     80,
		PaxHalf:     20,
	})
	require.Len(t, items, 4)

	require.Equal(t, CodeLanding, items[0].Code)
	require.Equal(t, 26532.0, items[0].Total)
	require.Equal(t, CodeParking, items[1].Code)
	require.Equal(t, 1452.0, items[1].Total)
	require.Equal(t, CodePassenger, items[2].Code)
	require.Equal(t, 100000.0, items[2].Total)
	require.Equal(t, CodeSecurity, items[3].Code)
	require.Equal(t, 100000.0, items[3].Total)

	// sort order follows the fixed sequence
	for i, item := range items {
		require.Equal(t, i+1, item.SortOrder)
	}

	require.Equal(t, 227984.0, Total(items))
}

func TestCalculateAllItemsOrder(t *testing.T) {
	arrival := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	departure := arrival.Add(6 * time.Hour)

	items := CalculateAllItems(model.BillingCalculationInput{
		MTOWKg:            80000,
		TrafficType:       model.TrafficInternational,
		ArrivalAt:         &arrival,
		DepartureAt:       &departure,
		PaxFull:           120,
		PaxHalf:           10,
		FreightKg:         500,
		FreightRate:       12,
		FuelLiters:        3000,
		FuelRate:          5,
		OvertimeHours:     2,
		OvertimeRate:      15000,
		LightingArrival:   true,
		LightingDeparture: true,
	})

	wantCodes := []string{
		CodeLanding, CodeFuel, CodeParking,
		CodeLightingArrival, CodeLightingDeparture,
		CodeFreight, CodePassenger, CodeSecurity, CodeOvertime,
	}
	require.Len(t, items, len(wantCodes))
	for i, item := range items {
		require.Equal(t, wantCodes[i], item.Code)
		require.Equal(t, i+1, item.SortOrder)
	}
}

func TestCalculateAllItemsNoZeroLines(t *testing.T) {
	// international below 14t, no pax: the zero landing rate must not
	// produce a zero-total line
	items := CalculateAllItems(model.BillingCalculationInput{
		MTOWKg:      10000,
		TrafficType: model.TrafficInternational,
	})
	require.Empty(t, items)

	// passenger and security come together or not at all
	items = CalculateAllItems(model.BillingCalculationInput{
		MTOWKg:      22000,
		TrafficType: model.TrafficDomestic,
		PaxTransit:  50,
	})
	for _, item := range items {
		require.NotEqual(t, CodePassenger, item.Code)
		require.NotEqual(t, CodeSecurity, item.Code)
	}
}

func TestGroupTotals(t *testing.T) {
	arrival := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)
	departure := arrival.Add(5 * time.Hour)

	items := CalculateAllItems(model.BillingCalculationInput{
		MTOWKg:          22000,
		TrafficType:     model.TrafficDomestic,
		ArrivalAt:       &arrival,
		DepartureAt:     &departure,
		PaxFull:         80,
		PaxHalf:         20,
		FuelLiters:      1000,
		FuelRate:        4,
		LightingArrival: true,
	})

	totals := GroupTotals(items)
	require.Len(t, totals, 4)
	for _, group := range []string{model.GroupAero, model.GroupEsc, model.GroupSurete, model.GroupOther} {
		require.Contains(t, totals, group)
	}

	var sum float64
	for _, groupTotal := range totals {
		sum += groupTotal
	}
	require.Equal(t, Total(items), sum)

	// empty input still carries all four keys, zero-filled
	empty := GroupTotals(nil)
	require.Equal(t, map[string]float64{
		model.GroupAero:   0,
		model.GroupEsc:    0,
		model.GroupSurete: 0,
		model.GroupOther:  0,
	}, empty)
}
