package units

import (
	"github.com/shopspring/decimal"
)

// No negative values
func WattHoursToKWh(wattage, hours float64) float64 {
	if wattage <= 0 || hours <= 0 {
		return 0
	}
	return decimal.NewFromFloat(wattage).
		Mul(decimal.NewFromFloat(hours)).
		Div(decimal.NewFromInt(1000)).
		InexactFloat64()
}

// Cost of kwh at a flat tariff per kWh. Not rounded.
func Cost(kwh, tariff float64) float64 {
	return decimal.NewFromFloat(kwh).Mul(decimal.NewFromFloat(tariff)).InexactFloat64()
}

// Round2 rounds half away from zero to two decimals (12.345 -> 12.35).
// Only the HTTP layer and reports call this; sums stay unrounded.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func Round2All(vs []float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = Round2(v)
	}
	return out
}

// Percent is part/whole*100 rounded to an integer, 0 when whole is 0
func Percent(part, whole float64) int {
	if whole <= 0 {
		return 0
	}
	return int(decimal.NewFromFloat(part).
		Div(decimal.NewFromFloat(whole)).
		Mul(decimal.NewFromInt(100)).
		Round(0).
		IntPart())
}
