package models

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	micros      = decimal.NewFromInt(1_000_000)
	minorUnits  = decimal.NewFromInt(100)
	amountPrint = message.NewPrinter(language.English)
)

// FromMicros converts a micro-unit amount (1/1,000,000 of the currency) to currency units.
func FromMicros(v int64) float64 {
	f, _ := decimal.NewFromInt(v).Div(micros).Float64()
	return f
}

// ToMicros converts a currency amount to micro units, rounding half away from zero.
func ToMicros(v float64) int64 {
	return decimal.NewFromFloat(v).Mul(micros).Round(0).IntPart()
}

// FromMinorUnits converts cents to currency units.
func FromMinorUnits(v int64) float64 {
	f, _ := decimal.NewFromInt(v).Div(minorUnits).Float64()
	return f
}

// ToMinorUnits converts a currency amount to cents, rounding half away from zero.
func ToMinorUnits(v float64) int64 {
	return decimal.NewFromFloat(v).Mul(minorUnits).Round(0).IntPart()
}

// ParseAmount parses a decimal string as returned by vendor APIs. Empty or invalid input yields 0.
func ParseAmount(s string) float64 {
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}

// RoundTo rounds v to the given number of decimal places, half away from zero.
func RoundTo(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// FormatMoney renders v as $1,234.56.
func FormatMoney(v float64) string {
	if v < 0 {
		return "-" + FormatMoney(-v)
	}
	return amountPrint.Sprintf("$%.2f", RoundTo(v, 2))
}

// FormatWholeMoney renders v rounded to whole currency units, e.g. $1,235.
func FormatWholeMoney(v float64) string {
	return amountPrint.Sprintf("$%d", decimal.NewFromFloat(v).Round(0).IntPart())
}

// FormatCount renders an integer with thousands separators.
func FormatCount(v int64) string {
	return amountPrint.Sprintf("%d", v)
}

// FormatPercent renders v with two decimals and a percent sign.
func FormatPercent(v float64) string {
	return amountPrint.Sprintf("%.2f%%", v)
}

// FormatRatio renders v with two decimals and an x suffix, as used for ROAS.
func FormatRatio(v float64) string {
	return amountPrint.Sprintf("%.2fx", v)
}

// FormatDecimal renders v with one decimal place and thousands separators.
func FormatDecimal(v float64) string {
	return amountPrint.Sprintf("%.1f", v)
}
