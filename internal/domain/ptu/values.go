package ptu

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseValue interpreta un valor monetario del XML aceptando coma decimal (formato regional).
// Devuelve ok=false si el texto está vacío o no es numérico.
func ParseValue(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseValueOrZero como ParseValue pero con cero como valor de respaldo.
func ParseValueOrZero(raw string) decimal.Decimal {
	d, _ := ParseValue(raw)
	return d
}

// FormatValue formatea con dos decimales y coma decimal (ej: 1500,50).
func FormatValue(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}
