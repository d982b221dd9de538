// Package normalize holds the locale-aware parsing and formatting helpers
// shared by the table renderer, the exporter and the CLI. Values are
// displayed with Brazilian conventions (comma decimal, dot grouping) and
// written to XML with dot decimals.
package normalize

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var ptBR = message.NewPrinter(language.BrazilianPortuguese)

// ParseNumber parses free-form numeric input. Whitespace is stripped and a
// comma is taken as the decimal separator, with dots as grouping. Invalid
// or absent input yields 0; bad numeric text is tolerated, never an error.
func ParseNumber(s string) float64 {
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return 0
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// FormatCurrency renders v as Brazilian currency with a fixed number of
// decimals: 2 for totals, 4 for unit prices in some views.
func FormatCurrency(v float64, decimals int) string {
	return ptBR.Sprintf("R$ %v", number.Decimal(v,
		number.MinFractionDigits(decimals),
		number.MaxFractionDigits(decimals),
	))
}

// FormatCurrencyPlain is the degraded form without locale grouping: fixed
// point with a comma decimal. Grouping is intentionally absent here, so it
// does not match true pt-BR output for values >= 1000.
func FormatCurrencyPlain(v float64, decimals int) string {
	return "R$ " + FormatInputNumber(v, decimals)
}

// FormatQuantity renders a quantity with pt-BR grouping and at most ten
// fraction digits.
func FormatQuantity(v float64) string {
	return ptBR.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(10)))
}

// FormatInputNumber is the canonical text of a numeric input field: fixed
// decimals, comma separator, no grouping.
func FormatInputNumber(v float64, decimals int) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', decimals, 64), ".", ",", 1)
}

// FormatXMLNumber is the fixed-point, dot-separated form written into
// exported documents.
func FormatXMLNumber(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// DigitsOnly retains only the decimal digits of s.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MaskCNPJ progressively applies the NN.NNN.NNN/NNNN-NN punctuation as
// digits accumulate, truncating input beyond 14 digits.
func MaskCNPJ(s string) string {
	d := DigitsOnly(s)
	if len(d) > 14 {
		d = d[:14]
	}
	switch {
	case len(d) <= 2:
		return d
	case len(d) <= 5:
		return d[:2] + "." + d[2:]
	case len(d) <= 8:
		return d[:2] + "." + d[2:5] + "." + d[5:]
	case len(d) <= 12:
		return d[:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:]
	default:
		return d[:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:]
	}
}

// IsValidCNPJ14 reports whether s holds exactly 14 digits. The check-digit
// algorithm is deliberately not applied; length is the whole contract.
func IsValidCNPJ14(s string) bool {
	return len(DigitsOnly(s)) == 14
}

// FormatDateBR reorders the date component of an ISO-ish timestamp
// (YYYY-MM-DD...) to DD/MM/YYYY. Input that does not split into exactly
// three non-empty parts comes back unchanged.
func FormatDateBR(s string) string {
	if s == "" {
		return ""
	}
	only := s
	if len(only) > 10 {
		only = only[:10]
	}
	parts := strings.Split(only, "-")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return s
	}
	return parts[2] + "/" + parts[1] + "/" + parts[0]
}
