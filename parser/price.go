package parser

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceScale is the number of fractional digits kept on stored prices.
const PriceScale = 3

var thousand = decimal.NewFromInt(1000)

// NormalizePrice converts a raw circular price (rupees per tonne) into
// thousands rounded to three decimals: "268,250" becomes 268.250.
func NormalizePrice(raw string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if cleaned == "" {
		return decimal.Decimal{}, &NormalizationError{Raw: raw, Err: errors.New("empty price")}
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, &NormalizationError{Raw: raw, Err: err}
	}
	return RoundPrice(value.Div(thousand)), nil
}

// RoundPrice rounds a stored price to PriceScale decimals.
func RoundPrice(d decimal.Decimal) decimal.Decimal {
	return d.Round(PriceScale)
}

// FormatPrice renders a price with exactly PriceScale decimals.
func FormatPrice(d decimal.Decimal) string {
	return d.StringFixed(PriceScale)
}
