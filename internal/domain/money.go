package domain

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred       = decimal.NewFromInt(100)
	countryCodeRe = regexp.MustCompile(`^[A-Z]{2}$`)
)

// RoundCurrency rounds to cents, half away from zero (half-up for prices).
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ComposeTotal returns base + base*fuelPercent/100 + handling, rounded to cents,
// along with the unrounded components.
func ComposeTotal(base, fuelPercent, handling decimal.Decimal) (decimal.Decimal, CostBreakdown) {
	fuel := base.Mul(fuelPercent).Div(hundred)
	total := base.Add(fuel).Add(handling)
	return RoundCurrency(total), CostBreakdown{
		Base:          RoundCurrency(base),
		FuelSurcharge: RoundCurrency(fuel),
		HandlingFee:   RoundCurrency(handling),
	}
}

// NormalizeCountry upper-cases and trims an ISO alpha-2 code. ok is false
// when the result is not two ASCII letters.
func NormalizeCountry(code string) (string, bool) {
	c := strings.ToUpper(strings.TrimSpace(code))
	return c, countryCodeRe.MatchString(c)
}
