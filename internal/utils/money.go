package utils

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RoundCurrency rounds an amount to 2 decimal places, half up. shopspring
// rounds half away from zero, which is half-up for the non-negative amounts
// the commission path produces.
func RoundCurrency(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// ComputeCommission computes a referral commission in fixed-point decimal
// arithmetic:
//
//	round2(baseAmount * (rate + bonusRate) / 100)
//
// The base amount must be non-negative (a referral cannot carry negative
// signup value) and the rate must lie within [0, 100]. A zero rate yields a
// zero amount, which callers still record for the audit trail.
func ComputeCommission(baseAmount, rate, bonusRate decimal.Decimal) (decimal.Decimal, error) {
	if baseAmount.IsNegative() {
		return decimal.Zero, fmt.Errorf("base amount must not be negative, got %s", baseAmount)
	}
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return decimal.Zero, fmt.Errorf("commission rate must be within [0, 100], got %s", rate)
	}
	if bonusRate.IsNegative() {
		return decimal.Zero, fmt.Errorf("bonus rate must not be negative, got %s", bonusRate)
	}
	return RoundCurrency(baseAmount.Mul(rate.Add(bonusRate)).Div(hundred)), nil
}

// ParseAmount parses a decimal amount from its string form, rejecting values
// with more than 2 fractional digits.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.Exponent() < -2 {
		return decimal.Zero, fmt.Errorf("amount %q has more than 2 decimal places", s)
	}
	return d, nil
}
