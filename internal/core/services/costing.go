// internal/core/services/costing.go
package services

import (
	"github.com/shopspring/decimal"

	"github.com/ngiletta/taller-be/internal/core/domain"
)

var oneHundred = decimal.NewFromInt(100)

// ComputeTotal derives a repair order's customer-facing price:
// (fixedCost + variableCost) * (1 + marginPercent/100), rounded to two
// decimal places with banker's rounding. Pure function, no state.
func ComputeTotal(fixedCost, variableCost, marginPercent decimal.Decimal) (decimal.Decimal, error) {
	if fixedCost.IsNegative() {
		return decimal.Zero, domain.NewValidationError("fixed_cost", "cannot be negative")
	}
	if variableCost.IsNegative() {
		return decimal.Zero, domain.NewValidationError("variable_cost", "cannot be negative")
	}
	if marginPercent.IsNegative() {
		return decimal.Zero, domain.NewValidationError("margin_percent", "cannot be negative")
	}

	total := fixedCost.Add(variableCost).
		Mul(oneHundred.Add(marginPercent)).
		Div(oneHundred)

	return total.RoundBank(2), nil
}
