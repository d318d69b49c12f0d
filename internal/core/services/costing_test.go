// internal/core/services/costing_test.go
package services_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngiletta/taller-be/internal/core/services"
)

func TestComputeTotal(t *testing.T) {
	tests := []struct {
		name          string
		fixedCost     string
		variableCost  string
		marginPercent string
		expected      string
		expectedError bool
		errorContains string
	}{
		{
			name:          "screen_replacement_with_margin",
			fixedCost:     "20.00",
			variableCost:  "89.99",
			marginPercent: "35",
			expected:      "148.49",
		},
		{
			name:          "zero_margin_passes_costs_through",
			fixedCost:     "50.00",
			variableCost:  "25.50",
			marginPercent: "0",
			expected:      "75.50",
		},
		{
			name:          "zero_costs_yield_zero_total",
			fixedCost:     "0",
			variableCost:  "0",
			marginPercent: "35",
			expected:      "0.00",
		},
		{
			name:          "labor_only_order",
			fixedCost:     "40.00",
			variableCost:  "0",
			marginPercent: "25",
			expected:      "50.00",
		},
		{
			name:          "fractional_margin",
			fixedCost:     "100.00",
			variableCost:  "0",
			marginPercent: "12.5",
			expected:      "112.50",
		},
		{
			// 10.05 * 1.10 = 11.055; the half-cent ties to the even neighbor.
			name:          "half_cent_tie_rounds_to_even",
			fixedCost:     "10.05",
			variableCost:  "0",
			marginPercent: "10",
			expected:      "11.06",
		},
		{
			// 2.25 * 1.50 = 3.375 -> 3.38 (7 is odd, rounds up).
			name:          "odd_digit_tie_rounds_up",
			fixedCost:     "2.25",
			variableCost:  "0",
			marginPercent: "50",
			expected:      "3.38",
		},
		{
			// 1.25 * 1.10 = 1.375 -> 1.38; 1.35 * 1.10 = 1.485 -> 1.48.
			name:          "adjacent_ties_round_in_opposite_directions",
			fixedCost:     "1.35",
			variableCost:  "0",
			marginPercent: "10",
			expected:      "1.48",
		},
		{
			name:          "negative_fixed_cost_rejected",
			fixedCost:     "-1.00",
			variableCost:  "10.00",
			marginPercent: "35",
			expectedError: true,
			errorContains: "fixed_cost",
		},
		{
			name:          "negative_variable_cost_rejected",
			fixedCost:     "10.00",
			variableCost:  "-0.01",
			marginPercent: "35",
			expectedError: true,
			errorContains: "variable_cost",
		},
		{
			name:          "negative_margin_rejected",
			fixedCost:     "10.00",
			variableCost:  "10.00",
			marginPercent: "-5",
			expectedError: true,
			errorContains: "margin_percent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, err := services.ComputeTotal(
				decimal.RequireFromString(tt.fixedCost),
				decimal.RequireFromString(tt.variableCost),
				decimal.RequireFromString(tt.marginPercent),
			)

			if tt.expectedError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}

			require.NoError(t, err)
			expected := decimal.RequireFromString(tt.expected)
			assert.True(t, total.Equal(expected),
				"expected total %s, got %s", expected, total)
		})
	}
}

func TestComputeTotal_Deterministic(t *testing.T) {
	fixed := decimal.RequireFromString("20.00")
	variable := decimal.RequireFromString("89.99")
	margin := decimal.RequireFromString("35")

	first, err := services.ComputeTotal(fixed, variable, margin)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := services.ComputeTotal(fixed, variable, margin)
		require.NoError(t, err)
		assert.True(t, first.Equal(again))
	}
}
