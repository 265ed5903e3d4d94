package dialogue

import (
	"testing"

	"github.com/aretw0/teller/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestExtractLoanSlots(t *testing.T) {
	tests := []struct {
		name    string
		message string
		step    domain.Step
		amount  *float64
		purpose *string
		income  *float64
	}{
		{
			name:    "everything at once",
			message: "I need $15,000 for a car and I earn 60000",
			step:    domain.StepAmount,
			amount:  domain.Ptr(15000.0),
			purpose: domain.Ptr("Auto Purchase"),
			income:  domain.Ptr(60000.0),
		},
		{
			name:    "income figure is not the amount",
			message: "I make $60,000 a year",
			step:    domain.StepAmount,
			income:  domain.Ptr(60000.0),
		},
		{
			name:    "amount after the income phrase",
			message: "my salary is 80000 and I want 12000",
			step:    domain.StepAmount,
			amount:  domain.Ptr(12000.0),
			income:  domain.Ptr(80000.0),
		},
		{
			name:    "bare number answers the amount step",
			message: "20000",
			step:    domain.StepAmount,
			amount:  domain.Ptr(20000.0),
		},
		{
			name:    "bare number answers the income step",
			message: "$75,000",
			step:    domain.StepIncome,
			income:  domain.Ptr(75000.0),
		},
		{
			name:    "cents are kept",
			message: "I'd like 2500.50 please",
			step:    domain.StepPurpose,
			amount:  domain.Ptr(2500.5),
		},
		{
			name:    "first keyword in table order wins",
			message: "home renovation",
			step:    domain.StepPurpose,
			purpose: domain.Ptr("Home Improvement"),
		},
		{
			name:    "renovation alone",
			message: "a renovation",
			step:    domain.StepPurpose,
			purpose: domain.Ptr("Home Renovation"),
		},
		{
			name:    "nothing to read",
			message: "not sure yet",
			step:    domain.StepPurpose,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractLoanSlots(tt.message, tt.step)
			assert.Equal(t, tt.amount, got.Amount, "amount")
			assert.Equal(t, tt.purpose, got.Purpose, "purpose")
			assert.Equal(t, tt.income, got.Income, "income")
		})
	}
}

func TestParseFigure(t *testing.T) {
	v, ok := parseFigure("$20,000.50")
	assert.True(t, ok)
	assert.Equal(t, 20000.5, v)

	_, ok = parseFigure(",")
	assert.False(t, ok)
}

func TestNormalizeCardIDs(t *testing.T) {
	assert.Equal(t, "block card_001 please", normalizeCardIDs("block card_1 please"))
	assert.Equal(t, "card_012", normalizeCardIDs("card_12"))
	assert.Equal(t, "card_003", normalizeCardIDs("card_003"))
}
