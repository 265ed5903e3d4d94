package dialogue

import (
	"testing"

	"github.com/aretw0/teller/pkg/domain"
	"github.com/stretchr/testify/assert"
)

var cardOptions = []domain.Option{
	{ID: "card_001", Text: "Credit Card ending in 1234 - active"},
	{ID: "card_002", Text: "Debit Card ending in 5678 - active"},
	{ID: "card_003", Text: "Credit Card ending in 9012 - active"},
}

var menuOptions = []domain.Option{
	{ID: "block_card", Text: "Block a Card"},
	{ID: "apply_new_card", Text: "Apply for New Card"},
	{ID: "modify_limit", Text: "Increase/Decrease Credit Limit"},
}

func TestMatchOption(t *testing.T) {
	tests := []struct {
		name    string
		message string
		opts    []domain.Option
		choices []Choice
		want    string
		ok      bool
	}{
		{"exact id", "card_002", cardOptions, nil, "card_002", true},
		{"short id", "block card_3", cardOptions, nil, "card_003", true},
		{"option number", "Option 2", cardOptions, nil, "card_002", true},
		{"bare number", "3", cardOptions, nil, "card_003", true},
		{"ordinal word", "the first one", cardOptions, nil, "card_001", true},
		{"unique label", "5678", cardOptions, nil, "card_002", true},
		{"ambiguous label", "credit card", cardOptions, nil, "", false},
		{"out of range", "option 9", cardOptions, nil, "", false},
		{"too short for a label", "12", cardOptions, nil, "", false},
		{"empty", "  ", cardOptions, nil, "", false},
		{"keyword table first", "I want to apply", menuOptions, cardManagementChoices, "apply_new_card", true},
		{"keyword for limit", "change my credit limit", menuOptions, cardManagementChoices, "modify_limit", true},
		{"keyword option number", "option 1", menuOptions, cardManagementChoices, "block_card", true},
		{"nothing matches", "pizza", menuOptions, cardManagementChoices, "", false},
		{"brand keyword", "Mastercard please", []domain.Option{{ID: "visa"}, {ID: "mastercard"}, {ID: "rupay"}}, cardBrandChoices, "mastercard", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchOption(tt.message, tt.opts, tt.choices...)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}
