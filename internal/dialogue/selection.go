package dialogue

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/teller/pkg/domain"
)

// Choice maps the phrases that pick an option to its id.
type Choice struct {
	ID      string
	Phrases []string
}

var (
	cardManagementChoices = []Choice{
		{ID: "block_card", Phrases: []string{"block_card", "block card", "option 1"}},
		{ID: "apply_new_card", Phrases: []string{"apply_new_card", "new card", "apply", "option 2"}},
		{ID: "modify_limit", Phrases: []string{"modify_limit", "limit", "credit limit", "option 3"}},
	}
	cardTypeChoices = []Choice{
		{ID: "credit_card", Phrases: []string{"credit_card", "credit", "option 1"}},
		{ID: "debit_card", Phrases: []string{"debit_card", "debit", "option 2"}},
	}
	cardBrandChoices = []Choice{
		{ID: "visa", Phrases: []string{"visa", "option 1"}},
		{ID: "mastercard", Phrases: []string{"mastercard", "option 2"}},
		{ID: "rupay", Phrases: []string{"rupay", "option 3"}},
	}
)

var (
	optionNumber = regexp.MustCompile(`\boption\s*#?(\d+)\b`)
	bareNumber   = regexp.MustCompile(`^#?(\d+)[.)]?$`)
)

var ordinals = []string{"first", "second", "third", "fourth", "fifth", "sixth", "seventh", "eighth", "ninth", "tenth"}

// minLabelMatch is the shortest reply matched against option labels.
const minLabelMatch = 3

// MatchOption resolves a free-text reply against the options on screen.
// The flow's choices are tried first, then the option ids (card_1 is read
// as card_001), then an ordinal ("option 2", "2", "second"), then a
// label that contains the reply and no other label does.
func MatchOption(message string, opts []domain.Option, choices ...Choice) (domain.Option, bool) {
	lower := strings.ToLower(strings.TrimSpace(message))
	if lower == "" {
		return domain.Option{}, false
	}

	for _, c := range choices {
		for _, p := range c.Phrases {
			if strings.Contains(lower, p) {
				return optionByID(opts, c.ID), true
			}
		}
	}

	normalized := normalizeCardIDs(lower)
	for _, o := range opts {
		if o.ID != "" && strings.Contains(normalized, strings.ToLower(o.ID)) {
			return o, true
		}
	}

	if n, ok := ordinal(lower); ok && n >= 1 && n <= len(opts) {
		return opts[n-1], true
	}

	if len(lower) >= minLabelMatch {
		var hit *domain.Option
		for i := range opts {
			if strings.Contains(strings.ToLower(opts[i].Text), lower) {
				if hit != nil {
					return domain.Option{}, false
				}
				hit = &opts[i]
			}
		}
		if hit != nil {
			return *hit, true
		}
	}
	return domain.Option{}, false
}

func optionByID(opts []domain.Option, id string) domain.Option {
	for _, o := range opts {
		if o.ID == id {
			return o
		}
	}
	return domain.Option{ID: id}
}

// ordinal reads a 1-based position from the reply.
func ordinal(lower string) (int, bool) {
	if m := optionNumber.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		return n, err == nil
	}
	if m := bareNumber.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		return n, err == nil
	}
	for _, w := range strings.Fields(lower) {
		w = strings.Trim(w, ".,!?")
		for i, o := range ordinals {
			if w == o {
				return i + 1, true
			}
		}
	}
	return 0, false
}
