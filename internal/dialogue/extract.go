package dialogue

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/teller/pkg/domain"
)

var (
	figurePattern  = regexp.MustCompile(`\$?([0-9][0-9,]*(?:\.[0-9]{2})?)`)
	incomePattern  = regexp.MustCompile(`(?:income|earn|salary|make).*?\$?([0-9][0-9,]*(?:\.[0-9]{2})?)`)
	numericPattern = regexp.MustCompile(`^\$?[0-9,]+(?:\.[0-9]{2})?$`)
	cardIDPattern  = regexp.MustCompile(`card_(\d+)`)
)

type purposeKeyword struct {
	keyword string
	purpose string
}

// purposeKeywords are checked in order; the first hit names the purpose.
var purposeKeywords = []purposeKeyword{
	{"home", "Home Improvement"},
	{"house", "Home Improvement"},
	{"renovation", "Home Renovation"},
	{"car", "Auto Purchase"},
	{"vehicle", "Auto Purchase"},
	{"auto", "Auto Purchase"},
	{"debt", "Debt Consolidation"},
	{"consolidation", "Debt Consolidation"},
	{"medical", "Medical Expenses"},
	{"health", "Medical Expenses"},
	{"education", "Education"},
	{"school", "Education"},
	{"college", "Education"},
	{"business", "Business"},
	{"wedding", "Wedding"},
	{"marriage", "Wedding"},
	{"vacation", "Vacation"},
	{"travel", "Vacation"},
	{"personal", "Personal"},
	{"emergency", "Emergency Fund"},
}

// parseFigure reads "$20,000.50" as 20000.5.
func parseFigure(s string) (float64, bool) {
	s = strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// isNumeric reports whether the whole message is a single dollar figure.
func isNumeric(message string) bool {
	return numericPattern.MatchString(strings.TrimSpace(message))
}

// firstFigure returns the first dollar figure in message.
func firstFigure(message string) (float64, bool) {
	m := figurePattern.FindStringSubmatch(message)
	if m == nil {
		return 0, false
	}
	return parseFigure(m[1])
}

// ExtractLoanSlots reads every loan slot it can find in message, whatever
// step the application is at. The figure claimed by the income phrase is
// never read as the amount. A bare number answers the current step only.
func ExtractLoanSlots(message string, step domain.Step) domain.LoanData {
	lower := strings.ToLower(message)
	var out domain.LoanData

	if isNumeric(message) {
		v, ok := parseFigure(message)
		if ok {
			switch step {
			case domain.StepAmount:
				out.Amount = &v
				return out
			case domain.StepIncome:
				out.Income = &v
				return out
			}
		}
	}

	incomeStart, incomeEnd := -1, -1
	if m := incomePattern.FindStringSubmatchIndex(lower); m != nil {
		incomeStart, incomeEnd = m[2], m[3]
		if v, ok := parseFigure(lower[m[2]:m[3]]); ok {
			out.Income = &v
		}
	}

	for _, m := range figurePattern.FindAllStringSubmatchIndex(lower, -1) {
		if m[2] < incomeEnd && m[3] > incomeStart {
			continue
		}
		if v, ok := parseFigure(lower[m[2]:m[3]]); ok {
			out.Amount = &v
		}
		break
	}

	for _, pk := range purposeKeywords {
		if strings.Contains(lower, pk.keyword) {
			out.Purpose = domain.Ptr(pk.purpose)
			break
		}
	}
	return out
}

// normalizeCardIDs rewrites "card_1" as "card_001".
func normalizeCardIDs(lower string) string {
	return cardIDPattern.ReplaceAllStringFunc(lower, func(s string) string {
		n, err := strconv.Atoi(s[len("card_"):])
		if err != nil {
			return s
		}
		return "card_" + pad3(n)
	})
}

func pad3(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}
