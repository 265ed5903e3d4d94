package dialogue

import (
	"testing"

	"github.com/aretw0/teller/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestRoute(t *testing.T) {
	empty := domain.NewSessionState()
	loanActive := &domain.SessionState{MultiStepProcess: domain.NewLoanProcess(domain.LoanData{Amount: domain.Ptr(20000.0)})}
	limitActive := &domain.SessionState{MultiStepProcess: domain.NewLimitProcess(domain.LimitData{CardID: "card_001", CurrentLimit: 15000})}
	pending := &domain.SessionState{PendingAction: &domain.PendingSelection{ProcessType: domain.SelectCardManagement}}
	choice := &domain.SessionState{LoanResumeChoice: &domain.LoanResumeChoice{MessageShown: true}}

	tests := []struct {
		name    string
		state   *domain.SessionState
		message string
		want    string
	}{
		{"account details before balance", empty, "Show account details and balance", RouteAccountDetails},
		{"balance", empty, "What's my balance?", RouteBalance},
		{"balance wins over a loan in progress", loanActive, "my balance please", RouteBalance},
		{"statement", empty, "send me a mini statement", RouteTransactions},
		{"card management", empty, "I need card management", RouteCardManagement},
		{"card management never blocks", empty, "card management: block card", RouteCardManagement},
		{"block my card never opens the menu", empty, "please block my card", RouteBlockCard},
		{"manage cards suppresses blocking", empty, "manage cards", RouteCardManagement},
		{"new card", empty, "I want to apply for new card", RouteNewCard},
		{"card list", empty, "show my cards", RouteCardList},
		{"loan listing", empty, "show my loans", RouteLoanListing},
		{"loan listing with applications", empty, "what loans do I have", RouteLoanListing},
		{"listing with apply is an application", empty, "list loans and apply for another", RouteLoan},
		{"loan intent", empty, "I need a loan", RouteLoan},
		{"borrow money", empty, "can I borrow money", RouteLoan},
		{"numeric during loan", loanActive, "$15,000", RouteLoan},
		{"anything during loan", loanActive, "for my house", RouteLoan},
		{"numeric without loan", empty, "15000", RouteModel},
		{"pending selection", pending, "option 1", RoutePendingAction},
		{"direct request beats pending", pending, "what's my balance", RouteBalance},
		{"limit step", limitActive, "20000", RouteProcess},
		{"resume choice intercepts everything", choice, "balance", RouteResumeChoice},
		{"small talk", empty, "hello there", RouteModel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Route(tt.state, tt.message))
		})
	}
}

func TestRoute_NilState(t *testing.T) {
	assert.Equal(t, RouteModel, Route(nil, "hi"))
}

func TestRules_NamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range rules {
		assert.False(t, seen[r.name], "duplicate rule %s", r.name)
		seen[r.name] = true
		assert.NotNil(t, r.match, r.name)
		assert.NotNil(t, r.handle, r.name)
	}
	assert.Equal(t, RouteModel, rules[len(rules)-1].name, "the model path is the catch-all")
}
