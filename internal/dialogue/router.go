package dialogue

import (
	"strings"

	"github.com/aretw0/teller/pkg/domain"
)

// Route names, in evaluation order.
const (
	RouteResumeChoice   = "loan_resume_choice"
	RouteAccountDetails = "account_details"
	RouteBalance        = "balance"
	RouteTransactions   = "transactions"
	RouteCardManagement = "card_management"
	RouteNewCard        = "new_card"
	RouteBlockCard      = "block_card"
	RouteCardList       = "card_list"
	RouteLoanListing    = "loan_listing"
	RouteLoan           = "loan"
	RoutePendingAction  = "pending_action"
	RouteProcess        = "multi_step_process"
	RouteModel          = "model"
)

// input is what a rule sees of the turn.
type input struct {
	state *domain.SessionState
	raw   string
	lower string
}

func (in input) has(phrases ...string) bool {
	for _, p := range phrases {
		if strings.Contains(in.lower, p) {
			return true
		}
	}
	return false
}

type handlerFunc func(e *Engine, t *turn) (*domain.ChatResponse, error)

// rule is one entry of the routing table.
type rule struct {
	name   string
	match  func(in input) bool
	handle handlerFunc
}

var (
	accountDetailsPhrases = []string{"account details", "account information", "complete account", "full account",
		"account overview", "my account details", "show account details"}
	balancePhrases        = []string{"balance", "account balance", "my balance", "show balance", "what's my balance", "whats my balance"}
	transactionPhrases    = []string{"transactions", "recent transactions", "mini statement", "statement", "transaction history"}
	cardManagementPhrases = []string{"card management", "manage cards", "card services"}
	newCardPhrases        = []string{"apply for new card", "new card application", "apply new card", "get new card"}
	blockCardPhrases      = []string{"block card", "block my card"}
	cardListPhrases       = []string{"my cards", "show cards", "list cards"}
	loanListingPhrases    = []string{"list loans", "list all loans", "show loans", "show all loans", "my loans",
		"list the loans", "show the loans", "loans i have applied", "loan applications",
		"applied for loans", "show my loan applications", "list my loan applications",
		"what loans do i have", "all my loans", "existing loans"}
	loanApplyPhrases  = []string{"apply", "new loan", "apply for"}
	loanIntentPhrases = []string{"loan", "apply for loan", "new loan", "loan application", "borrow money", "need money", "apply loan"}
)

// rules is the routing table. The first matching rule handles the turn.
var rules = []rule{
	{
		name: RouteResumeChoice,
		match: func(in input) bool {
			return in.state.LoanResumeChoice != nil && in.state.LoanResumeChoice.MessageShown
		},
		handle: (*Engine).handleResumeChoice,
	},
	{
		name:   RouteAccountDetails,
		match:  func(in input) bool { return in.has(accountDetailsPhrases...) },
		handle: (*Engine).handleAccountDetails,
	},
	{
		name:   RouteBalance,
		match:  func(in input) bool { return in.has(balancePhrases...) },
		handle: (*Engine).handleBalance,
	},
	{
		name:   RouteTransactions,
		match:  func(in input) bool { return in.has(transactionPhrases...) },
		handle: (*Engine).handleTransactions,
	},
	{
		name:   RouteCardManagement,
		match:  func(in input) bool { return in.has(cardManagementPhrases...) },
		handle: (*Engine).handleCardManagement,
	},
	{
		name:   RouteNewCard,
		match:  func(in input) bool { return in.has(newCardPhrases...) },
		handle: (*Engine).handleNewCard,
	},
	{
		name: RouteBlockCard,
		match: func(in input) bool {
			return in.has(blockCardPhrases...) && !in.has("card management", "manage cards")
		},
		handle: (*Engine).handleBlockCard,
	},
	{
		name:   RouteCardList,
		match:  func(in input) bool { return in.has(cardListPhrases...) },
		handle: (*Engine).handleCardList,
	},
	{
		name: RouteLoanListing,
		match: func(in input) bool {
			return in.has(loanListingPhrases...) && !in.has(loanApplyPhrases...)
		},
		handle: (*Engine).handleLoanListing,
	},
	{
		name: RouteLoan,
		match: func(in input) bool {
			active := in.state.MultiStepProcess.Is(domain.ProcessLoan)
			return active || in.has(loanIntentPhrases...) || (active && isNumeric(in.raw))
		},
		handle: (*Engine).handleLoan,
	},
	{
		name:   RoutePendingAction,
		match:  func(in input) bool { return in.state.PendingAction != nil },
		handle: (*Engine).handlePendingAction,
	},
	{
		name:   RouteProcess,
		match:  func(in input) bool { return in.state.MultiStepProcess != nil },
		handle: (*Engine).handleProcess,
	},
	{
		name:   RouteModel,
		match:  func(input) bool { return true },
		handle: (*Engine).handleModel,
	},
}

// route returns the first rule matching message against state.
func route(state *domain.SessionState, message string) rule {
	in := input{state: state, raw: message, lower: strings.ToLower(message)}
	for _, r := range rules {
		if r.match(in) {
			return r
		}
	}
	return rules[len(rules)-1]
}

// Route reports which handler would serve message in state.
func Route(state *domain.SessionState, message string) string {
	if state == nil {
		state = domain.NewSessionState()
	}
	return route(state, message).name
}
