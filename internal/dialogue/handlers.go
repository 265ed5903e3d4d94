package dialogue

import (
	"github.com/aretw0/teller/pkg/domain"
)

// Contexts recorded when a direct request suspends the active workflow.
const (
	contextAccountDetails = "account_details"
	contextBalance        = "balance"
	contextTransactions   = "transactions"
	contextCardManagement = "card_management"
	contextNewCard        = "new_card_application"
	contextCardBlocking   = "card_blocking"
	contextCards          = "cards"
	contextLoanListing    = "loan_listing"
)

const cardMenuFallback = "I'm having trouble accessing your card management options right now. Let me help you directly - would you like to:\n\n" +
	"1. Block a card\n2. Apply for a new card\n3. Modify credit limits\n\nPlease tell me which option you'd prefer."

func (e *Engine) handleAccountDetails(t *turn) (*domain.ChatResponse, error) {
	if err := e.suspend(t, contextAccountDetails); err != nil {
		return nil, err
	}
	res, err := e.bank.AccountDetails(t.ctx, t.userID)
	if err != nil {
		return e.bankFailure(t, "get_comprehensive_account_details", err,
			"I'm having trouble accessing your account information right now. Please try again.")
	}
	if !res.OK() {
		return domain.Reply("Unable to retrieve your account details. Please try again."), nil
	}
	return domain.Reply(withNudge(res.Message, t.tx.State())), nil
}

func (e *Engine) handleBalance(t *turn) (*domain.ChatResponse, error) {
	if err := e.suspend(t, contextBalance); err != nil {
		return nil, err
	}
	res, err := e.bank.AccountBalance(t.ctx, t.userID)
	if err != nil {
		return e.bankFailure(t, "get_account_balance", err, "Unable to retrieve balance information. Please try again.")
	}
	summary, ok := res.Data.(domain.BalanceSummary)
	if !res.OK() || !ok {
		return domain.Reply("Unable to retrieve balance information. Please try again."), nil
	}
	return domain.Reply(withNudge(formatBalance(summary), t.tx.State())), nil
}

func (e *Engine) handleTransactions(t *turn) (*domain.ChatResponse, error) {
	if err := e.suspend(t, contextTransactions); err != nil {
		return nil, err
	}
	res, err := e.bank.MiniStatement(t.ctx, t.userID)
	if err != nil {
		return e.bankFailure(t, "get_mini_statement", err, "Unable to retrieve transaction information. Please try again.")
	}
	statement, ok := res.Data.(domain.Statement)
	if !res.OK() || !ok {
		return domain.Reply("Unable to retrieve transaction information. Please try again."), nil
	}
	return domain.Reply(withNudge(formatStatement(statement), t.tx.State())), nil
}

func (e *Engine) handleCardManagement(t *turn) (*domain.ChatResponse, error) {
	if err := e.suspend(t, contextCardManagement); err != nil {
		return nil, err
	}
	res, err := e.bank.CardManagementOptions(t.ctx, t.userID)
	if err != nil {
		return e.bankFailure(t, "card_management", err, cardMenuFallback)
	}
	if !res.RequiresSelection {
		return domain.Reply("Unable to access card management options. Please try again."), nil
	}
	return e.offer(t, res, &domain.PendingSelection{
		Tool:        "card_management",
		Options:     res.Options,
		ProcessType: domain.SelectCardManagement,
		Args:        map[string]any{},
	})
}

func (e *Engine) handleNewCard(t *turn) (*domain.ChatResponse, error) {
	if err := e.suspend(t, contextNewCard); err != nil {
		return nil, err
	}
	return e.offerCardTypes(t)
}

func (e *Engine) handleBlockCard(t *turn) (*domain.ChatResponse, error) {
	if err := e.suspend(t, contextCardBlocking); err != nil {
		return nil, err
	}
	res, err := e.bank.UserCards(t.ctx, t.userID)
	if err != nil {
		return e.bankFailure(t, "get_user_cards", err,
			"I'm having trouble accessing your cards right now. Please try again or contact support.")
	}
	if !res.RequiresSelection {
		return domain.Reply("Unable to retrieve your cards. Please try again."), nil
	}
	res.Message = "Here are your cards. Please select which card you'd like to block:"
	return e.offer(t, res, &domain.PendingSelection{
		Tool:        "block_card",
		Options:     res.Options,
		ProcessType: domain.SelectCardBlocking,
		Args:        map[string]any{},
	})
}

func (e *Engine) handleCardList(t *turn) (*domain.ChatResponse, error) {
	if err := e.suspend(t, contextCards); err != nil {
		return nil, err
	}
	res, err := e.bank.CardsOverview(t.ctx, t.userID)
	if err != nil {
		return e.bankFailure(t, "get_user_cards", err, "I'm having trouble accessing your cards right now. Please try again.")
	}
	portfolio, ok := res.Data.(domain.CardPortfolio)
	if !res.OK() || !ok {
		return domain.Reply("Unable to retrieve your cards. Please try again."), nil
	}
	return domain.Reply(withNudge(formatCardList(portfolio), t.tx.State())), nil
}

func (e *Engine) handleLoanListing(t *turn) (*domain.ChatResponse, error) {
	if err := e.suspend(t, contextLoanListing); err != nil {
		return nil, err
	}
	res, err := e.bank.LoanStatus(t.ctx, t.userID)
	if err != nil {
		return e.bankFailure(t, "get_loan_status", err,
			"I'm having trouble accessing your loan information right now. Please try again.")
	}
	if !res.OK() {
		return domain.Reply("Unable to retrieve your loan applications. Please try again."), nil
	}
	portfolio, _ := res.Data.(domain.LoanPortfolio)
	if len(portfolio.Applications) == 0 {
		return domain.Reply(res.Message), nil
	}
	return domain.Reply(withNudge(formatLoans(portfolio.Applications), t.tx.State())), nil
}

// offer shows a menu and remembers it as the pending selection.
func (e *Engine) offer(t *turn, res *domain.Result, pending *domain.PendingSelection) (*domain.ChatResponse, error) {
	if err := t.tx.Update(domain.Patch{PendingAction: domain.Set(pending)}); err != nil {
		return nil, err
	}
	return domain.Menu(res.Message, res.Options), nil
}

// offerCardTypes opens the new-card flow at the credit/debit question.
func (e *Engine) offerCardTypes(t *turn) (*domain.ChatResponse, error) {
	res, err := e.bank.NewCardTypeOptions(t.ctx, t.userID)
	if err != nil {
		return e.bankFailure(t, "new_card_type", err,
			"I'm having trouble processing your card application. Please try again.")
	}
	if !res.RequiresSelection {
		return domain.Reply("Unable to access card application options. Please try again."), nil
	}
	return e.offer(t, res, &domain.PendingSelection{
		Tool:        "new_card_application",
		Step:        domain.StepTypeSelection,
		Options:     res.Options,
		ProcessType: domain.SelectNewCard,
	})
}
