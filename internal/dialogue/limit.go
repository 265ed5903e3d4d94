package dialogue

import (
	"github.com/aretw0/teller/pkg/domain"
)

const (
	limitAmountPrompt   = "Please specify the new credit limit amount. For example: 20000 or $20,000"
	limitCardMissing    = "Error: Card information not found. Please start the process again."
	limitStepUnknown    = "Unable to process limit modification. Please try again."
	invalidCardSelected = "Please select a valid card option."
)

// selectLimitCard turns the chosen credit card into a new_limit workflow.
func (e *Engine) selectLimitCard(t *turn, pending *domain.PendingSelection) (*domain.ChatResponse, error) {
	if pending.Step != "" && pending.Step != domain.StepCardSelection {
		return domain.Reply(invalidCardSelected), nil
	}
	opt, ok := MatchOption(t.message, pending.Options)
	if !ok {
		return domain.Reply(invalidCardSelected), nil
	}
	res, err := e.bank.LimitInfo(t.ctx, t.userID, opt.ID)
	if err != nil {
		return e.bankFailure(t, "get_limit_info", err, limitStepUnknown)
	}
	if !res.RequiresContinuation || res.Continuation == nil {
		return domain.Reply(res.Message), nil
	}
	if err := t.tx.Update(domain.Patch{
		MultiStepProcess: domain.Set(res.Continuation),
		PendingAction:    domain.Clear[*domain.PendingSelection](),
	}); err != nil {
		return nil, err
	}
	return domain.Reply(res.Message), nil
}

// handleLimitStep applies the amount given at the new_limit step.
func (e *Engine) handleLimitStep(t *turn, proc *domain.Process) (*domain.ChatResponse, error) {
	if proc.CurrentStep != domain.StepNewLimit {
		return domain.Reply(limitStepUnknown), nil
	}
	newLimit, ok := firstFigure(t.message)
	if !ok {
		return domain.Reply(limitAmountPrompt), nil
	}
	if proc.Limit == nil || proc.Limit.CardID == "" {
		if err := t.tx.Update(domain.Patch{MultiStepProcess: domain.Clear[*domain.Process]()}); err != nil {
			return nil, err
		}
		return domain.Reply(limitCardMissing), nil
	}

	res, err := e.bank.ModifyCreditLimit(t.ctx, t.userID, proc.Limit.CardID, newLimit)
	if err != nil {
		return e.bankFailure(t, "modify_credit_limit", err, limitStepUnknown)
	}
	if !res.OK() {
		return domain.Reply(res.Message), nil
	}
	if err := t.tx.Update(domain.Patch{
		MultiStepProcess: domain.Clear[*domain.Process](),
		LastCompletedAction: domain.Set(&domain.CompletedAction{
			Type:      string(domain.ProcessLimit),
			Timestamp: e.now(),
		}),
	}); err != nil {
		return nil, err
	}
	return domain.Reply(withNudge(res.Message, t.tx.State())), nil
}
