package dialogue

import (
	"github.com/aretw0/teller/pkg/domain"
)

const (
	invalidMenuOption = "Please select a valid option from the menu."
	invalidOption     = "Please select a valid option."
	lostTrack         = "Sorry, I lost track of what we were doing. Please start again from the menu."
)

// handlePendingAction re-dispatches a reply to the menu it answers.
func (e *Engine) handlePendingAction(t *turn) (*domain.ChatResponse, error) {
	pending := t.tx.State().PendingAction
	switch pending.ProcessType {
	case domain.SelectCardManagement:
		return e.selectCardAction(t, pending)
	case domain.SelectNewCard:
		return e.selectNewCard(t, pending)
	case domain.SelectLimitModification:
		return e.selectLimitCard(t, pending)
	case domain.SelectCardBlocking:
		return e.selectCardToBlock(t, pending)
	}

	e.logger.Error("Unknown pending selection, clearing it",
		"session_id", t.sessionID,
		"process_type", pending.ProcessType,
		"tool", pending.Tool,
	)
	if err := t.tx.Update(domain.Patch{PendingAction: domain.Clear[*domain.PendingSelection]()}); err != nil {
		return nil, err
	}
	return domain.Reply(lostTrack), nil
}

// handleProcess continues a workflow the loan rule did not claim.
func (e *Engine) handleProcess(t *turn) (*domain.ChatResponse, error) {
	proc := t.tx.State().MultiStepProcess
	switch proc.Type {
	case domain.ProcessLimit:
		return e.handleLimitStep(t, proc)
	case domain.ProcessLoan:
		return e.handleLoan(t)
	}

	e.logger.Error("Unknown workflow, clearing it",
		"session_id", t.sessionID,
		"process_type", proc.Type,
		"step", proc.CurrentStep,
	)
	if err := t.tx.Update(domain.Patch{MultiStepProcess: domain.Clear[*domain.Process]()}); err != nil {
		return nil, err
	}
	return domain.Reply(lostTrack), nil
}

// selectCardAction answers the top-level card menu.
func (e *Engine) selectCardAction(t *turn, pending *domain.PendingSelection) (*domain.ChatResponse, error) {
	opt, ok := MatchOption(t.message, pending.Options, cardManagementChoices...)
	if !ok {
		return domain.Reply(invalidMenuOption), nil
	}

	switch opt.ID {
	case "block_card":
		res, err := e.bank.UserCards(t.ctx, t.userID)
		if err != nil {
			return e.bankFailure(t, "get_user_cards", err, "Unable to retrieve your cards. Please try again.")
		}
		if !res.RequiresSelection {
			return e.closeMenu(t, res.Message)
		}
		return e.offer(t, res, &domain.PendingSelection{
			Tool:        "block_card",
			Options:     res.Options,
			ProcessType: domain.SelectCardBlocking,
			Args:        map[string]any{},
		})

	case "apply_new_card":
		return e.offerCardTypes(t)

	case "modify_limit":
		res, err := e.bank.LimitModificationCards(t.ctx, t.userID)
		if err != nil {
			return e.bankFailure(t, "limit_modification", err, "No credit cards available for limit modification.")
		}
		if !res.RequiresSelection {
			msg := res.Message
			if msg == "" {
				msg = "No credit cards available for limit modification."
			}
			return e.closeMenu(t, msg)
		}
		return e.offer(t, res, &domain.PendingSelection{
			Tool:        "limit_modification",
			Step:        domain.StepCardSelection,
			Options:     res.Options,
			ProcessType: domain.SelectLimitModification,
		})
	}
	return domain.Reply(invalidMenuOption), nil
}

// selectNewCard walks the type then brand questions and issues the card.
func (e *Engine) selectNewCard(t *turn, pending *domain.PendingSelection) (*domain.ChatResponse, error) {
	switch pending.Step {
	case domain.StepTypeSelection:
		opt, ok := MatchOption(t.message, pending.Options, cardTypeChoices...)
		if !ok {
			break
		}
		res, err := e.bank.CardBrandOptions(t.ctx, t.userID, opt.ID)
		if err != nil {
			return e.bankFailure(t, "card_brand_selection", err, invalidOption)
		}
		if !res.RequiresSelection {
			return e.closeMenu(t, res.Message)
		}
		return e.offer(t, res, &domain.PendingSelection{
			Tool:        "new_card_application",
			Step:        domain.StepBrandSelection,
			Options:     res.Options,
			ProcessType: domain.SelectNewCard,
			CardType:    opt.ID,
		})

	case domain.StepBrandSelection:
		opt, ok := MatchOption(t.message, pending.Options, cardBrandChoices...)
		if !ok {
			break
		}
		res, err := e.bank.ApplyNewCard(t.ctx, t.userID, pending.CardType, opt.ID)
		if err != nil {
			return e.bankFailure(t, "apply_new_card", err, "I'm having trouble processing your card application. Please try again.")
		}
		patch := domain.Patch{PendingAction: domain.Clear[*domain.PendingSelection]()}
		if res.OK() {
			action := &domain.CompletedAction{Type: string(domain.SelectNewCard), Timestamp: e.now()}
			if out, ok := res.Data.(domain.NewCardOutcome); ok {
				action.ApplicationID = out.Application.ID
			}
			patch.LastCompletedAction = domain.Set(action)
		}
		if err := t.tx.Update(patch); err != nil {
			return nil, err
		}
		msg := res.Message
		if msg == "" {
			msg = "Card application processed successfully!"
		}
		return domain.Reply(withNudge(msg, t.tx.State())), nil
	}
	return domain.Reply(invalidOption), nil
}

// selectCardToBlock blocks the chosen card.
func (e *Engine) selectCardToBlock(t *turn, pending *domain.PendingSelection) (*domain.ChatResponse, error) {
	opt, ok := MatchOption(t.message, pending.Options)
	if !ok {
		return domain.Reply(invalidCardSelected), nil
	}
	res, err := e.bank.BlockCard(t.ctx, t.userID, opt.ID)
	if err != nil {
		return e.bankFailure(t, "block_card", err, "❌ Unable to block the card. Please try again.")
	}

	patch := domain.Patch{PendingAction: domain.Clear[*domain.PendingSelection]()}
	var text string
	switch conf, isConf := res.Data.(domain.BlockConfirmation); {
	case res.OK() && isConf:
		text = formatBlocked(res.Message, conf)
		patch.LastCompletedAction = domain.Set(&domain.CompletedAction{
			Type:      string(domain.SelectCardBlocking),
			Timestamp: e.now(),
		})
	case res.Status == domain.StatusWarning:
		text = "⚠️ " + res.Message
	default:
		text = "❌ " + res.Message
	}
	if err := t.tx.Update(patch); err != nil {
		return nil, err
	}
	return domain.Reply(withNudge(text, t.tx.State())), nil
}

// closeMenu drops the pending selection and answers with msg.
func (e *Engine) closeMenu(t *turn, msg string) (*domain.ChatResponse, error) {
	if err := t.tx.Update(domain.Patch{PendingAction: domain.Clear[*domain.PendingSelection]()}); err != nil {
		return nil, err
	}
	return domain.Reply(msg), nil
}
