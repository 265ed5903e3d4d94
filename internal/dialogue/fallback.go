package dialogue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/teller/pkg/domain"
	"github.com/aretw0/teller/pkg/tools"
)

// selectionKinds files a menu returned by a model-chosen tool under the
// flow that serves the reply.
var selectionKinds = map[string]domain.SelectionKind{
	tools.GetUserCards: domain.SelectCardBlocking,
}

// handleModel asks the completion service when no rule claims the turn.
// Any failure on the way lands on a scripted reply.
func (e *Engine) handleModel(t *turn) (*domain.ChatResponse, error) {
	before := t.tx.State()
	if err := e.detectTopicSwitch(t); err != nil {
		return e.llmFailure(t, before, err), nil
	}
	resp, err := e.consultModel(t)
	if err != nil {
		return e.llmFailure(t, before, err), nil
	}
	return resp, nil
}

func (e *Engine) consultModel(t *turn) (*domain.ChatResponse, error) {
	if e.completer == nil {
		return nil, domain.ErrCompletionUnavailable
	}

	recent, err := e.history.Recent(t.ctx, t.sessionID, e.historyWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	profile, err := e.bank.UserProfile(t.ctx, t.userID)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	uc := UserContext{Name: "Valued Customer", AccountType: "Standard", RecentActivity: recentActivity(recent)}
	if profile != nil {
		uc.Name, uc.AccountType = profile.Name, profile.AccountType
	}
	system := SystemPrompt(uc)

	decision, err := e.complete(t, domain.CompletionRequest{
		Prompt:       BuildPrompt(recent, t.tx.State(), profile, t.message),
		SystemPrompt: system,
		Tools:        e.executor.Catalog(),
	})
	if err != nil {
		return nil, err
	}
	if !decision.HasToolCall() {
		if strings.TrimSpace(decision.Text) == "" {
			return nil, domain.ErrEmptyCompletion
		}
		return domain.Reply(decision.Text), nil
	}

	call := *decision.ToolCall
	outcome := e.executor.Execute(t.ctx, t.userID, call)
	if err := e.rememberTool(t, outcome); err != nil {
		return nil, err
	}

	res := outcome.Result
	switch {
	case res != nil && res.RequiresSelection:
		kind, ok := selectionKinds[call.Name]
		if !ok {
			return domain.Reply(res.Message), nil
		}
		return e.offer(t, res, &domain.PendingSelection{
			Tool:        call.Name,
			Options:     res.Options,
			ProcessType: kind,
			Args:        call.Args,
		})

	case res != nil && res.RequiresContinuation && res.Continuation != nil:
		if err := t.tx.Update(domain.Patch{MultiStepProcess: domain.Set(res.Continuation)}); err != nil {
			return nil, err
		}
		return domain.Reply(res.Message), nil
	}

	var payload any = outcome.Failure
	if res != nil {
		payload = res
	}
	return domain.Reply(e.rephrase(t, call.Name, payload, res, system)), nil
}

// complete times one call to the completion service.
func (e *Engine) complete(t *turn, req domain.CompletionRequest) (domain.Completion, error) {
	start := time.Now()
	c, err := e.completer.Complete(t.ctx, req)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	e.metrics.CompletionObserved(outcome, time.Since(start))
	return c, err
}

// rememberTool stamps the last tool call on the session.
func (e *Engine) rememberTool(t *turn, o tools.Outcome) error {
	var payload any = o.Failure
	if o.Result != nil {
		payload = o.Result
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode tool result: %w", err)
	}
	return t.tx.Update(domain.Patch{
		LastToolUsed:   domain.Set(o.Tool),
		LastToolResult: domain.Set(json.RawMessage(raw)),
	})
}

// rephrase turns a tool result into prose with a second completion,
// falling back to a canned sentence.
func (e *Engine) rephrase(t *turn, tool string, payload any, res *domain.Result, system string) string {
	c, err := e.complete(t, domain.CompletionRequest{
		Prompt:       RephrasePrompt(tool, payload, t.message),
		SystemPrompt: system,
	})
	if err == nil && strings.TrimSpace(c.Text) != "" {
		return c.Text
	}
	e.logger.Warn("Rephrasing failed, using canned reply",
		"session_id", t.sessionID,
		"tool", tool,
		"err", err,
	)
	return cannedReply(tool, res)
}

func cannedReply(tool string, res *domain.Result) string {
	switch tool {
	case tools.GetAccountBalance:
		var balance float64
		if res != nil {
			if b, ok := res.Data.(domain.BalanceSummary); ok {
				balance = b.CurrentBalance
			}
		}
		return fmt.Sprintf("Your current account balance is %s. Is there anything else I can help you with?", domain.Money(balance))
	case tools.GetMiniStatement:
		return "I've retrieved your recent transactions. You can see them above. Let me know if you need any clarification!"
	}
	return "I've completed your request. Is there anything else I can help you with today?"
}

// loanStepFallbacks keep an application moving when the model is down.
var loanStepFallbacks = map[domain.Step]string{
	domain.StepAmount:  "I'm having trouble processing your loan amount. Could you please specify the loan amount you need? For example: '$15,000' or 'I need $15000'",
	domain.StepPurpose: "I need to know the purpose of your loan. What will you use this loan for? (e.g., home renovation, car purchase, debt consolidation)",
	domain.StepIncome:  "To complete your loan application, I need your annual income information. What is your yearly gross income?",
}

// llmFailure picks a scripted reply from the state the turn started in.
func (e *Engine) llmFailure(t *turn, st domain.SessionState, err error) *domain.ChatResponse {
	e.logger.Warn("Model path failed, using fallback reply",
		"session_id", t.sessionID,
		"err", err,
	)
	return domain.Reply(FallbackText(st, t.message))
}

// FallbackText is the reply used when the completion service cannot answer.
func FallbackText(st domain.SessionState, message string) string {
	lower := strings.ToLower(message)
	if proc := st.MultiStepProcess; proc.Is(domain.ProcessLoan) {
		if text, ok := loanStepFallbacks[proc.CurrentStep]; ok {
			return text
		}
		return "I'm having trouble with your loan application. Let me help you start over. What loan amount do you need?"
	}
	switch {
	case strings.Contains(lower, "balance"):
		return "I'd be happy to help you check your account balance. Let me retrieve that information for you."
	case strings.Contains(lower, "card"):
		return "I can help you with your card services. What would you like to do with your cards today?"
	case strings.Contains(lower, "loan"):
		return "I'm here to assist with your loan inquiries. What specific information about loans can I help you with?"
	}
	return "I'm here to help with your banking needs. You can ask me about your account balance, cards, transactions, or loan applications. What would you like to know?"
}
