package dialogue

import (
	"github.com/aretw0/teller/pkg/domain"
	"github.com/aretw0/teller/pkg/ports"
)

var (
	resumePhrases          = []string{"apply new loan", "new loan", "apply loan", "continue loan", "resume loan"}
	explicitResumePhrases  = []string{"continue loan", "resume loan"}
	newLoanPhrases         = []string{"new loan", "apply for new loan", "another loan", "different loan", "start over", "fresh loan", "apply loan"}
	startFreshPhrases      = []string{"start new", "new", "fresh", "different"}
	loanSubmittedNote      = "\n\n💡 **Note**: Your loan application has been successfully submitted and saved to our database. Is there anything else I can help you with today?"
	invalidResumeChoice    = "Please choose either:\n• **'continue'** - to resume your previous loan application\n• **'start new'** - to begin a fresh loan application"
	loanUnavailableMessage = "Unable to process loan application."
)

// loanHints tell the user how to answer the step that failed.
var loanHints = map[domain.Step]string{
	domain.StepAmount:  "\n\nPlease provide a valid loan amount between $1,000 and $50,000. For example: '$15,000' or '15000'",
	domain.StepPurpose: "\n\nPlease specify what you'll use the loan for. Examples: 'home renovation', 'debt consolidation', 'car purchase', 'medical expenses'",
	domain.StepIncome:  "\n\nPlease provide your annual gross income. For example: '$75,000' or 'I make 75000 annually'",
}

// handleLoan drives the loan application: resume offers, fresh starts
// and slot collection.
func (e *Engine) handleLoan(t *turn) (*domain.ChatResponse, error) {
	st := t.tx.State()
	active := st.MultiStepProcess
	if active != nil && !active.Is(domain.ProcessLoan) {
		if err := e.suspend(t, string(domain.ProcessLoan)); err != nil {
			return nil, err
		}
		active = nil
		st = t.tx.State()
	}

	if active == nil && t.has(resumePhrases...) {
		if sp := st.LatestSuspended(domain.ProcessLoan); sp != nil {
			if t.has(explicitResumePhrases...) {
				return e.restoreLoan(t, sp.Process)
			}
			if sp.CompletionPercentage > 0 {
				if err := t.tx.Update(domain.Patch{
					LoanResumeChoice: domain.Set(&domain.LoanResumeChoice{
						Suspended:    sp.Process.Clone(),
						MessageShown: true,
					}),
				}); err != nil {
					return nil, err
				}
				return domain.Reply(resumePrompt(*sp)), nil
			}
		}
	}

	if active != nil && t.has(newLoanPhrases...) {
		if err := t.tx.Update(domain.Patch{MultiStepProcess: domain.Clear[*domain.Process]()}); err != nil {
			return nil, err
		}
		return e.startFreshLoan(t)
	}

	step := domain.StepAmount
	var collected domain.LoanData
	if active != nil {
		step = active.CurrentStep
		collected = active.LoanData()
	}
	known := collected.Merge(ExtractLoanSlots(t.message, step))

	res, err := e.bank.ApplyForLoan(t.ctx, t.userID, ports.LoanRequest{
		Amount:  known.Amount,
		Purpose: known.Purpose,
		Income:  known.Income,
	})
	if err != nil {
		return e.bankFailure(t, "apply_for_loan", err, "I'm having trouble processing your loan application right now. Please try again.")
	}

	switch {
	case res.ProcessComplete:
		action := &domain.CompletedAction{Type: string(domain.ProcessLoan), Timestamp: e.now()}
		if app, ok := res.Data.(domain.LoanApplication); ok {
			action.ApplicationID = app.ID
		}
		if err := t.tx.Update(domain.Patch{
			MultiStepProcess:    domain.Clear[*domain.Process](),
			LastCompletedAction: domain.Set(action),
		}); err != nil {
			return nil, err
		}
		return domain.Reply(res.Message + loanSubmittedNote), nil

	case res.RequiresContinuation && res.Continuation != nil:
		next := domain.NewLoanProcess(res.Continuation.LoanData().Merge(known))
		next.IsNewApplication = res.Continuation.IsNewApplication || (active != nil && active.IsNewApplication)
		if err := t.tx.Update(domain.Patch{MultiStepProcess: domain.Set(next)}); err != nil {
			return nil, err
		}
		return domain.Reply(res.Message), nil

	case res.Status == domain.StatusError:
		msg := res.Message
		if msg == "" {
			msg = loanUnavailableMessage
		}
		failed := res.FailedStep
		if failed == "" && active != nil {
			failed = active.CurrentStep
		}
		return domain.Reply(msg + loanHints[failed]), nil
	}
	return domain.Reply(res.Message), nil
}

// handleResumeChoice answers the continue-or-start-new question.
func (e *Engine) handleResumeChoice(t *turn) (*domain.ChatResponse, error) {
	choice := t.tx.State().LoanResumeChoice
	switch {
	case t.has("continue"):
		return e.restoreLoan(t, choice.Suspended)
	case t.has(startFreshPhrases...):
		if err := t.tx.Update(domain.Patch{
			LoanResumeChoice:   domain.Clear[*domain.LoanResumeChoice](),
			SuspendedProcesses: domain.Set(t.tx.State().SuspendedExcept(domain.ProcessLoan)),
		}); err != nil {
			return nil, err
		}
		return e.startFreshLoan(t)
	}
	return domain.Reply(invalidResumeChoice), nil
}

// restoreLoan makes proc the active workflow again and drops every
// suspended loan snapshot.
func (e *Engine) restoreLoan(t *turn, proc *domain.Process) (*domain.ChatResponse, error) {
	if proc == nil {
		proc = domain.NewLoanProcess(domain.LoanData{})
	}
	restored := domain.NewLoanProcess(proc.LoanData())
	restored.IsNewApplication = proc.IsNewApplication
	if err := t.tx.Update(domain.Patch{
		MultiStepProcess:   domain.Set(restored),
		LoanResumeChoice:   domain.Clear[*domain.LoanResumeChoice](),
		SuspendedProcesses: domain.Set(t.tx.State().SuspendedExcept(domain.ProcessLoan)),
	}); err != nil {
		return nil, err
	}
	e.logger.Debug("Loan application resumed", "session_id", t.sessionID, "step", restored.CurrentStep)
	return domain.Reply(loanStepPrompt(restored)), nil
}

// startFreshLoan opens a new application that ignores earlier answers.
func (e *Engine) startFreshLoan(t *turn) (*domain.ChatResponse, error) {
	res, err := e.bank.ApplyForLoan(t.ctx, t.userID, ports.LoanRequest{ForceNew: true})
	if err != nil {
		return e.bankFailure(t, "apply_for_loan", err, "I'm having trouble processing your loan application right now. Please try again.")
	}
	if res.RequiresContinuation && res.Continuation != nil {
		next := res.Continuation.Clone()
		next.IsNewApplication = true
		if err := t.tx.Update(domain.Patch{MultiStepProcess: domain.Set(next)}); err != nil {
			return nil, err
		}
	}
	return domain.Reply(res.Message), nil
}
