package dialogue

import (
	"fmt"

	"github.com/aretw0/teller/pkg/classify"
	"github.com/aretw0/teller/pkg/domain"
)

// suspend parks the active workflow, if any, before a handler switches
// the conversation to target.
func (e *Engine) suspend(t *turn, target string) error {
	st := t.tx.State()
	proc := st.MultiStepProcess
	if proc == nil {
		return nil
	}
	snapshot := domain.SuspendedProcess{
		Context:              target,
		Timestamp:            e.now(),
		Process:              proc.Clone(),
		OriginalContext:      proc.Type,
		CompletionPercentage: proc.CompletionPercentage(),
	}
	suspended := append(append([]domain.SuspendedProcess(nil), st.SuspendedProcesses...), snapshot)

	if err := t.tx.Update(domain.Patch{
		MultiStepProcess:   domain.Clear[*domain.Process](),
		SuspendedProcesses: domain.Set(suspended),
		ContextSwitched:    domain.Set(true),
		LastContextSwitch:  domain.Set(target),
	}); err != nil {
		return err
	}
	e.metrics.ProcessSuspended(string(proc.Type))
	e.logger.Debug("Process suspended",
		"session_id", t.sessionID,
		"process", proc.Type,
		"context", target,
		"completion", snapshot.CompletionPercentage,
	)
	return nil
}

// Nudge is the reminder appended to a reply while suspended work exists.
// It returns "" when nothing is suspended.
func Nudge(st domain.SessionState) string {
	if loan := st.LatestSuspended(domain.ProcessLoan); loan != nil && loan.CompletionPercentage > 0 {
		return fmt.Sprintf("💡 **Note**: You have a loan application %.0f%% complete. "+
			"Say 'continue loan' to resume or 'new loan' to start fresh.", loan.CompletionPercentage)
	}
	latest := st.LastSuspended()
	if latest == nil || latest.Process == nil {
		return ""
	}
	if latest.Process.Is(domain.ProcessLoan) {
		return "💡 **Note**: You have a loan application in progress. Would you like to continue with it?"
	}
	return "💡 **Note**: You have a pending action. Would you like to complete it?"
}

// withNudge appends the suspended-work reminder to text.
func withNudge(text string, st domain.SessionState) string {
	if n := Nudge(st); n != "" {
		return text + "\n\n" + n
	}
	return text
}

// detectTopicSwitch records a change of subject ahead of the model path.
// It only annotates the document; nothing is suspended.
func (e *Engine) detectTopicSwitch(t *turn) error {
	st := t.tx.State()
	topics := classify.SwitchTopics(t.message)
	if len(topics) == 0 || overlaps(st.ActiveTopics, topics) {
		return nil
	}
	e.logger.Debug("Topic switch detected",
		"session_id", t.sessionID,
		"from", st.ActiveTopics,
		"to", topics,
	)
	return t.tx.Update(domain.Patch{
		ContextSwitch: domain.Set(&domain.TopicSwitch{
			From:         append([]string{}, st.ActiveTopics...),
			To:           topics,
			PreviousTask: st.LastToolUsed,
			Message:      t.message,
		}),
		ActiveTopics: domain.Set(topics),
	})
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
