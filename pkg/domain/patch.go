package domain

import (
	"encoding/json"
	"time"
)

// Field is an optional write in a Patch. The zero value leaves the
// target untouched.
type Field[T any] struct {
	value T
	set   bool
}

// Set writes v.
func Set[T any](v T) Field[T] {
	return Field[T]{value: v, set: true}
}

// Clear writes the zero value of T, removing the field from the document.
func Clear[T any]() Field[T] {
	var zero T
	return Field[T]{value: zero, set: true}
}

// IsSet reports whether the field carries a write.
func (f Field[T]) IsSet() bool { return f.set }

// Value returns the written value.
func (f Field[T]) Value() T { return f.value }

func (f Field[T]) apply(dst *T) {
	if f.set {
		*dst = f.value
	}
}

func (f Field[T]) or(other Field[T]) Field[T] {
	if other.set {
		return other
	}
	return f
}

// Patch is a top-level shallow update of a SessionState.
type Patch struct {
	MultiStepProcess    Field[*Process]
	PendingAction       Field[*PendingSelection]
	SuspendedProcesses  Field[[]SuspendedProcess]
	LoanResumeChoice    Field[*LoanResumeChoice]
	ContextSwitched     Field[bool]
	LastContextSwitch   Field[string]
	ContextSwitch       Field[*TopicSwitch]
	ActiveTopics        Field[[]string]
	LastToolUsed        Field[string]
	LastToolResult      Field[json.RawMessage]
	LastCompletedAction Field[*CompletedAction]
}

// Then combines two patches; fields set in next win.
func (p Patch) Then(next Patch) Patch {
	return Patch{
		MultiStepProcess:    p.MultiStepProcess.or(next.MultiStepProcess),
		PendingAction:       p.PendingAction.or(next.PendingAction),
		SuspendedProcesses:  p.SuspendedProcesses.or(next.SuspendedProcesses),
		LoanResumeChoice:    p.LoanResumeChoice.or(next.LoanResumeChoice),
		ContextSwitched:     p.ContextSwitched.or(next.ContextSwitched),
		LastContextSwitch:   p.LastContextSwitch.or(next.LastContextSwitch),
		ContextSwitch:       p.ContextSwitch.or(next.ContextSwitch),
		ActiveTopics:        p.ActiveTopics.or(next.ActiveTopics),
		LastToolUsed:        p.LastToolUsed.or(next.LastToolUsed),
		LastToolResult:      p.LastToolResult.or(next.LastToolResult),
		LastCompletedAction: p.LastCompletedAction.or(next.LastCompletedAction),
	}
}

// IsEmpty reports whether the patch writes nothing.
func (p Patch) IsEmpty() bool {
	return !p.MultiStepProcess.set && !p.PendingAction.set && !p.SuspendedProcesses.set &&
		!p.LoanResumeChoice.set && !p.ContextSwitched.set && !p.LastContextSwitch.set &&
		!p.ContextSwitch.set && !p.ActiveTopics.set && !p.LastToolUsed.set &&
		!p.LastToolResult.set && !p.LastCompletedAction.set
}

// Merge applies p over a copy of s. Fields not set in p survive.
func (s SessionState) Merge(p Patch, now time.Time) SessionState {
	p.MultiStepProcess.apply(&s.MultiStepProcess)
	p.PendingAction.apply(&s.PendingAction)
	p.SuspendedProcesses.apply(&s.SuspendedProcesses)
	p.LoanResumeChoice.apply(&s.LoanResumeChoice)
	p.ContextSwitched.apply(&s.ContextSwitched)
	p.LastContextSwitch.apply(&s.LastContextSwitch)
	p.ContextSwitch.apply(&s.ContextSwitch)
	p.ActiveTopics.apply(&s.ActiveTopics)
	p.LastToolUsed.apply(&s.LastToolUsed)
	p.LastToolResult.apply(&s.LastToolResult)
	p.LastCompletedAction.apply(&s.LastCompletedAction)
	if !p.IsEmpty() {
		s.UpdatedAt = now
	}
	return s
}
