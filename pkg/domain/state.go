package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ProcessType identifies the workflow driven by a multi-step process.
type ProcessType string

const (
	ProcessLoan  ProcessType = "loan_application"
	ProcessLimit ProcessType = "limit_modification"
)

// Step names the next slot a workflow (or selection) is waiting for.
type Step string

const (
	StepAmount   Step = "amount"
	StepPurpose  Step = "purpose"
	StepIncome   Step = "income"
	StepNewLimit Step = "new_limit"

	StepCardSelection  Step = "card_selection"
	StepTypeSelection  Step = "type_selection"
	StepBrandSelection Step = "brand_selection"
)

// loanSlots is the number of slots a loan application collects.
const loanSlots = 3

// LoanData holds the slots of a loan application. A nil slot is unfilled.
type LoanData struct {
	Amount  *float64 `json:"amount"`
	Purpose *string  `json:"purpose"`
	Income  *float64 `json:"income"`
}

// Filled counts the slots that hold a value.
func (d LoanData) Filled() int {
	n := 0
	if d.Amount != nil {
		n++
	}
	if d.Purpose != nil {
		n++
	}
	if d.Income != nil {
		n++
	}
	return n
}

// NextStep returns the first unfilled slot, or "" when all are filled.
func (d LoanData) NextStep() Step {
	switch {
	case d.Amount == nil:
		return StepAmount
	case d.Purpose == nil:
		return StepPurpose
	case d.Income == nil:
		return StepIncome
	}
	return ""
}

// Merge fills the empty slots of d from other. Slots already set in d win.
func (d LoanData) Merge(other LoanData) LoanData {
	if d.Amount == nil {
		d.Amount = other.Amount
	}
	if d.Purpose == nil {
		d.Purpose = other.Purpose
	}
	if d.Income == nil {
		d.Income = other.Income
	}
	return d
}

func (d LoanData) clone() *LoanData {
	c := LoanData{}
	if d.Amount != nil {
		c.Amount = Ptr(*d.Amount)
	}
	if d.Purpose != nil {
		c.Purpose = Ptr(*d.Purpose)
	}
	if d.Income != nil {
		c.Income = Ptr(*d.Income)
	}
	return &c
}

// LimitData holds the slots of a credit limit modification.
type LimitData struct {
	CardID       string  `json:"card_id"`
	CurrentLimit float64 `json:"current_limit"`
}

// Process is the single active multi-step workflow of a session.
// Exactly one of Loan or Limit is set, matching Type.
type Process struct {
	Type             ProcessType
	CurrentStep      Step
	Loan             *LoanData
	Limit            *LimitData
	ProcessComplete  bool
	IsNewApplication bool
}

// NewLoanProcess starts (or continues) a loan application at the next missing slot.
func NewLoanProcess(data LoanData) *Process {
	return &Process{
		Type:        ProcessLoan,
		CurrentStep: data.NextStep(),
		Loan:        data.clone(),
	}
}

// NewLimitProcess starts the new_limit step for an already selected card.
func NewLimitProcess(data LimitData) *Process {
	return &Process{
		Type:        ProcessLimit,
		CurrentStep: StepNewLimit,
		Limit:       &data,
	}
}

// Is reports whether p is an active process of the given type.
func (p *Process) Is(t ProcessType) bool {
	return p != nil && p.Type == t
}

// LoanData returns the collected loan slots, or an empty set.
func (p *Process) LoanData() LoanData {
	if p == nil || p.Loan == nil {
		return LoanData{}
	}
	return *p.Loan
}

// CompletionPercentage estimates progress from the filled slots.
// Only loan applications are modelled; other workflows report 0.
func (p *Process) CompletionPercentage() float64 {
	if p == nil || p.Type != ProcessLoan || p.Loan == nil {
		return 0
	}
	return float64(p.Loan.Filled()) / loanSlots * 100
}

// Clone returns a deep copy of p.
func (p *Process) Clone() *Process {
	if p == nil {
		return nil
	}
	c := *p
	if p.Loan != nil {
		c.Loan = p.Loan.clone()
	}
	if p.Limit != nil {
		l := *p.Limit
		c.Limit = &l
	}
	return &c
}

type processJSON struct {
	Type             ProcessType     `json:"type"`
	CurrentStep      Step            `json:"current_step"`
	CollectedData    json.RawMessage `json:"collected_data"`
	ProcessComplete  bool            `json:"process_complete"`
	IsNewApplication bool            `json:"is_new_application,omitempty"`
}

// MarshalJSON writes the active variant under collected_data.
func (p Process) MarshalJSON() ([]byte, error) {
	var data any = struct{}{}
	switch {
	case p.Loan != nil:
		data = p.Loan
	case p.Limit != nil:
		data = p.Limit
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(processJSON{
		Type:             p.Type,
		CurrentStep:      p.CurrentStep,
		CollectedData:    raw,
		ProcessComplete:  p.ProcessComplete,
		IsNewApplication: p.IsNewApplication,
	})
}

// UnmarshalJSON decodes collected_data into the variant named by type.
func (p *Process) UnmarshalJSON(b []byte) error {
	var pj processJSON
	if err := json.Unmarshal(b, &pj); err != nil {
		return err
	}
	*p = Process{
		Type:             pj.Type,
		CurrentStep:      pj.CurrentStep,
		ProcessComplete:  pj.ProcessComplete,
		IsNewApplication: pj.IsNewApplication,
	}
	if len(pj.CollectedData) == 0 || string(pj.CollectedData) == "null" {
		pj.CollectedData = []byte("{}")
	}
	switch pj.Type {
	case ProcessLoan:
		p.Loan = &LoanData{}
		return json.Unmarshal(pj.CollectedData, p.Loan)
	case ProcessLimit:
		p.Limit = &LimitData{}
		return json.Unmarshal(pj.CollectedData, p.Limit)
	default:
		// Unknown workflows survive a round trip so the router can report them.
		return nil
	}
}

// SelectionKind classifies a pending selection for re-dispatch.
type SelectionKind string

const (
	SelectCardManagement    SelectionKind = "card_management"
	SelectNewCard           SelectionKind = "new_card_application"
	SelectCardBlocking      SelectionKind = "card_blocking"
	SelectLimitModification SelectionKind = "limit_modification"
)

// PendingSelection is the menu most recently presented to the user.
type PendingSelection struct {
	Tool        string         `json:"tool"`
	Step        Step           `json:"step,omitempty"`
	Options     []Option       `json:"options"`
	ProcessType SelectionKind  `json:"process_type"`
	CardType    string         `json:"card_type,omitempty"`
	Args        map[string]any `json:"args,omitempty"`
}

// SuspendedProcess is a snapshot of a workflow interrupted by a topic switch.
type SuspendedProcess struct {
	Context              string      `json:"context"`
	Timestamp            time.Time   `json:"timestamp"`
	Process              *Process    `json:"multi_step_process"`
	OriginalContext      ProcessType `json:"original_context"`
	CompletionPercentage float64     `json:"completion_percentage"`
}

// LoanResumeChoice is the open continue-or-start-new question.
type LoanResumeChoice struct {
	Suspended    *Process `json:"suspended_process"`
	MessageShown bool     `json:"message_shown"`
}

// TopicSwitch records a coarse topic transition detected in free text.
type TopicSwitch struct {
	From         []string `json:"from_topics"`
	To           []string `json:"to_topics"`
	PreviousTask string   `json:"previous_task,omitempty"`
	Message      string   `json:"switch_message"`
}

// CompletedAction stamps the last workflow that finished.
type CompletedAction struct {
	Type          string    `json:"type"`
	ApplicationID string    `json:"application_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// SessionState is the per-session document. Writes go through Merge.
type SessionState struct {
	MultiStepProcess    *Process           `json:"multi_step_process,omitempty"`
	PendingAction       *PendingSelection  `json:"pending_action,omitempty"`
	SuspendedProcesses  []SuspendedProcess `json:"suspended_processes,omitempty"`
	LoanResumeChoice    *LoanResumeChoice  `json:"loan_resume_choice,omitempty"`
	ContextSwitched     bool               `json:"context_switched,omitempty"`
	LastContextSwitch   string             `json:"last_context_switch,omitempty"`
	ContextSwitch       *TopicSwitch       `json:"context_switch,omitempty"`
	ActiveTopics        []string           `json:"active_topics,omitempty"`
	LastToolUsed        string             `json:"last_tool_used,omitempty"`
	LastToolResult      json.RawMessage    `json:"last_tool_result,omitempty"`
	LastCompletedAction *CompletedAction   `json:"last_completed_action,omitempty"`
	UpdatedAt           time.Time          `json:"updated_at"`

	// Sealed is the encrypted document written by an encrypting store.
	// When set, every other field except UpdatedAt is empty.
	Sealed []byte `json:"sealed,omitempty"`
}

// NewSessionState returns an empty document.
func NewSessionState() *SessionState {
	return &SessionState{}
}

// LatestSuspended scans from the end for the most recent snapshot of type t.
func (s SessionState) LatestSuspended(t ProcessType) *SuspendedProcess {
	for i := len(s.SuspendedProcesses) - 1; i >= 0; i-- {
		if s.SuspendedProcesses[i].Process.Is(t) {
			return &s.SuspendedProcesses[i]
		}
	}
	return nil
}

// LastSuspended returns the most recent snapshot of any type.
func (s SessionState) LastSuspended() *SuspendedProcess {
	if len(s.SuspendedProcesses) == 0 {
		return nil
	}
	return &s.SuspendedProcesses[len(s.SuspendedProcesses)-1]
}

// SuspendedExcept returns the snapshots whose workflow is not t.
func (s SessionState) SuspendedExcept(t ProcessType) []SuspendedProcess {
	out := make([]SuspendedProcess, 0, len(s.SuspendedProcesses))
	for _, sp := range s.SuspendedProcesses {
		if !sp.Process.Is(t) {
			out = append(out, sp)
		}
	}
	return out
}

// Clone returns a deep copy through a JSON round trip.
func (s *SessionState) Clone() (*SessionState, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	var c SessionState
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return &c, nil
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
