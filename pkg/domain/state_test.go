package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoanData_NextStep(t *testing.T) {
	tests := []struct {
		name string
		data LoanData
		want Step
	}{
		{"Empty", LoanData{}, StepAmount},
		{"Amount", LoanData{Amount: Ptr(20000.0)}, StepPurpose},
		{"Amount and Purpose", LoanData{Amount: Ptr(20000.0), Purpose: Ptr("Auto Purchase")}, StepIncome},
		{"Complete", LoanData{Amount: Ptr(20000.0), Purpose: Ptr("Auto Purchase"), Income: Ptr(60000.0)}, ""},
		{"Purpose Only", LoanData{Purpose: Ptr("Education")}, StepAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.data.NextStep())
		})
	}
}

func TestLoanData_MergeKeepsCollectedSlots(t *testing.T) {
	collected := LoanData{Amount: Ptr(15000.0)}
	extracted := LoanData{Amount: Ptr(60000.0), Purpose: Ptr("Medical Expenses")}

	merged := collected.Merge(extracted)

	assert.Equal(t, 15000.0, *merged.Amount)
	assert.Equal(t, "Medical Expenses", *merged.Purpose)
	assert.Nil(t, merged.Income)
}

func TestProcess_CompletionPercentage(t *testing.T) {
	assert.InDelta(t, 0, NewLoanProcess(LoanData{}).CompletionPercentage(), 0.001)
	assert.InDelta(t, 33.333, NewLoanProcess(LoanData{Amount: Ptr(1000.0)}).CompletionPercentage(), 0.001)
	assert.InDelta(t, 66.666, NewLoanProcess(LoanData{Amount: Ptr(1000.0), Purpose: Ptr("Wedding")}).CompletionPercentage(), 0.001)
	assert.Zero(t, NewLimitProcess(LimitData{CardID: "card_001"}).CompletionPercentage())

	var nilProc *Process
	assert.Zero(t, nilProc.CompletionPercentage())
}

func TestProcess_JSONRoundTrip(t *testing.T) {
	t.Run("Loan", func(t *testing.T) {
		p := NewLoanProcess(LoanData{Amount: Ptr(15000.0)})
		b, err := json.Marshal(p)
		require.NoError(t, err)

		var raw map[string]any
		require.NoError(t, json.Unmarshal(b, &raw))
		assert.Equal(t, "loan_application", raw["type"])
		assert.Equal(t, "purpose", raw["current_step"])
		data := raw["collected_data"].(map[string]any)
		assert.Equal(t, 15000.0, data["amount"])
		assert.Contains(t, data, "purpose")
		assert.Nil(t, data["purpose"])

		var back Process
		require.NoError(t, json.Unmarshal(b, &back))
		assert.Equal(t, *p, back)
	})

	t.Run("Limit", func(t *testing.T) {
		p := NewLimitProcess(LimitData{CardID: "card_003", CurrentLimit: 25000})
		b, err := json.Marshal(p)
		require.NoError(t, err)

		var back Process
		require.NoError(t, json.Unmarshal(b, &back))
		require.NotNil(t, back.Limit)
		assert.Equal(t, "card_003", back.Limit.CardID)
		assert.Nil(t, back.Loan)
	})

	t.Run("Unknown Type Survives", func(t *testing.T) {
		var back Process
		require.NoError(t, json.Unmarshal([]byte(`{"type":"mortgage","current_step":"x","collected_data":{"a":1}}`), &back))
		assert.Equal(t, ProcessType("mortgage"), back.Type)
		assert.Nil(t, back.Loan)
		assert.Nil(t, back.Limit)
	})
}

func TestProcess_CloneIsDeep(t *testing.T) {
	p := NewLoanProcess(LoanData{Amount: Ptr(5000.0)})
	c := p.Clone()
	*c.Loan.Amount = 9000

	assert.Equal(t, 5000.0, *p.Loan.Amount)
}

func TestSessionState_Suspended(t *testing.T) {
	loan := NewLoanProcess(LoanData{Amount: Ptr(5000.0)})
	limit := NewLimitProcess(LimitData{CardID: "card_001"})
	s := &SessionState{SuspendedProcesses: []SuspendedProcess{
		{Context: "balance", Process: loan, OriginalContext: ProcessLoan, Timestamp: time.Now()},
		{Context: "cards", Process: limit, OriginalContext: ProcessLimit, Timestamp: time.Now()},
	}}

	require.NotNil(t, s.LatestSuspended(ProcessLoan))
	assert.Equal(t, "balance", s.LatestSuspended(ProcessLoan).Context)
	assert.Equal(t, "cards", s.LastSuspended().Context)

	rest := s.SuspendedExcept(ProcessLoan)
	require.Len(t, rest, 1)
	assert.Equal(t, ProcessLimit, rest[0].OriginalContext)
	assert.Nil(t, (&SessionState{}).LastSuspended())
}

func TestSessionState_SuspendedOnValue(t *testing.T) {
	snapshot := func() SessionState {
		return SessionState{SuspendedProcesses: []SuspendedProcess{
			{Context: "balance", Process: NewLoanProcess(LoanData{}), OriginalContext: ProcessLoan},
			{Context: "cards", Process: NewLimitProcess(LimitData{}), OriginalContext: ProcessLimit},
		}}
	}

	assert.Len(t, snapshot().SuspendedExcept(ProcessLoan), 1)
	assert.Equal(t, "balance", snapshot().LatestSuspended(ProcessLoan).Context)
	assert.Equal(t, "cards", snapshot().LastSuspended().Context)
}

func TestSessionState_CloneRoundTrip(t *testing.T) {
	s := &SessionState{
		MultiStepProcess: NewLoanProcess(LoanData{Amount: Ptr(2000.0), Purpose: Ptr("Travel")}),
		PendingAction: &PendingSelection{
			Tool:        "limit_modification",
			Step:        StepCardSelection,
			Options:     []Option{{ID: "card_001", Text: "Visa Platinum ending in 1234"}},
			ProcessType: SelectLimitModification,
		},
		LoanResumeChoice: &LoanResumeChoice{Suspended: NewLoanProcess(LoanData{}), MessageShown: true},
	}

	c, err := s.Clone()
	require.NoError(t, err)
	assert.Equal(t, s.MultiStepProcess, c.MultiStepProcess)
	assert.Equal(t, s.PendingAction, c.PendingAction)
	assert.True(t, c.LoanResumeChoice.MessageShown)
}
