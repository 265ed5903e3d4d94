package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_LeavesUnsetFields(t *testing.T) {
	now := time.Date(2025, 7, 27, 10, 0, 0, 0, time.UTC)
	proc := NewLoanProcess(LoanData{Amount: Ptr(15000.0)})

	s := SessionState{}.Merge(Patch{MultiStepProcess: Set(proc)}, now)
	s = s.Merge(Patch{PendingAction: Set(&PendingSelection{
		Tool:        "block_card",
		ProcessType: SelectCardBlocking,
	})}, now)

	require.NotNil(t, s.MultiStepProcess, "setting pending_action must not erase the active process")
	assert.Equal(t, StepPurpose, s.MultiStepProcess.CurrentStep)
	require.NotNil(t, s.PendingAction)
	assert.Equal(t, SelectCardBlocking, s.PendingAction.ProcessType)
	assert.Equal(t, now, s.UpdatedAt)
}

func TestMerge_LaterWritesWin(t *testing.T) {
	now := time.Now()
	updates := []Patch{
		{LastToolUsed: Set("get_account_balance"), ContextSwitched: Set(true)},
		{LastToolUsed: Set("block_card")},
		{LastContextSwitch: Set("balance")},
	}

	var s SessionState
	for _, u := range updates {
		s = s.Merge(u, now)
	}

	assert.Equal(t, "block_card", s.LastToolUsed)
	assert.True(t, s.ContextSwitched)
	assert.Equal(t, "balance", s.LastContextSwitch)
}

func TestMerge_Clear(t *testing.T) {
	now := time.Now()
	s := SessionState{
		MultiStepProcess: NewLimitProcess(LimitData{CardID: "card_001", CurrentLimit: 15000}),
		ActiveTopics:     []string{"card"},
	}

	s = s.Merge(Patch{MultiStepProcess: Clear[*Process]()}, now)

	assert.Nil(t, s.MultiStepProcess)
	assert.Equal(t, []string{"card"}, s.ActiveTopics)
}

func TestMerge_EmptyPatchKeepsTimestamp(t *testing.T) {
	before := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := SessionState{UpdatedAt: before}.Merge(Patch{}, time.Now())
	assert.Equal(t, before, s.UpdatedAt)
}

func TestPatch_Then(t *testing.T) {
	a := Patch{LastToolUsed: Set("a"), ContextSwitched: Set(true)}
	b := Patch{LastToolUsed: Set("b"), PendingAction: Clear[*PendingSelection]()}

	c := a.Then(b)

	assert.Equal(t, "b", c.LastToolUsed.Value())
	assert.True(t, c.ContextSwitched.Value())
	assert.True(t, c.PendingAction.IsSet())
	assert.Nil(t, c.PendingAction.Value())
	assert.False(t, c.MultiStepProcess.IsSet())
	assert.True(t, Patch{}.IsEmpty())
	assert.False(t, c.IsEmpty())
}
