package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/teller"
	"github.com/aretw0/teller/pkg/adapters/memory"
	"github.com/aretw0/teller/pkg/bank"
	"github.com/aretw0/teller/pkg/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()
	repo := memory.NewBankRepository()
	require.NoError(t, bank.Seed(ctx, repo, time.Date(2025, 7, 28, 10, 30, 0, 0, time.UTC)))
	a := teller.New(bank.New(repo), memory.NewStore(), memory.NewHistory())
	return NewServer(a, "test", WithCatalog(tools.DefaultCatalog()))
}

func TestHandleChat(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleChat(ctx, mcp.CallToolRequest{}, chatArgs{UserID: "user123", SessionID: "mcp-1", Message: "I need a loan"})
	require.NoError(t, err)
	assert.Contains(t, resp.Response, "Step 1: Loan Amount")
	require.NotNil(t, resp.State)
	require.NotNil(t, resp.State.MultiStepProcess)

	resp, err = s.handleChat(ctx, mcp.CallToolRequest{}, chatArgs{UserID: "user123", SessionID: "mcp-1", Message: " 20000 \x00"})
	require.NoError(t, err)
	assert.Contains(t, resp.Response, "$20,000.00")

	hist, err := s.handleHistory(ctx, mcp.CallToolRequest{}, historyArgs{SessionID: "mcp-1"})
	require.NoError(t, err)
	require.Len(t, hist.Turns, 2)
	assert.Equal(t, "20000", hist.Turns[1].User)
	assert.Contains(t, hist.Memory.TopicsDiscussed, "loan")
}

func TestHandleChat_RequiresFields(t *testing.T) {
	s := newTestServer(t)
	_, err := s.handleChat(context.Background(), mcp.CallToolRequest{}, chatArgs{UserID: "user123"})
	assert.Error(t, err)

	_, err = s.handleHistory(context.Background(), mcp.CallToolRequest{}, historyArgs{})
	assert.Error(t, err)
}

func TestHandleHistory_Unknown(t *testing.T) {
	s := newTestServer(t)
	hist, err := s.handleHistory(context.Background(), mcp.CallToolRequest{}, historyArgs{SessionID: "none"})
	require.NoError(t, err)
	assert.Empty(t, hist.Turns)
	assert.NotNil(t, hist.Turns)
}

func TestHandleUserData(t *testing.T) {
	s := newTestServer(t)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"user_id": "user123"}
	res, err := s.handleUserData(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "John Doe")

	req.Params.Arguments = map[string]any{"user_id": "ghost"}
	res, err = s.handleUserData(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
