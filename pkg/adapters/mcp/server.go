package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/teller/internal/logging"
	"github.com/aretw0/teller/pkg/domain"
	"github.com/aretw0/teller/pkg/input"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// CatalogURI is the resource listing the banking tools the model may call.
const CatalogURI = "teller://tools"

// Assistant is the conversational core exposed over MCP.
type Assistant interface {
	ProcessTurn(ctx context.Context, userID, sessionID, message string) (*domain.ChatResponse, error)
	History(ctx context.Context, sessionID string) ([]domain.Turn, domain.Memory, error)
	UserData(ctx context.Context, userID string) (*domain.UserData, error)
}

// HistoryResponse is the structured result of conversation_history.
type HistoryResponse struct {
	SessionID string        `json:"session_id" jsonschema_description:"The session the transcript belongs to"`
	Turns     []domain.Turn `json:"turns" jsonschema_description:"Recent turns, oldest first"`
	Memory    domain.Memory `json:"memory" jsonschema_description:"Topics, completed tasks and statistics derived from the turns"`
}

type chatArgs struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type historyArgs struct {
	SessionID string `json:"session_id"`
}

type userArgs struct {
	UserID string `json:"user_id"`
}

// Server wraps the Assistant and exposes it as an MCP Server.
type Server struct {
	assistant Assistant
	catalog   []domain.Tool
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithCatalog publishes the banking tool schemas as a resource.
func WithCatalog(catalog []domain.Tool) Option {
	return func(s *Server) { s.catalog = catalog }
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a new MCP Server instance.
func NewServer(assistant Assistant, version string, opts ...Option) *Server {
	s := &Server{
		assistant: assistant,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("teller-mcp", version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	if s.catalog != nil {
		s.registerResources()
	}
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when
// ctx is canceled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	chatTool := mcp.NewTool("chat",
		mcp.WithDescription("Send one customer message to the banking assistant and get its single reply. Menus come back with requires_selection and options; answer with an option id or number."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Customer ID, e.g. user123")),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation ID; reuse it to continue a conversation")),
		mcp.WithString("message", mcp.Required(), mcp.Description("The customer's message")),
		mcp.WithOutputSchema[domain.ChatResponse](),
	)
	s.mcpServer.AddTool(chatTool, mcp.NewStructuredToolHandler(s.handleChat))

	historyTool := mcp.NewTool("conversation_history",
		mcp.WithDescription("Get the recent turns of a conversation and the memory derived from them."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation ID")),
		mcp.WithOutputSchema[HistoryResponse](),
	)
	s.mcpServer.AddTool(historyTool, mcp.NewStructuredToolHandler(s.handleHistory))

	s.mcpServer.AddTool(mcp.NewTool("user_data",
		mcp.WithDescription("Get a customer's profile, cards, loans and recent transactions."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Customer ID")),
	), s.handleUserData)
}

func (s *Server) handleChat(ctx context.Context, request mcp.CallToolRequest, args chatArgs) (domain.ChatResponse, error) {
	if args.UserID == "" || args.SessionID == "" || args.Message == "" {
		return domain.ChatResponse{}, errors.New("user_id, session_id and message are required")
	}
	clean, err := input.Sanitize(args.Message)
	if err != nil {
		s.logger.Warn("MCP chat: Input rejected", "err", err, "size", len(args.Message))
		return domain.ChatResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	resp, err := s.assistant.ProcessTurn(ctx, args.UserID, args.SessionID, clean)
	if err != nil {
		s.logger.Error("MCP chat failed", "session_id", args.SessionID, "err", err)
		return domain.ChatResponse{}, fmt.Errorf("error processing request: %w", err)
	}
	return *resp, nil
}

func (s *Server) handleHistory(ctx context.Context, request mcp.CallToolRequest, args historyArgs) (HistoryResponse, error) {
	if args.SessionID == "" {
		return HistoryResponse{}, errors.New("session_id is required")
	}
	turns, mem, err := s.assistant.History(ctx, args.SessionID)
	if err != nil {
		return HistoryResponse{}, fmt.Errorf("history failed: %w", err)
	}
	if turns == nil {
		turns = []domain.Turn{}
	}
	return HistoryResponse{SessionID: args.SessionID, Turns: turns, Memory: mem}, nil
}

func (s *Server) handleUserData(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args userArgs
	if err := request.BindArguments(&args); err != nil || args.UserID == "" {
		return mcp.NewToolResultError("user_id is required"), nil
	}
	data, err := s.assistant.UserData(ctx, args.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("user %s not found", args.UserID)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("user data failed: %v", err)), nil
	}
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(CatalogURI, "Banking tool catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.catalog)
		if err != nil {
			return nil, fmt.Errorf("failed to encode catalog: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      CatalogURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
