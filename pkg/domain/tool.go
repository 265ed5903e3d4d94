package domain

// ToolCall is a structured invocation returned by the completion service.
// Compatible with OpenAI/MCP tool call schemas.
type ToolCall struct {
	ID   string         `json:"id" yaml:"id" mapstructure:"id"`                           // Call ID assigned by the model
	Name string         `json:"name" yaml:"name" mapstructure:"name"`                     // Function name to call
	Args map[string]any `json:"args,omitempty" yaml:"args,omitempty" mapstructure:"args"` // Decoded JSON arguments
}

// Tool describes a callable tool advertised to the completion service.
type Tool struct {
	Name        string         `json:"name" yaml:"name" mapstructure:"name"`
	Description string         `json:"description" yaml:"description" mapstructure:"description"`
	Parameters  map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty" mapstructure:"parameters"`
}

// CompletionRequest is one call to the completion service.
type CompletionRequest struct {
	Prompt       string
	SystemPrompt string
	Tools        []Tool
}

// Completion is either free text or a single tool call.
type Completion struct {
	Text     string
	ToolCall *ToolCall
}

// HasToolCall reports whether the model asked for a tool.
func (c Completion) HasToolCall() bool {
	return c.ToolCall != nil
}
