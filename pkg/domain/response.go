package domain

// ChatResponse is the single reply produced for a turn.
type ChatResponse struct {
	Response          string        `json:"response"`
	State             *SessionState `json:"state,omitempty"`
	RequiresSelection bool          `json:"requires_selection"`
	Options           []Option      `json:"options,omitempty"`
}

// Reply builds a plain text response.
func Reply(text string) *ChatResponse {
	return &ChatResponse{Response: text}
}

// Menu builds a response that asks the user to pick an option.
func Menu(text string, opts []Option) *ChatResponse {
	return &ChatResponse{Response: text, RequiresSelection: true, Options: opts}
}
