package dialogue

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/teller/pkg/domain"
)

// promptTurns is how much of the transcript the model sees.
const promptTurns = 5

const basePersona = `You are SecureBank's intelligent conversational assistant, designed to provide exceptional banking support with human-like understanding and efficiency.

CORE CAPABILITIES:
• Multi-turn conversation management with perfect context retention
• Goal-oriented task completion for complex banking workflows
• Real-time adaptation to changing user intents and context switches
• Intelligent clarification when facing ambiguous or incomplete requests
• Seamless integration with banking systems and knowledge bases

PRIMARY BANKING SERVICES:
1. LOAN APPLICATIONS - Guide users through complete loan processes, handle existing applications
2. CARD MANAGEMENT - Block/unblock cards, manage multiple cards, security features
3. ACCOUNT SERVICES - Balances, statements, transaction history, account details
4. INFORMATION SERVICES - Interest rates, fees, policies, general banking questions

CONVERSATION PRINCIPLES:
• Maintain context across all interactions - remember previous requests and user preferences
• Handle interruptions gracefully - if user switches topics, acknowledge and adapt seamlessly
• Ask intelligent clarifying questions for ambiguous requests
• Provide progressive disclosure - gather information step-by-step for complex tasks
• Recognize and respond to emotional cues (urgency for lost cards, excitement for loans)
• Use natural, conversational language while maintaining professionalism

CONTEXT AWARENESS:
• Remember user's banking history and preferences throughout conversation
• Detect when users change topics and smoothly transition
• Maintain awareness of incomplete tasks and offer to continue them later
• Understand implicit requests (e.g., "I lost my wallet" implies card blocking)

RESPONSE STRATEGY:
• For urgent requests (lost cards): Prioritize immediate action
• For complex processes (loans): Break into manageable steps
• For information requests: Provide comprehensive yet concise answers
• For ambiguous requests: Ask targeted clarifying questions
• Always confirm critical actions before execution

ERROR HANDLING:
• If external systems are unavailable, provide alternative solutions
• Escalate to human agents when necessary
• Maintain user confidence even during technical difficulties

PERSONALIZATION:
• Address users by name when available
• Reference their specific account details and history
• Adapt communication style to user preferences
• Remember user's preferred interaction patterns`

var instructions = []string{
	"Analyze the user's intent considering full conversation context",
	"Handle context switches gracefully - acknowledge topic changes",
	"For ambiguous requests, ask intelligent clarifying questions",
	"Use tools when real-time data or actions are needed",
	"Maintain awareness of suspended tasks and offer to resume them",
	"Provide personalized responses based on user profile",
}

// UserContext personalizes the system prompt.
type UserContext struct {
	Name           string
	AccountType    string
	RecentActivity string
}

// SystemPrompt is the persona with the user's context appended.
func SystemPrompt(uc UserContext) string {
	var b strings.Builder
	b.WriteString(basePersona)
	if uc.Name != "" {
		fmt.Fprintf(&b, "\n\nUSER CONTEXT:\n• Customer Name: %s", uc.Name)
	}
	if uc.AccountType != "" {
		fmt.Fprintf(&b, "\n• Account Type: %s", uc.AccountType)
	}
	if uc.RecentActivity != "" {
		fmt.Fprintf(&b, "\n• Recent Activity: %s", uc.RecentActivity)
	}
	return b.String()
}

// BuildPrompt assembles the user prompt for the model path.
func BuildPrompt(recent []domain.Turn, st domain.SessionState, profile *domain.User, message string) string {
	var parts []string

	if len(recent) > promptTurns {
		recent = recent[len(recent)-promptTurns:]
	}
	if len(recent) > 0 {
		parts = append(parts, "RECENT CONVERSATION:")
		for _, t := range recent {
			parts = append(parts, "User: "+t.User, "Assistant: "+t.Assistant)
		}
	}

	var ctx []string
	if sw := st.ContextSwitch; sw != nil {
		ctx = append(ctx, fmt.Sprintf("Context Switch Detected: From %s to %s", topicList(sw.From), topicList(sw.To)))
	}
	if len(st.SuspendedProcesses) > 0 {
		tasks := make([]string, len(st.SuspendedProcesses))
		for i, sp := range st.SuspendedProcesses {
			tasks[i] = fmt.Sprintf("%s (%.0f%% complete)", sp.OriginalContext, sp.CompletionPercentage)
		}
		ctx = append(ctx, "Suspended Tasks: "+strings.Join(tasks, ", "))
	}
	if st.LastToolUsed != "" {
		ctx = append(ctx, "Current Task: "+st.LastToolUsed)
	}
	if len(ctx) > 0 {
		parts = append(parts, "\nCURRENT CONTEXT:")
		parts = append(parts, ctx...)
	}

	if profile != nil {
		parts = append(parts, "\nUSER PROFILE:",
			"Account Type: "+profile.AccountType,
			"Preferred Communication: Professional")
	}

	parts = append(parts, "\nCURRENT USER MESSAGE: "+message, "\nINSTRUCTIONS:")
	for i, in := range instructions {
		parts = append(parts, fmt.Sprintf("%d. %s", i+1, in))
	}
	return strings.Join(parts, "\n")
}

func topicList(topics []string) string {
	return "[" + strings.Join(topics, ", ") + "]"
}

// RephrasePrompt asks the model to turn a tool result into a reply.
func RephrasePrompt(tool string, result any, message string) string {
	raw, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		raw = []byte(fmt.Sprintf("%v", result))
	}
	return fmt.Sprintf(`
Based on the tool execution result, generate a helpful, personalized response.

Tool Used: %s
Tool Result: %s
User's Message: %s

Consider:
- The user's conversation history and context
- Any suspended tasks that might be relevant
- The user's emotional state (urgency, excitement, concern)
- Opportunities to provide additional helpful information
- Natural conversation flow and transitions

Provide a response that feels natural, helpful, and contextually appropriate:
`, tool, raw, message)
}

// recentActivity summarizes the transcript for the system prompt.
func recentActivity(turns []domain.Turn) string {
	mem := domain.Summarize(turns)
	if len(mem.TopicsDiscussed) == 0 {
		return "Account inquiries"
	}
	return "Discussed " + strings.Join(mem.TopicsDiscussed, ", ")
}
