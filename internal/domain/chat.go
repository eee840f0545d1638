package domain

// Roles understood by chat-completion style providers.
const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is the provider-agnostic chat message shape sent to LLM
// integrations. Conversation turns are mapped onto it at the generator
// boundary (learner -> user, tutor -> assistant).
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
