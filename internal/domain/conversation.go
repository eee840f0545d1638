package domain

// Role tags a conversation turn with its speaker.
type Role string

const (
	RoleLearner Role = "learner"
	RoleTutor   Role = "tutor"
)

// Turn is a single role-tagged message within a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TurnRecord is a single persisted conversation turn: the learner's message
// together with the tutor reply it produced.
type TurnRecord struct {
	PK             string
	SK             string
	ConversationID string
	LearnerText    string
	TutorReply     string
	Level          string
	Language       string
	Status         string
	TTL            int64
}

// ConversationMeta stores aggregate conversation state.
type ConversationMeta struct {
	PK             string
	SK             string
	ConversationID string
	LastActivity   string
	Turns          int
	TTL            int64
}
