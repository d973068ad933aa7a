package domain

type TurnRole string

const (
	RoleUser      TurnRole = "user"
	RoleAssistant TurnRole = "assistant"
)

// Turn is one message in a session's conversation log.
type Turn struct {
	Role    TurnRole `json:"role"`
	Content string   `json:"content"`
}
