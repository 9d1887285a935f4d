package model

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSummary   = "summary"
)

// Message is one entry of a thread's conversation log. Seq is assigned by
// the store and is strictly increasing within a thread.
type Message struct {
	ThreadID string `json:"thread_id"`
	Seq      int64  `json:"seq"`
	Role     string `json:"role"`
	Content  string `json:"content"`
	Ctime    int64  `json:"ctime"`
}

type Thread struct {
	ID         string `json:"id"`
	Ctime      int64  `json:"ctime"`
	LastTurnAt int64  `json:"last_turn_at"`
}
