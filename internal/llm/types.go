package llm

// Chat roles shared by every provider client.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes one generation call.
type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Response is a finished generation.
type Response struct {
	Content    string
	StopReason string
}
