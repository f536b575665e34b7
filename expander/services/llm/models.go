package llm

// Wire types for the XAI chat completions API (OpenAI-compatible).

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// APIMessage is one role-tagged entry in a chat completion request.
type APIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the request body for POST {baseURL}/chat/completions.
type ChatRequest struct {
	Model       string       `json:"model"`
	Messages    []APIMessage `json:"messages"`
	Stream      bool         `json:"stream"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
	Temperature float64      `json:"temperature,omitempty"`
}

type ChatChoice struct {
	Index        int         `json:"index"`
	Message      *APIMessage `json:"message"`
	Delta        *APIMessage `json:"delta"`
	FinishReason string      `json:"finish_reason"`
}

type UsageInfo struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type APIErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// ChatResponse is the response envelope. A 2xx body can still carry an
// embedded error object instead of choices.
type ChatResponse struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []ChatChoice  `json:"choices"`
	Usage   *UsageInfo    `json:"usage"`
	Error   *APIErrorBody `json:"error"`
}

// Content extracts the completion text, preferring the full message over a delta.
func (r *ChatResponse) Content() string {
	if len(r.Choices) == 0 {
		return ""
	}
	if m := r.Choices[0].Message; m != nil && m.Content != "" {
		return m.Content
	}
	if d := r.Choices[0].Delta; d != nil {
		return d.Content
	}
	return ""
}

// NormalizeRole maps the locally stored role vocabulary onto the API's.
// Conversations persist assistant turns as "ai".
func NormalizeRole(role string) string {
	if role == "ai" {
		return RoleAssistant
	}
	return role
}

func validRole(role string) bool {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}
