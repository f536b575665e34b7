package llm

import "unicode/utf8"

const (
	// MaxContextChars bounds the summed character length of all message
	// contents in one request. A rough token proxy.
	MaxContextChars = 100_000

	// MaxSystemPromptChars bounds the system prompt length.
	MaxSystemPromptChars = 10_000

	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7
)

// Turn is one entry of conversation history handed to the request builder.
// Role may use the stored vocabulary ("ai") or the wire one ("assistant").
type Turn struct {
	Role    string
	Content string
}

// BuildRequest converts ordered conversation history into a validated wire
// request. The system prompt, when present, becomes the leading system-role
// entry; message order is otherwise preserved. Pure: no side effects.
func BuildRequest(model string, history []Turn, systemPrompt string) (*ChatRequest, error) {
	if utf8.RuneCountInString(systemPrompt) > MaxSystemPromptChars {
		return nil, NewError(KindSystemPromptTooLong)
	}
	if len(history) == 0 {
		return nil, NewError(KindInvalidMessageFormat)
	}

	messages := make([]APIMessage, 0, len(history)+1)
	if systemPrompt != "" {
		messages = append(messages, APIMessage{Role: RoleSystem, Content: systemPrompt})
	}

	total := 0
	for _, turn := range history {
		role := NormalizeRole(turn.Role)
		if !validRole(role) {
			return nil, NewError(KindInvalidMessageFormat)
		}
		if turn.Content == "" {
			return nil, NewError(KindInvalidMessageFormat)
		}
		total += utf8.RuneCountInString(turn.Content)
		messages = append(messages, APIMessage{Role: role, Content: turn.Content})
	}
	if total > MaxContextChars {
		return nil, NewError(KindContextTooLong)
	}

	return &ChatRequest{
		Model:       model,
		Messages:    messages,
		Stream:      false,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	}, nil
}
