// expander/utils/types/chat.go
package types

// SendMessageRequest is the payload for POST /chat/ and the websocket shell.
type SendMessageRequest struct {
	Date         string `json:"date,omitempty"` // YYYY-MM-DD; today when empty
	Content      string `json:"content"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// SendMessageResponse carries the persisted assistant reply back to the shell.
type SendMessageResponse struct {
	ConversationID string `json:"conversation_id"`
	Reply          string `json:"reply"`
	Fallback       bool   `json:"fallback"`
	ErrorMessage   string `json:"error_message,omitempty"`
}

// ConversationSummary is the list-view row for the calendar panel.
type ConversationSummary struct {
	ConversationID string `json:"conversation_id"`
	Date           string `json:"date"`
	DayNumber      int    `json:"day_number"`
	MessageCount   int    `json:"message_count"`
	HasSummary     bool   `json:"has_summary"`
}

// ExportResponse reports where a transcript archive landed.
type ExportResponse struct {
	Key string `json:"key"`
}
