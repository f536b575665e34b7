package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Stored role vocabulary. Assistant turns persist as "ai"; the LLM layer maps
// that to "assistant" at the wire.
const (
	RoleUser   = "user"
	RoleAI     = "ai"
	RoleSystem = "system"
)

// Message is one turn inside a Conversation. Immutable once created except by
// deletion. Order is zero-based and assigned at append time.
type Message struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ConversationID uuid.UUID `json:"conversation_id" gorm:"type:uuid;not null;index"`
	Role           string    `json:"role" gorm:"type:varchar(16);not null"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	Order          int       `json:"order" gorm:"column:msg_order;not null"`
	Timestamp      time.Time `json:"timestamp" gorm:"not null"`
}

func (Message) TableName() string {
	return "messages"
}

// DisplayRole renders the role the way transcripts show it.
func (m *Message) DisplayRole() string {
	switch m.Role {
	case RoleUser:
		return "You"
	case RoleAI, "assistant":
		return "AI"
	case RoleSystem:
		return "System"
	default:
		return "Unknown"
	}
}

func (m *Message) IsEmpty() bool {
	return strings.TrimSpace(m.Content) == ""
}
