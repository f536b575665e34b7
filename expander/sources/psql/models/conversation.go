package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is one calendar day of journaling. Date is normalized to
// start-of-day UTC and unique, so there is at most one row per day.
type Conversation struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Date      time.Time `json:"date" gorm:"not null;uniqueIndex"`
	DayNumber int       `json:"day_number" gorm:"not null"`
	Summary   *string   `json:"summary" gorm:"type:text"`
	Status    string    `json:"status" gorm:"type:varchar(32);not null;default:inProgress"`
	Timestamp time.Time `json:"timestamp" gorm:"not null"`
	Messages  []Message `json:"messages" gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

func (Conversation) TableName() string {
	return "conversations"
}

func (c *Conversation) HasMessages() bool {
	return len(c.Messages) > 0
}

func (c *Conversation) HasSummary() bool {
	return c.Summary != nil && *c.Summary != ""
}

// SortedMessages returns messages ordered by their append order, not timestamp.
func (c *Conversation) SortedMessages() []Message {
	msgs := make([]Message, len(c.Messages))
	copy(msgs, c.Messages)
	for i := 1; i < len(msgs); i++ {
		for j := i; j > 0 && msgs[j-1].Order > msgs[j].Order; j-- {
			msgs[j-1], msgs[j] = msgs[j], msgs[j-1]
		}
	}
	return msgs
}
