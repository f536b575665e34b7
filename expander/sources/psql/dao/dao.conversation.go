// expander/sources/psql/dao/dao.conversation.go
package dao

import (
	"context"
	"errors"
	"time"

	"expander/expander/sources/psql/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StartOfDay normalizes an instant to the start of its UTC calendar day. All
// date-keyed lookups use this as the canonical conversation key.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type ConversationDAO struct {
	DB    *gorm.DB
	epoch time.Time
}

func NewConversationDAO(db *gorm.DB, epoch time.Time) *ConversationDAO {
	return &ConversationDAO{DB: db, epoch: StartOfDay(epoch)}
}

// DayNumber is the 1-based offset of date from the journey epoch.
func (dao *ConversationDAO) DayNumber(date time.Time) int {
	return int(StartOfDay(date).Sub(dao.epoch).Hours()/24) + 1
}

// FetchByDate returns the conversation whose date falls within date's calendar
// day, or nil when none exists.
func (dao *ConversationDAO) FetchByDate(ctx context.Context, date time.Time) (*models.Conversation, error) {
	start := StartOfDay(date)
	end := start.AddDate(0, 0, 1)

	var conv models.Conversation
	err := dao.DB.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("msg_order ASC") }).
		Where("date >= ? AND date < ?", start, end).
		First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// FetchAllByDate returns every conversation within date's calendar day. The
// unique index keeps this at most one in practice.
func (dao *ConversationDAO) FetchAllByDate(ctx context.Context, date time.Time) ([]models.Conversation, error) {
	start := StartOfDay(date)
	end := start.AddDate(0, 0, 1)

	var convs []models.Conversation
	err := dao.DB.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("msg_order ASC") }).
		Where("date >= ? AND date < ?", start, end).
		Order("date ASC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

// GetOrCreate returns the day's conversation, creating it lazily on first
// access. Any two instants within the same calendar day map to one row.
func (dao *ConversationDAO) GetOrCreate(ctx context.Context, date time.Time) (*models.Conversation, error) {
	if existing, err := dao.FetchByDate(ctx, date); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	conv := models.Conversation{
		ID:        uuid.New(),
		Date:      StartOfDay(date),
		DayNumber: dao.DayNumber(date),
		Status:    "inProgress",
		Timestamp: time.Now().UTC(),
	}
	if err := dao.DB.WithContext(ctx).Create(&conv).Error; err != nil {
		// Lost a create race for the day; the unique date index means the
		// winner's row is there to adopt.
		if existing, fetchErr := dao.FetchByDate(ctx, date); fetchErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return &conv, nil
}

// FetchByID loads one conversation with its messages.
func (dao *ConversationDAO) FetchByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := dao.DB.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("msg_order ASC") }).
		First(&conv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// FetchAll returns every conversation sorted ascending by date.
func (dao *ConversationDAO) FetchAll(ctx context.Context) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := dao.DB.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("msg_order ASC") }).
		Order("date ASC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

// NeedingSummaries returns conversations that have messages but no summary,
// sorted ascending by date.
func (dao *ConversationDAO) NeedingSummaries(ctx context.Context) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := dao.DB.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("msg_order ASC") }).
		Where("(summary IS NULL OR summary = '')").
		Where("EXISTS (SELECT 1 FROM messages WHERE messages.conversation_id = conversations.id)").
		Order("date ASC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

// AddMessage appends a message, assigning order = count of existing messages.
func (dao *ConversationDAO) AddMessage(ctx context.Context, conv *models.Conversation, content, role string) (*models.Message, error) {
	var count int64
	if err := dao.DB.WithContext(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ?", conv.ID).
		Count(&count).Error; err != nil {
		return nil, err
	}

	msg := models.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		Role:           role,
		Content:        content,
		Order:          int(count),
		Timestamp:      time.Now().UTC(),
	}
	if err := dao.DB.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}
	conv.Messages = append(conv.Messages, msg)
	return &msg, nil
}

// SetSummary persists the summary text onto the conversation.
func (dao *ConversationDAO) SetSummary(ctx context.Context, id uuid.UUID, summary string) error {
	return dao.DB.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", id).
		Update("summary", summary).Error
}

// ClearSummary removes the summary so it can be regenerated.
func (dao *ConversationDAO) ClearSummary(ctx context.Context, id uuid.UUID) error {
	return dao.DB.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", id).
		Update("summary", nil).Error
}

// ClearMessages deletes a conversation's messages and its summary.
func (dao *ConversationDAO) ClearMessages(ctx context.Context, id uuid.UUID) error {
	if err := dao.DB.WithContext(ctx).
		Where("conversation_id = ?", id).
		Delete(&models.Message{}).Error; err != nil {
		return err
	}
	return dao.ClearSummary(ctx, id)
}

// DeleteConversation removes the conversation and, by cascade, its messages.
func (dao *ConversationDAO) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	if err := dao.DB.WithContext(ctx).
		Where("conversation_id = ?", id).
		Delete(&models.Message{}).Error; err != nil {
		return err
	}
	return dao.DB.WithContext(ctx).Delete(&models.Conversation{}, "id = ?", id).Error
}

// HasAnyConversation reports whether any conversation exists at all; used for
// first-day detection.
func (dao *ConversationDAO) HasAnyConversation(ctx context.Context) (bool, error) {
	var count int64
	err := dao.DB.WithContext(ctx).Model(&models.Conversation{}).Limit(1).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
