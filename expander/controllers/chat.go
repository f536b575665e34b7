package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expander/expander/orchestration"
	"expander/expander/sources/psql/dao"
	"expander/expander/sources/psql/models"
	"expander/expander/utils/types"

	"github.com/google/uuid"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrInvalidDate          = errors.New("invalid date: expected YYYY-MM-DD")
)

type ChatController struct {
	store         *dao.ConversationDAO
	orchestrator  *orchestration.ChatOrchestrator
	defaultPrompt string
}

func NewChatController(store *dao.ConversationDAO, orch *orchestration.ChatOrchestrator, defaultPrompt string) *ChatController {
	return &ChatController{store: store, orchestrator: orch, defaultPrompt: defaultPrompt}
}

// parseDate resolves the optional YYYY-MM-DD request field, defaulting to
// today.
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return date, nil
}

func (c *ChatController) SendMessage(ctx context.Context, req types.SendMessageRequest) (*types.SendMessageResponse, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	systemPrompt := req.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = c.defaultPrompt
	}
	result, err := c.orchestrator.SendUserMessage(ctx, date, req.Content, systemPrompt)
	if err != nil {
		return nil, err
	}
	return &types.SendMessageResponse{
		ConversationID: result.ConversationID.String(),
		Reply:          result.Reply,
		Fallback:       result.Fallback,
		ErrorMessage:   result.UserError,
	}, nil
}

func (c *ChatController) ListConversations(ctx context.Context) ([]types.ConversationSummary, error) {
	convs, err := c.store.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.ConversationSummary, 0, len(convs))
	for i := range convs {
		out = append(out, types.ConversationSummary{
			ConversationID: convs[i].ID.String(),
			Date:           dao.StartOfDay(convs[i].Date).Format("2006-01-02"),
			DayNumber:      convs[i].DayNumber,
			MessageCount:   len(convs[i].Messages),
			HasSummary:     convs[i].HasSummary(),
		})
	}
	return out, nil
}

func (c *ChatController) GetMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	id, err := uuid.Parse(conversationID)
	if err != nil {
		return nil, ErrConversationNotFound
	}
	conv, err := c.store.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	return conv.SortedMessages(), nil
}

// DeleteConversation removes the conversation and its messages, aborting any
// send still in flight for it first.
func (c *ChatController) DeleteConversation(ctx context.Context, conversationID string) error {
	id, err := uuid.Parse(conversationID)
	if err != nil {
		return ErrConversationNotFound
	}
	conv, err := c.store.FetchByID(ctx, id)
	if err != nil {
		return err
	}
	if conv == nil {
		return ErrConversationNotFound
	}
	c.orchestrator.Cancel(id)
	return c.store.DeleteConversation(ctx, id)
}

// ClearConversation drops the messages and summary but keeps the day's row.
func (c *ChatController) ClearConversation(ctx context.Context, conversationID string) error {
	id, err := uuid.Parse(conversationID)
	if err != nil {
		return ErrConversationNotFound
	}
	conv, err := c.store.FetchByID(ctx, id)
	if err != nil {
		return err
	}
	if conv == nil {
		return ErrConversationNotFound
	}
	c.orchestrator.Cancel(id)
	return c.store.ClearMessages(ctx, id)
}
