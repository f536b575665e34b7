package orchestration

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"expander/expander/services/llm"
	"expander/expander/sources/psql/dao"
	"expander/expander/sources/psql/models"
	"expander/expander/utils/logging"
	"expander/expander/utils/textutils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FallbackReply keeps the thread from dangling without an assistant turn when
// the pipeline fails terminally.
const FallbackReply = "I apologize, but I'm having trouble responding right now. Please try again in a moment."

// ErrConversationBusy rejects a send while another one is in flight for the
// same conversation.
var ErrConversationBusy = errors.New("a message is already being processed for this conversation")

// ChatResult is what the shell renders after an orchestration completes. When
// Fallback is true the reply is the canned fallback and UserError carries the
// display message for the failure.
type ChatResult struct {
	ConversationID uuid.UUID
	Reply          string
	Fallback       bool
	UserError      string
}

// ChatOrchestrator drives one user turn end to end: persist the user message,
// build the request from full history, send with retry, persist the reply.
type ChatOrchestrator struct {
	store *dao.ConversationDAO
	llm   *llm.Service

	mu       sync.Mutex
	inFlight map[uuid.UUID]context.CancelFunc
}

func NewChatOrchestrator(store *dao.ConversationDAO, svc *llm.Service) *ChatOrchestrator {
	return &ChatOrchestrator{
		store:    store,
		llm:      svc,
		inFlight: make(map[uuid.UUID]context.CancelFunc),
	}
}

// InFlight reports whether a send is currently running for the conversation;
// shells use it to disable resubmission.
func (o *ChatOrchestrator) InFlight(conversationID uuid.UUID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.inFlight[conversationID]
	return ok
}

// Cancel aborts a pending send (including its retry backoff) for the
// conversation, e.g. when the conversation is deleted mid-flight.
func (o *ChatOrchestrator) Cancel(conversationID uuid.UUID) {
	o.mu.Lock()
	cancel := o.inFlight[conversationID]
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (o *ChatOrchestrator) acquire(ctx context.Context, conversationID uuid.UUID) (context.Context, func(), error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inFlight[conversationID]; busy {
		return nil, nil, ErrConversationBusy
	}
	sendCtx, cancel := context.WithCancel(ctx)
	o.inFlight[conversationID] = cancel
	release := func() {
		o.mu.Lock()
		delete(o.inFlight, conversationID)
		o.mu.Unlock()
		cancel()
	}
	return sendCtx, release, nil
}

// SendUserMessage resolves the date's conversation, appends the user message
// immediately (so it survives any later failure), and delivers either the
// assistant completion or the fallback reply.
func (o *ChatOrchestrator) SendUserMessage(ctx context.Context, date time.Time, text, systemPrompt string) (*ChatResult, error) {
	defer logging.LogDuration(ctx, "chat_send_user_message")()

	if strings.TrimSpace(text) == "" {
		return nil, llm.NewError(llm.KindInvalidMessageFormat)
	}

	conv, err := o.store.GetOrCreate(ctx, date)
	if err != nil {
		return nil, err
	}

	sendCtx, release, err := o.acquire(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := o.store.AddMessage(ctx, conv, text, models.RoleUser); err != nil {
		return nil, err
	}

	history := historyTurns(conv.SortedMessages())
	reply, sendErr := o.llm.SendMessage(sendCtx, history, systemPrompt)
	if sendErr != nil {
		llmErr := llm.AsError(sendErr)
		logging.ErrorLogger.Error("chat send failed",
			zap.String("conversation_id", conv.ID.String()),
			zap.String("kind", string(llmErr.Kind)),
			zap.Error(sendErr),
		)
		if _, err := o.store.AddMessage(ctx, conv, FallbackReply, models.RoleAI); err != nil {
			return nil, err
		}
		return &ChatResult{
			ConversationID: conv.ID,
			Reply:          FallbackReply,
			Fallback:       true,
			UserError:      llmErr.UserMessage(),
		}, nil
	}

	reply = textutils.CleanCompletion(reply)
	if _, err := o.store.AddMessage(ctx, conv, reply, models.RoleAI); err != nil {
		return nil, err
	}
	return &ChatResult{ConversationID: conv.ID, Reply: reply}, nil
}

func historyTurns(msgs []models.Message) []llm.Turn {
	turns := make([]llm.Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, llm.Turn{Role: m.Role, Content: m.Content})
	}
	return turns
}
