package orchestration

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"expander/expander/config"
	"expander/expander/services/llm"
	"expander/expander/sources/psql/dao"
	"expander/expander/sources/psql/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testEpoch = time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)

func testConfig() config.Config {
	return config.Config{
		XAIAPIKey:    "test-key",
		XAIBaseURL:   "http://localhost",
		XAIModel:     "test-model",
		JourneyEpoch: testEpoch,
	}
}

func newTestStore(t *testing.T) *dao.ConversationDAO {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	// One connection, or each pooled conn gets its own in-memory database.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&models.Conversation{}, &models.Message{}, &models.DailyState{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return dao.NewConversationDAO(db, testEpoch)
}

// fakeTransport records every request and plays back scripted replies.
type fakeTransport struct {
	mu      sync.Mutex
	reqs    []*llm.ChatRequest
	replies []string
	err     error
	block   chan struct{} // when set, Send waits for it or ctx
}

func (f *fakeTransport) Send(ctx context.Context, req *llm.ChatRequest) (string, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-block:
		}
	}
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.replies) == 0 {
		return "ok", nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func (f *fakeTransport) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

func (f *fakeTransport) request(i int) *llm.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[i]
}

// instantTimer makes retry backoff waits complete immediately.
type instantTimer struct{ ch chan time.Time }

func (t *instantTimer) Start(d time.Duration) {
	t.ch = make(chan time.Time, 1)
	t.ch <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time { return t.ch }

func newTestService(transport llm.Transport) *llm.Service {
	svc := llm.NewServiceWithTransport(testConfig(), transport)
	svc.Retry().WithTimer(&instantTimer{})
	return svc
}

func TestSendUserMessagePersistsBothTurns(t *testing.T) {
	store := newTestStore(t)
	transport := &fakeTransport{replies: []string{"Tell me more about that."}}
	orch := NewChatOrchestrator(store, newTestService(transport))

	result, err := orch.SendUserMessage(context.Background(), testEpoch, "I had a strange day.", "Be gentle.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Reply != "Tell me more about that." || result.Fallback {
		t.Fatalf("unexpected result: %+v", result)
	}

	conv, _ := store.FetchByID(context.Background(), result.ConversationID)
	msgs := conv.SortedMessages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(msgs))
	}
	if msgs[0].Role != models.RoleUser || msgs[0].Content != "I had a strange day." {
		t.Errorf("user turn wrong: %+v", msgs[0])
	}
	if msgs[1].Role != models.RoleAI || msgs[1].Content != "Tell me more about that." {
		t.Errorf("assistant turn wrong: %+v", msgs[1])
	}
}

func TestSendUserMessageIncludesFullHistory(t *testing.T) {
	store := newTestStore(t)
	transport := &fakeTransport{replies: []string{"first reply", "second reply"}}
	orch := NewChatOrchestrator(store, newTestService(transport))
	ctx := context.Background()

	if _, err := orch.SendUserMessage(ctx, testEpoch, "one", "sys"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := orch.SendUserMessage(ctx, testEpoch, "two", "sys"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := transport.request(1)
	// system + user one + assistant first reply + user two
	if len(req.Messages) != 4 {
		t.Fatalf("expected 4 wire messages, got %d", len(req.Messages))
	}
	if req.Messages[0].Role != llm.RoleSystem {
		t.Error("system prompt must lead")
	}
	if req.Messages[2].Role != llm.RoleAssistant || req.Messages[2].Content != "first reply" {
		t.Errorf("stored ai turn must reach the wire as assistant: %+v", req.Messages[2])
	}
	if req.Messages[3].Content != "two" {
		t.Errorf("latest user turn must come last: %+v", req.Messages[3])
	}
}

func TestSendUserMessageFailureLeavesFallback(t *testing.T) {
	store := newTestStore(t)
	transport := &fakeTransport{err: llm.NewError(llm.KindAuthenticationFailed)}
	orch := NewChatOrchestrator(store, newTestService(transport))

	result, err := orch.SendUserMessage(context.Background(), testEpoch, "hello?", "")
	if err != nil {
		t.Fatalf("failures must resolve to a fallback, not an error: %v", err)
	}
	if !result.Fallback || result.Reply != FallbackReply {
		t.Fatalf("expected fallback result, got %+v", result)
	}
	if !strings.Contains(result.UserError, "Authentication failed") {
		t.Errorf("expected user-facing auth message, got %q", result.UserError)
	}

	conv, _ := store.FetchByID(context.Background(), result.ConversationID)
	msgs := conv.SortedMessages()
	if len(msgs) != 2 {
		t.Fatalf("user message and fallback must both persist, got %d", len(msgs))
	}
	if msgs[0].Content != "hello?" {
		t.Error("user message must persist before the send")
	}
	if msgs[1].Content != FallbackReply || msgs[1].Role != models.RoleAI {
		t.Errorf("fallback turn wrong: %+v", msgs[1])
	}
}

func TestSendUserMessageRejectsEmptyText(t *testing.T) {
	store := newTestStore(t)
	orch := NewChatOrchestrator(store, newTestService(&fakeTransport{}))

	_, err := orch.SendUserMessage(context.Background(), testEpoch, "   \n  ", "")
	if llm.KindOf(err) != llm.KindInvalidMessageFormat {
		t.Fatalf("expected invalid message format, got %v", err)
	}
}

func TestConcurrentSendSameConversationRejected(t *testing.T) {
	store := newTestStore(t)
	transport := &fakeTransport{block: make(chan struct{})}
	orch := NewChatOrchestrator(store, newTestService(transport))
	ctx := context.Background()

	conv, _ := store.GetOrCreate(ctx, testEpoch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		orch.SendUserMessage(ctx, testEpoch, "slow one", "")
	}()

	deadline := time.After(2 * time.Second)
	for !orch.InFlight(conv.ID) {
		select {
		case <-deadline:
			t.Fatal("first send never became in-flight")
		case <-time.After(5 * time.Millisecond):
		}
	}

	_, err := orch.SendUserMessage(ctx, testEpoch, "impatient", "")
	if err != ErrConversationBusy {
		t.Fatalf("expected busy rejection, got %v", err)
	}

	close(transport.block)
	<-done
	if orch.InFlight(conv.ID) {
		t.Error("in-flight flag must clear after completion")
	}
}

func TestCancelAbortsInFlightSend(t *testing.T) {
	store := newTestStore(t)
	transport := &fakeTransport{block: make(chan struct{})}
	orch := NewChatOrchestrator(store, newTestService(transport))
	ctx := context.Background()

	conv, _ := store.GetOrCreate(ctx, testEpoch)

	results := make(chan *ChatResult, 1)
	go func() {
		result, _ := orch.SendUserMessage(ctx, testEpoch, "never answered", "")
		results <- result
	}()

	deadline := time.After(2 * time.Second)
	for !orch.InFlight(conv.ID) {
		select {
		case <-deadline:
			t.Fatal("send never became in-flight")
		case <-time.After(5 * time.Millisecond):
		}
	}

	orch.Cancel(conv.ID)
	select {
	case result := <-results:
		if result == nil || !result.Fallback {
			t.Errorf("cancelled send should resolve to the fallback, got %+v", result)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancel did not unblock the send")
	}
}
