package llm

import (
	"context"
	"testing"
	"time"
)

// scriptedTransport returns its queued responses in order, recording calls.
type scriptedTransport struct {
	calls     int
	responses []struct {
		content string
		err     error
	}
}

func (s *scriptedTransport) push(content string, err error) {
	s.responses = append(s.responses, struct {
		content string
		err     error
	}{content, err})
}

func (s *scriptedTransport) Send(ctx context.Context, req *ChatRequest) (string, error) {
	i := s.calls
	s.calls++
	if i >= len(s.responses) {
		return "", NewError(KindServerUnavailable)
	}
	return s.responses[i].content, s.responses[i].err
}

// fakeTimer records requested delays and fires immediately.
type fakeTimer struct {
	delays []time.Duration
	ch     chan time.Time
}

func (t *fakeTimer) Start(d time.Duration) {
	t.delays = append(t.delays, d)
	t.ch = make(chan time.Time, 1)
	t.ch <- time.Now()
}

func (t *fakeTimer) Stop() {}

func (t *fakeTimer) C() <-chan time.Time { return t.ch }

// cancellingTimer cancels the context instead of firing, simulating a caller
// abort during a backoff wait.
type cancellingTimer struct {
	cancel context.CancelFunc
	ch     chan time.Time
}

func (t *cancellingTimer) Start(d time.Duration) {
	if t.ch == nil {
		t.ch = make(chan time.Time)
	}
	t.cancel()
}

func (t *cancellingTimer) Stop() {}

func (t *cancellingTimer) C() <-chan time.Time { return t.ch }

func testRequest() *ChatRequest {
	req, _ := BuildRequest("m", []Turn{{Role: "user", Content: "hi"}}, "")
	return req
}

func TestRetryExhaustsBudgetWithExponentialDelays(t *testing.T) {
	transport := &scriptedTransport{}
	timer := &fakeTimer{}
	coord := NewRetryCoordinator(transport).WithTimer(timer)

	_, err := coord.SendWithRetry(context.Background(), testRequest())
	if KindOf(err) != KindServerUnavailable {
		t.Fatalf("expected server unavailable, got %v", err)
	}
	if transport.calls != MaxRetries+1 {
		t.Errorf("expected %d attempts, got %d", MaxRetries+1, transport.calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if len(timer.delays) != len(want) {
		t.Fatalf("expected %d waits, got %d", len(want), len(timer.delays))
	}
	for i, d := range want {
		if timer.delays[i] != d {
			t.Errorf("wait %d: expected %v, got %v", i, d, timer.delays[i])
		}
	}
}

func TestRetrySucceedsMidSequence(t *testing.T) {
	transport := &scriptedTransport{}
	transport.push("", NewError(KindNetworkTimeout))
	transport.push("", ServerError(502))
	transport.push("recovered", nil)
	timer := &fakeTimer{}
	coord := NewRetryCoordinator(transport).WithTimer(timer)

	content, err := coord.SendWithRetry(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != "recovered" {
		t.Errorf("got %q", content)
	}
	if transport.calls != 3 || len(timer.delays) != 2 {
		t.Errorf("expected 3 calls and 2 waits, got %d and %d", transport.calls, len(timer.delays))
	}
}

func TestRetryStopsOnNonRecoverable(t *testing.T) {
	transport := &scriptedTransport{}
	transport.push("", NewError(KindAuthenticationFailed))
	timer := &fakeTimer{}
	coord := NewRetryCoordinator(transport).WithTimer(timer)

	_, err := coord.SendWithRetry(context.Background(), testRequest())
	if KindOf(err) != KindAuthenticationFailed {
		t.Fatalf("expected authentication failure, got %v", err)
	}
	if transport.calls != 1 {
		t.Errorf("non-recoverable errors must not retry, got %d calls", transport.calls)
	}
	if len(timer.delays) != 0 {
		t.Errorf("expected no backoff, got %v", timer.delays)
	}
}

func TestRetryReturnsLastErrorWhenCancelledDuringBackoff(t *testing.T) {
	transport := &scriptedTransport{}
	transport.push("", NewError(KindNetworkTimeout))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coord := NewRetryCoordinator(transport).WithTimer(&cancellingTimer{cancel: cancel})

	_, err := coord.SendWithRetry(ctx, testRequest())
	if KindOf(err) != KindNetworkTimeout {
		t.Fatalf("expected the last transport error, got %v", err)
	}
	if transport.calls != 1 {
		t.Errorf("cancelled backoff must not send again, got %d calls", transport.calls)
	}
}
