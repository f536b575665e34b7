package llm

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestRecoverableByKind(t *testing.T) {
	recoverable := []ErrorKind{
		KindNoInternetConnection, KindNetworkTimeout, KindServerUnavailable,
		KindConnectionFailed, KindRateLimitExceeded, KindInvalidRequest,
		KindServerError, KindEmptyResponse, KindInvalidMessageFormat,
		KindUnknown, KindDecodingError, KindEncodingError,
	}
	for _, kind := range recoverable {
		if !NewError(kind).Recoverable() {
			t.Errorf("%s should be recoverable", kind)
		}
	}

	terminal := []ErrorKind{
		KindMissingAPIKey, KindInvalidAPIKey, KindMissingBaseURL,
		KindInvalidConfiguration, KindAuthenticationFailed,
		KindContextTooLong, KindSystemPromptTooLong, KindMalformedResponse,
	}
	for _, kind := range terminal {
		if NewError(kind).Recoverable() {
			t.Errorf("%s should not be recoverable", kind)
		}
	}
}

func TestUserMessageInternalKindsAreGeneric(t *testing.T) {
	for _, kind := range []ErrorKind{KindDecodingError, KindEncodingError, KindUnknown} {
		got := NewError(kind).UserMessage()
		if got != genericUserMessage {
			t.Errorf("%s: expected generic message, got %q", kind, got)
		}
	}
}

func TestUserMessageServerErrorIncludesCode(t *testing.T) {
	got := ServerError(503).UserMessage()
	if !strings.Contains(got, "503") {
		t.Errorf("expected status code in message, got %q", got)
	}
}

func TestErrorsIsMatchesOnKind(t *testing.T) {
	err := fmt.Errorf("send: %w", WrapError(KindNetworkTimeout, errors.New("deadline")))
	if !errors.Is(err, NewError(KindNetworkTimeout)) {
		t.Error("wrapped error should match its kind")
	}
	if errors.Is(err, NewError(KindRateLimitExceeded)) {
		t.Error("wrapped error should not match a different kind")
	}
}

func TestAsErrorWrapsForeignErrors(t *testing.T) {
	cause := errors.New("boom")
	e := AsError(fmt.Errorf("outer: %w", cause))
	if e.Kind != KindUnknown {
		t.Errorf("expected unknown kind, got %s", e.Kind)
	}
	if !errors.Is(e, cause) {
		t.Error("normalized error should keep the cause in its chain")
	}
	if AsError(nil) != nil {
		t.Error("nil in, nil out")
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(ServerError(500)); got != KindServerError {
		t.Errorf("got %s", got)
	}
	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Errorf("got %s", got)
	}
}
