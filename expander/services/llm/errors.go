package llm

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure classes the LLM pipeline can produce.
type ErrorKind string

const (
	// Configuration
	KindMissingAPIKey        ErrorKind = "missing_api_key"
	KindInvalidAPIKey        ErrorKind = "invalid_api_key"
	KindMissingBaseURL       ErrorKind = "missing_base_url"
	KindInvalidConfiguration ErrorKind = "invalid_configuration"

	// Network
	KindNoInternetConnection ErrorKind = "no_internet_connection"
	KindNetworkTimeout       ErrorKind = "network_timeout"
	KindServerUnavailable    ErrorKind = "server_unavailable"
	KindConnectionFailed     ErrorKind = "connection_failed"

	// API
	KindRateLimitExceeded    ErrorKind = "rate_limit_exceeded"
	KindAuthenticationFailed ErrorKind = "authentication_failed"
	KindInvalidRequest       ErrorKind = "invalid_request"
	KindServerError          ErrorKind = "server_error"
	KindMalformedResponse    ErrorKind = "malformed_response"

	// Content
	KindEmptyResponse        ErrorKind = "empty_response"
	KindInvalidMessageFormat ErrorKind = "invalid_message_format"
	KindContextTooLong       ErrorKind = "context_too_long"
	KindSystemPromptTooLong  ErrorKind = "system_prompt_too_long"

	// Internal
	KindUnknown       ErrorKind = "unknown_error"
	KindDecodingError ErrorKind = "decoding_error"
	KindEncodingError ErrorKind = "encoding_error"
)

// Error is the typed failure returned by every layer of the LLM pipeline.
// StatusCode is set for KindServerError, Detail for KindUnknown.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Detail     string
	Cause      error
}

func NewError(kind ErrorKind) *Error {
	return &Error{Kind: kind}
}

func ServerError(statusCode int) *Error {
	return &Error{Kind: KindServerError, StatusCode: statusCode}
}

func UnknownError(detail string) *Error {
	return &Error{Kind: KindUnknown, Detail: detail}
}

func WrapError(kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindServerError && e.StatusCode != 0:
		return fmt.Sprintf("llm: %s (HTTP %d)", e.Kind, e.StatusCode)
	case e.Detail != "":
		return fmt.Sprintf("llm: %s: %s", e.Kind, e.Detail)
	case e.Cause != nil:
		return fmt.Sprintf("llm: %s: %v", e.Kind, e.Cause)
	default:
		return fmt.Sprintf("llm: %s", e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is match on kind: errors.Is(err, llm.NewError(llm.KindNetworkTimeout)).
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

// Recoverable reports whether a retry of the same request may succeed.
func (e *Error) Recoverable() bool {
	switch e.Kind {
	case KindMissingAPIKey, KindInvalidAPIKey, KindMissingBaseURL, KindInvalidConfiguration:
		return false // requires configuration change
	case KindAuthenticationFailed:
		return false // requires credential fix
	case KindContextTooLong, KindSystemPromptTooLong:
		return false // requires user action
	case KindMalformedResponse:
		return false
	default:
		return true
	}
}

// UserVisible reports whether the error text is suitable for direct display.
// Internal errors get a generic substitute via UserMessage.
func (e *Error) UserVisible() bool {
	switch e.Kind {
	case KindDecodingError, KindEncodingError, KindUnknown:
		return false
	default:
		return true
	}
}

var kindDescriptions = map[ErrorKind]string{
	KindMissingAPIKey:        "API configuration is missing. Please check your settings.",
	KindInvalidAPIKey:        "API key is invalid. Please verify your configuration.",
	KindMissingBaseURL:       "API endpoint configuration is missing.",
	KindInvalidConfiguration: "Invalid configuration detected. Please check your settings.",
	KindNoInternetConnection: "No internet connection available. Please check your network.",
	KindNetworkTimeout:       "Request timed out. Please try again.",
	KindServerUnavailable:    "Service is temporarily unavailable. Please try again later.",
	KindConnectionFailed:     "Failed to connect to the service. Please check your connection.",
	KindRateLimitExceeded:    "Too many requests. Please wait a moment before trying again.",
	KindAuthenticationFailed: "Authentication failed. Please check your API credentials.",
	KindInvalidRequest:       "Invalid request format. Please try again.",
	KindMalformedResponse:    "Received invalid response from the service.",
	KindEmptyResponse:        "No response received from the AI service.",
	KindInvalidMessageFormat: "Message format is invalid. Please try again.",
	KindContextTooLong:       "Conversation is too long. Please start a new conversation.",
	KindSystemPromptTooLong:  "System prompt is too long. Please shorten it.",
}

const genericUserMessage = "Something went wrong. Please try again."

// UserMessage returns a message safe to put in front of the user.
func (e *Error) UserMessage() string {
	if !e.UserVisible() {
		return genericUserMessage
	}
	if e.Kind == KindServerError {
		return fmt.Sprintf("Server error occurred (Code: %d). Please try again later.", e.StatusCode)
	}
	if msg, ok := kindDescriptions[e.Kind]; ok {
		return msg
	}
	return genericUserMessage
}

// KindOf extracts the ErrorKind from any error in the chain; KindUnknown if none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// AsError normalizes an arbitrary error into *Error, wrapping foreign errors
// as KindUnknown so callers always have the taxonomy to consult.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindUnknown, Detail: err.Error(), Cause: err}
}
