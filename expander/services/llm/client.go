package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"expander/expander/utils/logging"

	"go.uber.org/zap"
)

const (
	requestTimeout  = 30 * time.Second
	resourceTimeout = 60 * time.Second

	maxResponseBytes = 4 << 20
)

// Client performs a single chat-completions call per Send invocation.
// Retries belong to the retry coordinator, not here.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	monitor    *ConnectivityMonitor
}

func NewClient(baseURL, apiKey string, monitor *ConnectivityMonitor) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: resourceTimeout,
			Transport: &http.Transport{
				ResponseHeaderTimeout: requestTimeout,
				DialContext: (&net.Dialer{
					Timeout: requestTimeout,
				}).DialContext,
			},
		},
		monitor: monitor,
	}
}

// Send posts the request and returns the completion text. Exactly one network
// call happens per invocation; every failure is classified into the taxonomy.
func (c *Client) Send(ctx context.Context, req *ChatRequest) (string, error) {
	defer logging.LogDuration(ctx, "llm_client_send")()

	// Fast-fail on the most recent known connectivity state.
	if !c.monitor.Online() {
		return "", NewError(KindNoInternetConnection)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", WrapError(KindEncodingError, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", WrapError(KindInvalidConfiguration, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		llmErr := mapTransportError(err)
		logging.ErrorLogger.Error("llm request failed",
			zap.String("kind", string(llmErr.Kind)), zap.Error(err))
		return "", llmErr
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		llmErr := mapHTTPStatus(resp.StatusCode)
		logging.ErrorLogger.Error("llm request rejected",
			zap.Int("status", resp.StatusCode), zap.String("kind", string(llmErr.Kind)))
		return "", llmErr
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", mapTransportError(err)
	}
	return parseCompletion(data)
}

// parseCompletion extracts the completion text from a 2xx body.
func parseCompletion(data []byte) (string, error) {
	var envelope struct {
		Choices json.RawMessage `json:"choices"`
		Error   *APIErrorBody   `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", WrapError(KindMalformedResponse, err)
	}
	if envelope.Error != nil {
		return "", ServerError(http.StatusInternalServerError)
	}
	if len(envelope.Choices) == 0 {
		return "", NewError(KindEmptyResponse)
	}

	var choices []ChatChoice
	if err := json.Unmarshal(envelope.Choices, &choices); err != nil {
		return "", WrapError(KindDecodingError, err)
	}
	parsed := ChatResponse{Choices: choices}
	content := parsed.Content()
	if content == "" {
		return "", NewError(KindEmptyResponse)
	}
	return content, nil
}

func mapTransportError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return WrapError(KindNetworkTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return WrapError(KindNetworkTimeout, err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return WrapError(KindConnectionFailed, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return WrapError(KindConnectionFailed, err)
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return WrapError(KindConnectionFailed, err)
	}
	return &Error{Kind: KindUnknown, Detail: err.Error(), Cause: err}
}

func mapHTTPStatus(status int) *Error {
	switch {
	case status == http.StatusUnauthorized:
		return NewError(KindAuthenticationFailed)
	case status == http.StatusTooManyRequests:
		return NewError(KindRateLimitExceeded)
	case status == http.StatusBadRequest:
		return NewError(KindInvalidRequest)
	default:
		return ServerError(status)
	}
}
