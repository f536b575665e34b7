package llm

import (
	"context"
	"strings"

	"expander/expander/config"
	"expander/expander/utils/logging"

	"go.uber.org/zap"
)

// Service is the public face of the LLM pipeline: configuration validation,
// request building, and retrying transport, in that order.
type Service struct {
	apiKey  string
	baseURL string
	model   string

	retry   *RetryCoordinator
	monitor *ConnectivityMonitor
}

func NewService(cfg config.Config) *Service {
	monitor := NewConnectivityMonitor(cfg.XAIBaseURL, nil)
	monitor.Start()
	svc := &Service{
		apiKey:  cfg.XAIAPIKey,
		baseURL: cfg.XAIBaseURL,
		model:   cfg.XAIModel,
		retry:   NewRetryCoordinator(NewClient(cfg.XAIBaseURL, cfg.XAIAPIKey, monitor)),
		monitor: monitor,
	}
	if err := svc.validateConfiguration(); err != nil {
		logging.ErrorLogger.Error("llm configuration invalid", zap.Error(err))
	}
	return svc
}

// NewServiceWithTransport wires a custom transport; test hook.
func NewServiceWithTransport(cfg config.Config, transport Transport) *Service {
	return &Service{
		apiKey:  cfg.XAIAPIKey,
		baseURL: cfg.XAIBaseURL,
		model:   cfg.XAIModel,
		retry:   NewRetryCoordinator(transport),
		monitor: NewConnectivityMonitor(cfg.XAIBaseURL, func(context.Context) bool { return true }),
	}
}

func (s *Service) Close() {
	s.monitor.Stop()
}

func (s *Service) validateConfiguration() error {
	if s.apiKey == "" || s.apiKey == config.PlaceholderAPIKey {
		return NewError(KindMissingAPIKey)
	}
	if s.baseURL == "" {
		return NewError(KindMissingBaseURL)
	}
	if s.model == "" {
		return NewError(KindInvalidConfiguration)
	}
	return nil
}

// Ready reports whether the service can issue requests right now.
func (s *Service) Ready() bool {
	return s.monitor.Online() && s.validateConfiguration() == nil
}

func (s *Service) Model() string { return s.model }

// Retry exposes the coordinator for test clock injection.
func (s *Service) Retry() *RetryCoordinator { return s.retry }

// SendMessage sends full conversation history (plus optional system prompt)
// and returns the assistant completion, retrying recoverable failures.
func (s *Service) SendMessage(ctx context.Context, history []Turn, systemPrompt string) (string, error) {
	defer logging.LogDuration(ctx, "llm_service_send_message")()

	if err := s.validateConfiguration(); err != nil {
		return "", err
	}
	req, err := BuildRequest(s.model, history, systemPrompt)
	if err != nil {
		return "", err
	}
	return s.retry.SendWithRetry(ctx, req)
}

// SendSingleMessage sends one user message with an optional system prompt.
func (s *Service) SendSingleMessage(ctx context.Context, content, systemPrompt string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", NewError(KindInvalidMessageFormat)
	}
	return s.SendMessage(ctx, []Turn{{Role: RoleUser, Content: content}}, systemPrompt)
}
