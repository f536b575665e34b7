package llm

import (
	"context"
	"time"

	"expander/expander/utils/logging"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// MaxRetries is the number of retries after the initial attempt (4 total).
const MaxRetries = 3

// Transport is the single-attempt send the coordinator wraps. *Client
// implements it; tests substitute fakes.
type Transport interface {
	Send(ctx context.Context, req *ChatRequest) (string, error)
}

// RetryCoordinator wraps a Transport with bounded exponential-backoff retry.
// Only recoverable error kinds retry; delays run 1s, 2s, 4s, each measured
// from the moment the previous failure was classified.
type RetryCoordinator struct {
	transport Transport
	timer     backoff.Timer
}

func NewRetryCoordinator(transport Transport) *RetryCoordinator {
	return &RetryCoordinator{transport: transport}
}

// WithTimer overrides the backoff timer so tests run on a fake clock.
func (c *RetryCoordinator) WithTimer(t backoff.Timer) *RetryCoordinator {
	c.timer = t
	return c
}

func (c *RetryCoordinator) policy(ctx context.Context) backoff.BackOff {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = time.Second
	expo.Multiplier = 2
	expo.RandomizationFactor = 0
	expo.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(expo, MaxRetries), ctx)
}

// SendWithRetry keeps resending until success, a non-recoverable failure, an
// exhausted retry budget, or context cancellation. A cancelled backoff wait
// surfaces the last classified transport error, not the context error.
func (c *RetryCoordinator) SendWithRetry(ctx context.Context, req *ChatRequest) (string, error) {
	var content string
	var lastErr *Error

	operation := func() error {
		out, err := c.transport.Send(ctx, req)
		if err != nil {
			lastErr = AsError(err)
			if !lastErr.Recoverable() {
				return backoff.Permanent(lastErr)
			}
			return lastErr
		}
		content = out
		return nil
	}

	notify := func(err error, delay time.Duration) {
		logging.AppLogger.Info("retrying llm request",
			zap.String("kind", string(KindOf(err))),
			zap.Duration("delay", delay),
		)
	}

	err := backoff.RetryNotifyWithTimer(operation, c.policy(ctx), notify, c.timer)
	if err == nil {
		return content, nil
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", AsError(err)
}
