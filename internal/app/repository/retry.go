package repository

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"vm-transcriber/internal/app/logging"
	"vm-transcriber/internal/config"
)

// RetryPolicy bounds how often the store retries acquiring a connection.
// Statements themselves are never retried.
type RetryPolicy struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration

	logger logging.Logger
}

// NewRetryPolicy builds a policy from the database retry settings.
func NewRetryPolicy(s config.RetrySettings, logger logging.Logger) *RetryPolicy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryPolicy{
		MaxAttempts:     s.MaxAttempts,
		InitialInterval: s.InitialBackoff,
		MaxInterval:     s.MaxBackoff,
		logger:          logger,
	}
}

// SingleAttempt is the policy used when no retries are wanted.
func SingleAttempt() *RetryPolicy {
	return &RetryPolicy{MaxAttempts: 1, logger: zap.NewNop()}
}

func (p *RetryPolicy) backOff() backoff.BackOff {
	if p.InitialInterval <= 0 {
		return &backoff.ZeroBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	return b
}

// Retry runs op until it succeeds, the attempts run out or ctx is done.
// A nil policy runs op once.
func Retry[T any](ctx context.Context, p *RetryPolicy, what string, op func() (T, error)) (T, error) {
	if p == nil {
		p = SingleAttempt()
	}
	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}

	logger := p.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	attempt := 0
	return backoff.Retry(ctx, func() (T, error) {
		attempt++
		res, err := op()
		if err != nil && ctx.Err() != nil {
			return res, backoff.Permanent(err)
		}
		return res, err
	},
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(attempts),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn("Store connection attempt failed",
				zap.String("operation", what),
				zap.Int("attempt", attempt),
				zap.Uint("max_attempts", attempts),
				zap.Duration("retry_in", next),
				zap.Error(err))
		}),
	)
}
