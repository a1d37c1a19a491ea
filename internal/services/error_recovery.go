package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/celebrum-odds/pkg/oddsapi"
)

// RetryPolicy defines retry behavior for failed operations
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterEnabled bool
}

// DefaultRetryPolicies returns default retry policies for common operations
func DefaultRetryPolicies() map[string]RetryPolicy {
	return map[string]RetryPolicy{
		"api_call": {
			MaxRetries:    2,
			InitialDelay:  500 * time.Millisecond,
			MaxDelay:      5 * time.Second,
			BackoffFactor: 2.0,
			JitterEnabled: true,
		},
		"database_operation": {
			MaxRetries:    3,
			InitialDelay:  50 * time.Millisecond,
			MaxDelay:      2 * time.Second,
			BackoffFactor: 1.5,
			JitterEnabled: true,
		},
	}
}

// Retrier runs operations with retries and exponential backoff.
type Retrier struct {
	policy    RetryPolicy
	retryable func(error) bool
	logger    *logrus.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewRetrier creates a retrier. A nil retryable retries every error except
// context cancellation and an open circuit.
func NewRetrier(policy RetryPolicy, retryable func(error) bool, logger *logrus.Logger) *Retrier {
	if logger == nil {
		logger = logrus.New()
	}
	if policy.BackoffFactor < 1 {
		policy.BackoffFactor = 1
	}
	if retryable == nil {
		retryable = func(error) bool { return true }
	}
	return &Retrier{policy: policy, retryable: retryable, logger: logger, sleep: sleepContext}
}

// IsRetryableAPIError reports whether an odds provider failure is worth
// another attempt: rate limits, server errors and transport failures.
func IsRetryableAPIError(err error) bool {
	var apiErr *oddsapi.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return true
}

// Do executes operation until it succeeds, the error is not retryable or
// the retries are used up. The last error is returned.
func (r *Retrier) Do(ctx context.Context, operationName string, operation func(context.Context) error) error {
	start := time.Now()
	delay := r.policy.InitialDelay

	var lastErr error
	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := operation(ctx)
		if err == nil {
			if attempt > 0 {
				r.logger.WithFields(logrus.Fields{
					"operation": operationName,
					"attempts":  attempt + 1,
					"duration":  time.Since(start),
				}).Info("Operation recovered after retry")
			}
			return nil
		}
		lastErr = err

		if attempt == r.policy.MaxRetries || errors.Is(err, ErrCircuitOpen) ||
			errors.Is(err, context.Canceled) || !r.retryable(err) {
			break
		}

		r.logger.WithFields(logrus.Fields{
			"operation": operationName,
			"attempt":   attempt + 1,
			"error":     err.Error(),
			"delay":     delay,
		}).Warn("Operation failed, retrying")

		if err := r.sleep(ctx, r.calculateDelay(delay)); err != nil {
			return err
		}
		delay = time.Duration(float64(delay) * r.policy.BackoffFactor)
		if r.policy.MaxDelay > 0 && delay > r.policy.MaxDelay {
			delay = r.policy.MaxDelay
		}
	}

	return lastErr
}

// calculateDelay adds up to 10% jitter to the base delay.
func (r *Retrier) calculateDelay(base time.Duration) time.Duration {
	if !r.policy.JitterEnabled || base <= 0 {
		return base
	}
	return base + time.Duration(rand.Int64N(int64(base)/10+1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
