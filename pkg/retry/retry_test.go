package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errFlaky = errors.New("flaky")

func TestDo_RetriesRetryable(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return Retryable(errFlaky)
		}
		return nil
	}, WithInitialDelay(time.Millisecond), WithJitter(0))

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_StopsOnPermanent(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(context.Context) error {
		attempts++
		return Permanent(errFlaky)
	}, WithInitialDelay(time.Millisecond))

	assert.Equal(t, errFlaky, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_PlainErrorNotRetriedByDefault(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(context.Context) error {
		attempts++
		return errFlaky
	})

	assert.Equal(t, errFlaky, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_ExhaustsAttemptsAndUnwraps(t *testing.T) {
	var retries []int
	err := Do(context.Background(), func(context.Context) error {
		return Retryable(errFlaky)
	},
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
		WithOnRetry(func(attempt int, _ error, _ time.Duration) { retries = append(retries, attempt) }),
	)

	assert.Equal(t, errFlaky, err)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSlotConnectOptions_RetriesEveryError(t *testing.T) {
	attempts := 0
	var retried []int
	opts := append(SlotConnectOptions(func(attempt int, _ error, _ time.Duration) {
		retried = append(retried, attempt)
	}), WithInitialDelay(time.Millisecond), WithJitter(0))

	v, err := DoWithData(context.Background(), func(context.Context) (int, error) {
		attempts++
		if attempts < 3 {
			return 0, errors.New("dial tcp: connection refused")
		}
		return 7, nil
	}, opts...)
	assert.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, []int{1, 2}, retried)

	assert.Equal(t, 5, New(SlotConnectOptions(nil)...).config.MaxAttempts)
}
