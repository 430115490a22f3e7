package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "fake timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	t.Parallel()

	assert.True(t, IsTransient(timeoutErr{}))
	assert.True(t, IsTransient(errors.New("dial tcp: connection refused")))
	assert.False(t, IsTransient(errors.New("xml syntax error on line 3")))
	assert.False(t, IsTransient(nil))
}

func TestWithRetryTransient(t *testing.T) {
	t.Parallel()

	calls := 0
	attempts, err := withRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("i/o timeout")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
}

func TestWithRetryStructuralFailureNotRetried(t *testing.T) {
	t.Parallel()

	calls := 0
	attempts, err := withRetry(context.Background(), func() error {
		calls++
		return errors.New("malformed feed")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("connection reset by peer")
	attempts, err := withRetry(context.Background(), func() error { return wantErr })

	assert.Equal(t, retryAttempts, attempts)
	assert.Equal(t, wantErr, err)
}

func TestWithRetryContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := withRetry(ctx, func() error { return errors.New("i/o timeout") })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
