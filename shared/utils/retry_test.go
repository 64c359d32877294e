package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetry_StopsOnSuccess(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return errors.New("broker unavailable")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetry_ReturnsLastErrorWithoutTrailingWait(t *testing.T) {
	calls := 0
	started := time.Now()
	err := Retry(context.Background(), 2, 50*time.Millisecond, func() error {
		calls++
		return errors.New("broker unavailable")
	})
	assert.EqualError(t, err, "broker unavailable")
	assert.Equal(t, 2, calls)
	assert.Less(t, time.Since(started), 100*time.Millisecond)
}

func TestRetry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Retry(ctx, 5, time.Hour, func() error {
		calls++
		return errors.New("broker unavailable")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestTernary(t *testing.T) {
	assert.Equal(t, "DESC", Ternary(true, "DESC", "ASC"))
	assert.Equal(t, 1, Ternary(false, -1, 1))
}
