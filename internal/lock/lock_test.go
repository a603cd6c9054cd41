package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "welcome", time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "welcome", time.Minute)
	assert.ErrorIs(t, err, ErrHeld)

	other, err := l.Acquire(ctx, "newsletter", time.Minute)
	require.NoError(t, err)
	other()

	release()
	again, err := l.Acquire(ctx, "welcome", time.Minute)
	require.NoError(t, err)
	again()
}

func TestMemoryLockerExpires(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	stale, err := l.Acquire(ctx, "welcome", time.Millisecond)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	fresh, err := l.Acquire(ctx, "welcome", time.Minute)
	require.NoError(t, err)

	// releasing the expired holder must not free the new one
	stale()
	_, err = l.Acquire(ctx, "welcome", time.Minute)
	assert.ErrorIs(t, err, ErrHeld)
	fresh()
}
