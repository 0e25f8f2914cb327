package mtresource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_MemoryReservationForBlockCache(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.AcquireMemory(context.Background(), 50))
	assert.Equal(t, int64(50), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(context.Background(), 40))
	assert.Equal(t, int64(90), c.MemoryUsage())

	assert.False(t, c.TryAcquireMemory(20))
	assert.Equal(t, int64(90), c.MemoryUsage())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := c.AcquireMemory(ctx, 20)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(context.Background(), 20))
	assert.Equal(t, int64(60), c.MemoryUsage())
}

func TestController_UnboundedMemoryOnlyTracksUsage(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 0})

	require.NoError(t, c.AcquireMemory(context.Background(), 1000))
	assert.Equal(t, int64(1000), c.MemoryUsage())

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
}

func TestController_BackgroundSlotsGateConcurrentManifestRefresh(t *testing.T) {
	c := NewController(Config{MaxBackgroundWorkers: 2})

	require.NoError(t, c.AcquireBackground(context.Background()))
	require.NoError(t, c.AcquireBackground(context.Background()))

	assert.False(t, c.TryAcquireBackground())

	c.ReleaseBackground()

	assert.True(t, c.TryAcquireBackground())
}

func TestController_DefaultsToOneBackgroundWorker(t *testing.T) {
	c := NewController(Config{})

	require.NoError(t, c.AcquireBackground(context.Background()))
	assert.False(t, c.TryAcquireBackground())
	c.ReleaseBackground()
}

func TestController_IOLimiterThrottlesRateLimitedReader(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 10})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	// The first call spends the whole burst (10 bytes); a second
	// 10-byte request in the same instant would have to wait about a
	// second, well past the short deadline.
	require.NoError(t, c.AcquireIO(context.Background(), 10))
	err := c.AcquireIO(ctx, 10)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestController_UnconfiguredIOLimiterNeverThrottles(t *testing.T) {
	c := NewController(Config{})
	assert.NoError(t, c.AcquireIO(context.Background(), 1<<20))
}

func TestController_NilControllerIsAlwaysUnlimited(t *testing.T) {
	var c *Controller

	assert.NoError(t, c.AcquireMemory(context.Background(), 1<<30))
	assert.True(t, c.TryAcquireMemory(1<<30))
	assert.NotPanics(t, func() { c.ReleaseMemory(1) })
	assert.Equal(t, int64(0), c.MemoryUsage())

	assert.NoError(t, c.AcquireBackground(context.Background()))
	assert.True(t, c.TryAcquireBackground())
	assert.NotPanics(t, func() { c.ReleaseBackground() })

	assert.NoError(t, c.AcquireIO(context.Background(), 1<<20))
}
