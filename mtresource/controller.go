// Package mtresource bounds the resources a table's background catalog
// work may consume: the block cache's memory budget, how many manifest loads/saves may run concurrently across a
// table's stores, and the I/O rate those loads/saves are allowed to use.
// A nil *Controller is always the unlimited/no-op case, so callers that
// don't need resource governance can pass one around for free.
package mtresource

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits for one table's catalog and cache.
type Config struct {
	// MemoryLimitBytes is the hard limit for the block cache's managed
	// memory. If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// MaxBackgroundWorkers caps how many manifest loads/saves may run
	// concurrently against the backing blobstore. If 0, defaults to 1,
	// serializing catalog refreshes across every Store sharing this
	// Controller.
	MaxBackgroundWorkers int64

	// IOLimitBytesPerSec throttles manifest read/write throughput. If 0,
	// unlimited.
	IOLimitBytesPerSec int64
}

// Controller governs the resources a table's catalog.Store and block
// cache draw on: reserved cache memory, concurrent background catalog
// refreshes, and their I/O rate.
type Controller struct {
	cfg Config

	// Memory, reserved by the block cache.
	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	// Concurrency, gating background catalog refreshes.
	bgSem *semaphore.Weighted

	// IO, throttling manifest reads and writes.
	ioLimiter *rate.Limiter
}

// NewController creates a resource controller for one table.
func NewController(cfg Config) *Controller {
	if cfg.MaxBackgroundWorkers <= 0 {
		cfg.MaxBackgroundWorkers = 1
	}

	c := &Controller{
		cfg:   cfg,
		bgSem: semaphore.NewWeighted(cfg.MaxBackgroundWorkers),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireMemory reserves bytes of block cache memory. If a hard limit
// is configured and usage would exceed it, this blocks until memory is
// released or ctx is canceled.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil {
		return nil
	}
	if bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if err := c.memSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}

	c.memUsed.Add(bytes)
	return nil
}

// TryAcquireMemory reserves bytes of block cache memory without
// blocking. Returns false if the hard limit would be exceeded.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil {
		return true
	}
	if bytes <= 0 {
		return true
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(bytes) {
			return false
		}
	}

	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory releases bytes reserved by AcquireMemory or
// TryAcquireMemory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil {
		return
	}
	if bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireBackground reserves a slot for one catalog.Store manifest
// load or save. Blocks until a slot frees up or ctx is canceled. A nil
// Controller never gates concurrency.
func (c *Controller) AcquireBackground(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.bgSem.Acquire(ctx, 1)
}

// ReleaseBackground releases a slot reserved by AcquireBackground.
func (c *Controller) ReleaseBackground() {
	if c == nil {
		return
	}
	c.bgSem.Release(1)
}

// TryAcquireBackground reserves a manifest load/save slot without
// blocking. Returns false if every slot is busy.
func (c *Controller) TryAcquireBackground() bool {
	if c == nil {
		return true
	}
	return c.bgSem.TryAcquire(1)
}

// AcquireIO waits until the configured manifest I/O rate allows the
// given number of bytes. A nil Controller or an unconfigured limit
// never throttles. Requests larger than one second's allowance are waited
// for in pieces. If the wait cannot finish before ctx's deadline, the
// returned error wraps context.DeadlineExceeded.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			if _, ok := ctx.Deadline(); ok && ctx.Err() == nil {
				return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
			}
			return err
		}
		bytes -= n
	}
	return nil
}
