package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

var (
	// ErrBulkheadFull is returned when no slot is free and waiting is disabled.
	ErrBulkheadFull = errors.New("bulkhead is full")
	// ErrBulkheadTimeout is returned when no slot freed up within MaxWait.
	ErrBulkheadTimeout = errors.New("bulkhead wait timeout")
)

// BulkheadConfig caps concurrent calls into one upstream.
type BulkheadConfig struct {
	Name          string
	MaxConcurrent int
	// MaxWait bounds the wait for a slot. Zero rejects at once.
	MaxWait time.Duration
}

// Bulkhead bounds how many calls run at the same time. Callers that find it
// full either fail fast or queue for at most MaxWait.
type Bulkhead struct {
	name    string
	maxWait time.Duration
	sem     *semaphore.Weighted
	held    atomic.Int64
}

// NewBulkhead creates a bulkhead. MaxConcurrent defaults to 10.
func NewBulkhead(cfg BulkheadConfig) *Bulkhead {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 10
	}
	return &Bulkhead{
		name:    cfg.Name,
		maxWait: cfg.MaxWait,
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
	}
}

// Execute runs fn while holding a slot.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	if err := b.acquire(ctx); err != nil {
		return err
	}
	b.held.Add(1)
	defer func() {
		b.held.Add(-1)
		b.sem.Release(1)
	}()
	return fn()
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	if b.sem.TryAcquire(1) {
		return nil
	}
	if b.maxWait <= 0 {
		return ErrBulkheadFull
	}

	waitCtx, cancel := context.WithTimeout(ctx, b.maxWait)
	defer cancel()
	if err := b.sem.Acquire(waitCtx, 1); err != nil {
		// The caller's own cancellation wins over our wait deadline.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return ErrBulkheadTimeout
	}
	return nil
}

// InUse returns the number of slots currently held.
func (b *Bulkhead) InUse() int {
	return int(b.held.Load())
}
