package store

import (
	"context"
	"log/slog"
	"time"
)

// ReadWithRetry runs an idempotent read, retrying once after delay on error.
// Each attempt is bounded by timeout. Writes must not go through here.
func ReadWithRetry[T any](ctx context.Context, timeout, delay time.Duration, read func(ctx context.Context) (T, error)) (T, error) {
	attempt := func() (T, error) {
		actx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return read(actx)
	}

	v, err := attempt()
	if err == nil || ctx.Err() != nil {
		return v, err
	}
	slog.Debug("store read failed, retrying once", "error", err, "delay", delay)

	select {
	case <-ctx.Done():
		return v, err
	case <-time.After(delay):
	}
	return attempt()
}

// WriteWithTimeout runs a single write attempt bounded by timeout.
func WriteWithTimeout(ctx context.Context, timeout time.Duration, write func(ctx context.Context) error) error {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return write(wctx)
}
