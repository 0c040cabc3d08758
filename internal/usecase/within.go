package usecase

import (
	"context"
	"errors"
	"time"

	"ai-interview-engine/internal/domain"
)

type outcome[T any] struct {
	val T
	err error
}

// within runs fn in its own goroutine and waits at most d. A deadline maps to
// domain.ErrUpstreamTimeout; the goroutine is left to observe ctx on its own.
func within[T any](ctx context.Context, d time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	ch := make(chan outcome[T], 1)
	go func() {
		v, err := fn(ctx)
		ch <- outcome[T]{val: v, err: err}
	}()

	var zero T
	select {
	case r := <-ch:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) {
			return zero, domain.ErrUpstreamTimeout
		}
		return r.val, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, domain.ErrUpstreamTimeout
		}
		return zero, ctx.Err()
	}
}
