package translate

import (
	"context"
	"sync"
)

// DefaultMaxConcurrent is the worker-pool permit count used when the caller
// does not configure one.
const DefaultMaxConcurrent = 10

// runPool runs fn over tasks with at most maxConcurrent invocations in
// flight. Task order is not guaranteed. When the context is cancelled no
// further tasks start; in-flight tasks observe the cancellation through
// their own ctx. The first non-nil error is returned after all started
// tasks finish.
func runPool[T any](ctx context.Context, tasks []T, maxConcurrent int, fn func(context.Context, T) error) error {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup
	var firstErr error
	var errOnce sync.Once

	for _, task := range tasks {
		if ctx.Err() != nil {
			break
		}

		sem <- struct{}{}
		if ctx.Err() != nil {
			// Cancelled while waiting for a permit.
			<-sem
			break
		}
		wg.Add(1)

		go func(t T) {
			defer func() {
				<-sem
				wg.Done()
			}()

			if err := fn(ctx, t); err != nil {
				errOnce.Do(func() {
					firstErr = err
				})
			}
		}(task)
	}

	wg.Wait()
	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
