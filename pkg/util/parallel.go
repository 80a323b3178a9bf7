// Package util holds small concurrency helpers.
package util

import (
	"context"
	"sync"
)

// Parallel calls fn for every input with at most limit calls in flight. The
// first error cancels the context seen by the remaining calls and is returned.
func Parallel[T any](ctx context.Context, inputs []T, limit int, fn func(context.Context, T) error) error {
	if len(inputs) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := make(chan T)
	errCh := make(chan error, 1)

	var wg sync.WaitGroup
	for i, n := 0, min(limit, len(inputs)); i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range tasks {
				if err := fn(ctx, item); err != nil {
					select {
					case errCh <- err:
						cancel()
					default:
					}
					return
				}
			}
		}()
	}

	go func() {
		defer close(tasks)
		for _, item := range inputs {
			select {
			case <-ctx.Done():
				return
			case tasks <- item:
			}
		}
	}()

	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return ctx.Err()
	}
}
