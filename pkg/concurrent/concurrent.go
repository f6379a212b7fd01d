package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Map applies mapFn to every element of in on at most workers goroutines,
// preserving order. It returns the first error encountered; the context
// passed to mapFn is cancelled once any call fails.
func Map[T any, R any](parent context.Context, in []T, workers int, mapFn func(context.Context, T) (R, error)) ([]R, error) {
	out := make([]R, len(in))
	g, ctx := errgroup.WithContext(parent)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for idx, val := range in {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r, err := mapFn(ctx, val)
			if err != nil {
				return err
			}
			out[idx] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := parent.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
