package concurrent

import (
	"golang.org/x/sync/errgroup"
)

// ParallelMap applies mapFn to every element of in using at most workers
// goroutines and returns the results in input order. A non-positive workers
// value means one goroutine per element. The first error is returned after
// all started calls finish.
func ParallelMap[T any, R any](in []T, workers int, mapFn func(int, T) (R, error)) ([]R, error) {
	out := make([]R, len(in))
	if len(in) == 0 {
		return out, nil
	}

	g := errgroup.Group{}
	if workers > 0 {
		g.SetLimit(workers)
	}
	for idx, val := range in {
		g.Go(func() error {
			r, err := mapFn(idx, val)
			if err != nil {
				return err
			}
			out[idx] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

// ForEach runs action for every element of in using at most workers
// goroutines and returns the first error.
func ForEach[T any](in []T, workers int, action func(int, T) error) error {
	_, err := ParallelMap(in, workers, func(i int, v T) (struct{}, error) {
		return struct{}{}, action(i, v)
	})
	return err
}
