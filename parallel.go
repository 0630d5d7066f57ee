package geoshape

import (
	"golang.org/x/sync/errgroup"
)

// forEachIndex calls fn for 0..n-1, fanning out over at most workers
// goroutines. fn must only write to its own index of any shared slice.
func forEachIndex(workers, n int, fn func(i int)) {
	if workers <= 1 || n < 2 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	// Tasks report failures through fn's own slots, so Wait only joins.
	g.Wait()
}
