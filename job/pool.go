package job

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool runs parallel-for dispatches over a fixed number of workers.
type Pool struct {
	workers int
}

// NewPool creates a pool with the given number of workers.
// If workers <= 0, runtime.GOMAXPROCS(0) is used.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{workers: workers}
}

// Workers returns the number of workers, which is also the number of shard
// slots a shard-local accumulator needs for this pool.
func (p *Pool) Workers() int {
	return p.workers
}

type batch struct {
	start, end int
}

// ParallelFor calls fn(worker, i) for every i in [0, n) after deps completed.
// Indices are handed out in batches of batchSize; worker is in [0, Workers())
// and fixed for the goroutine running the batch. The first error stops
// further batches from being handed out.
func (p *Pool) ParallelFor(n, batchSize int, fn func(worker, i int) error, deps ...Handle) Handle {
	if batchSize <= 0 {
		batchSize = 1
	}
	return Schedule(func() error {
		return p.run(n, batchSize, fn)
	}, deps...)
}

func (p *Pool) run(n, batchSize int, fn func(worker, i int) error) error {
	if n <= 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(context.Background())
	batches := make(chan batch)

	g.Go(func() error {
		defer close(batches)
		for start := 0; start < n; start += batchSize {
			end := min(start+batchSize, n)
			select {
			case batches <- batch{start: start, end: end}:
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	})

	for w := 0; w < p.workers; w++ {
		g.Go(func() error {
			for b := range batches {
				for i := b.start; i < b.end; i++ {
					if err := fn(w, i); err != nil {
						return err
					}
				}
			}
			return nil
		})
	}

	return g.Wait()
}
