package core

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchRows is the number of grid rows handed to one job.
const DefaultBatchRows = 8

// Pool runs bounded fork-join regions. Every call blocks until all of its jobs
// have finished; there are no long-lived workers.
type Pool struct {
	workers   int
	batchRows int
}

// NewPool returns a pool running at most workers jobs at once. Non-positive
// values fall back to GOMAXPROCS and DefaultBatchRows.
func NewPool(workers, batchRows int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if batchRows <= 0 {
		batchRows = DefaultBatchRows
	}
	return &Pool{workers: workers, batchRows: batchRows}
}

// Workers reports the concurrency limit.
func (p *Pool) Workers() int { return p.workers }

// BatchRows reports the height of one row batch.
func (p *Pool) BatchRows() int { return p.batchRows }

// Batches returns how many row batches cover rows.
func (p *Pool) Batches(rows int) int {
	if rows <= 0 {
		return 0
	}
	return (rows + p.batchRows - 1) / p.batchRows
}

// Rows splits [0, rows) into batches and calls fn(batch, lo, hi) for each.
// The batch layout depends only on rows and BatchRows.
func (p *Pool) Rows(rows int, fn func(batch, lo, hi int)) {
	p.Range(p.Batches(rows), func(b int) {
		lo := b * p.batchRows
		hi := min(lo+p.batchRows, rows)
		fn(b, lo, hi)
	})
}

// Range calls fn(i) for every i in [0, n) and returns once all calls are done.
func (p *Pool) Range(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	if p.workers == 1 || n == 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	var g errgroup.Group
	g.SetLimit(p.workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}
