package sqlsift

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jward/sqlsift/internal/parse"
)

// runParallel processes inputs on a bounded worker pool:
//
//	Workers:     read, parse (one tree-sitter parser each), scan and report.
//	Merge point: the calling goroutine re-sequences results by input index
//	             and merges them in discovery order.
//
// A merge error or cancellation stops new work; results still in flight
// are drained and discarded.
func (e *Engine) runParallel(ctx context.Context, inputs []input, merge func(fileResult) error) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	numWorkers := min(e.workers, len(inputs))

	// Tree-sitter parsers are not goroutine-safe; each running task borrows
	// one from the pool.
	parsers := make(chan *parse.Parser, numWorkers)
	for range numWorkers {
		parsers <- parse.NewParser()
	}

	results := make(chan fileResult, numWorkers)
	var workErr error

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(numWorkers)
	go func() {
		for i, in := range inputs {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				p := <-parsers
				res := e.analyzeOne(gctx, p, i, in)
				parsers <- p

				select {
				case results <- res:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		workErr = g.Wait()
		close(results)
	}()

	pending := make(map[int]fileResult)
	next := 0
	var mergeErr error
	for res := range results {
		if mergeErr != nil {
			continue
		}
		pending[res.index] = res
		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if err := merge(r); err != nil {
				mergeErr = err
				cancel()
				break
			}
		}
	}

	close(parsers)
	for p := range parsers {
		p.Close()
	}

	if mergeErr != nil {
		return mergeErr
	}
	if workErr != nil {
		return workErr
	}
	return ctx.Err()
}
