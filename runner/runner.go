// Package runner is a caller-side convenience: the planner itself never
// pulls a stream (spec.md §5 — "all parallelism is realized by the
// caller"), so this package demonstrates the split by draining a Result's
// streams concurrently with errgroup, the same pattern the teacher uses
// for fanning out independent background jobs.
package runner

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/coltree/mergetree/stream"
)

// PullAll drains every stream concurrently, one goroutine per stream, and
// returns their blocks as one slice per stream, in stream order (not row order —
// callers that need FINAL's global order get it from a single collapsing
// stream, which PullAll still drains on its own goroutine like any other).
//
// If any stream's pull returns an error, PullAll cancels the others via
// ctx and returns the first error encountered.
func PullAll(ctx context.Context, streams []stream.BlockInputStream) ([][]stream.Block, error) {
	results := make([][]stream.Block, len(streams))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range streams {
		i, s := i, s
		g.Go(func() error {
			var blocks []stream.Block
			for blk, err := range s.Blocks(gctx) {
				if err != nil {
					return err
				}
				blocks = append(blocks, blk)
			}
			results[i] = blocks
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RowCount sums the row count of every block across every stream, a
// convenience for tests and examples that just need a total.
func RowCount(results [][]stream.Block) int {
	total := 0
	for _, blocks := range results {
		for _, b := range blocks {
			total += b.Len
		}
	}
	return total
}
