package stream

import (
	"context"
	"iter"
)

// ExpressionFunc computes one output value from a row's already-fetched
// columns.
type ExpressionFunc func(row map[string]any) any

// Expression wraps inner, projecting one additional computed column named
// outputColumn into every block it yields. The planner uses this to
// evaluate the sampling comparison and the positive-sign predicate.
func Expression(inner BlockInputStream, outputColumn string, fn ExpressionFunc) BlockInputStream {
	return &expressionStream{inner: inner, outputColumn: outputColumn, fn: fn}
}

type expressionStream struct {
	inner        BlockInputStream
	outputColumn string
	fn           ExpressionFunc
}

func (s *expressionStream) Blocks(ctx context.Context) iter.Seq2[Block, error] {
	return func(yield func(Block, error) bool) {
		for blk, err := range s.inner.Blocks(ctx) {
			if err != nil {
				yield(Block{}, err)
				return
			}
			out := make(Column, blk.Len)
			for i := 0; i < blk.Len; i++ {
				row := make(map[string]any, len(blk.Columns))
				for name, col := range blk.Columns {
					if i < len(col) {
						row[name] = col[i]
					}
				}
				out[i] = s.fn(row)
			}
			projected := Block{Columns: make(map[string]Column, len(blk.Columns)+1), Len: blk.Len}
			for name, col := range blk.Columns {
				projected.Columns[name] = col
			}
			projected.Columns[s.outputColumn] = out
			if !yield(projected, nil) {
				return
			}
		}
	}
}
