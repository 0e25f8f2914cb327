// Package stream defines the BlockInputStream contract the planner wires
// together, plus a reference in-memory part reader and the Expression,
// Filter, Concat, and CollapsingFinal composing wrappers spec.md §6.2
// names as opaque collaborators.
//
// The real part-level block reader remains an external collaborator: no
// on-disk format is specified. stream.NewPartBlockStream is a reference,
// in-memory implementation used by this module's own tests.
package stream

import (
	"context"
	"iter"
)

// Column is one materialized column's worth of block data. A real reader
// would decode a column's native on-disk representation; the reference
// implementation here just holds Go values.
type Column []any

// Block is one unit of streamed output: a set of named columns, each of
// length Len.
type Block struct {
	Columns map[string]Column
	Len     int
}

// BlockInputStream is a standalone pipeline the caller may pull
// independently. Implementations must be safe to pull exactly once;
// concurrent streams returned by the planner are pulled on separate
// goroutines by the caller, never shared.
type BlockInputStream interface {
	// Blocks returns a sequence of blocks. A non-nil error ends the
	// sequence; the stream must not yield further blocks afterwards.
	Blocks(ctx context.Context) iter.Seq2[Block, error]
}
