package stream

import (
	"context"
	"iter"

	"github.com/coltree/mergetree/part"
)

// RowSource is implemented by reference Part handles that hold their row
// data in memory, column-major, one slice per column spanning the whole
// part. Production part handles page row data lazily from disk instead;
// RowSource exists only so this module's reference reader and tests can
// drive real bytes through the planner's wiring.
type RowSource interface {
	Rows() map[string]Column
}

// InMemoryPart pairs a part.Part with its row data for use with
// NewPartBlockStream in tests.
type InMemoryPart struct {
	part.Part
	RowColumns map[string]Column
}

func (p *InMemoryPart) Rows() map[string]Column { return p.RowColumns }

// PrewhereSpec describes a compiled PREWHERE predicate: a boolean
// expression over RequiredColumns, evaluated before (conceptually; the
// in-memory reference reader can't actually skip I/O) materializing the
// rest of the requested columns, plus the output column name it's
// projected under for downstream stages that need to see it.
type PrewhereSpec struct {
	ColumnName      string
	RequiredColumns []string
	Eval            func(row map[string]any) bool
}

// NewPartBlockStream is the reference (in-memory) implementation of the
// part reader constructor named in spec.md §6.2. p must implement
// RowSource for any row data to actually be returned; a part with no row
// data yields an empty stream regardless of ranges.
func NewPartBlockStream(p part.Part, maxBlockSize int, columns []string, ranges []part.MarkRange, useCache bool, prewhere *PrewhereSpec) BlockInputStream {
	return &partBlockStream{
		part:         p,
		maxBlockSize: maxBlockSize,
		columns:      columns,
		ranges:       ranges,
		prewhere:     prewhere,
	}
}

type partBlockStream struct {
	part         part.Part
	maxBlockSize int
	columns      []string
	ranges       []part.MarkRange
	prewhere     *PrewhereSpec
}

func (s *partBlockStream) Blocks(ctx context.Context) iter.Seq2[Block, error] {
	return func(yield func(Block, error) bool) {
		rs, ok := s.part.(RowSource)
		if !ok {
			return
		}
		rows := rs.Rows()
		granularity := s.part.IndexGranularity()
		if granularity <= 0 {
			granularity = 1
		}
		rowsCount := s.part.RowsCount()
		maxBlock := s.maxBlockSize
		if maxBlock <= 0 {
			maxBlock = rowsCount
			if maxBlock <= 0 {
				maxBlock = 1
			}
		}

		pending := make([]int, 0, maxBlock)
		flush := func() bool {
			if len(pending) == 0 {
				return true
			}
			blk := materializeRows(rows, s.columns, s.prewhere, pending)
			pending = pending[:0]
			if blk.Len == 0 {
				return true
			}
			return yield(blk, nil)
		}

		for _, rg := range s.ranges {
			begin := rg.Begin * granularity
			end := rg.End * granularity
			if end > rowsCount {
				end = rowsCount
			}
			for row := begin; row < end; row++ {
				select {
				case <-ctx.Done():
					yield(Block{}, ctx.Err())
					return
				default:
				}
				pending = append(pending, row)
				if len(pending) >= maxBlock {
					if !flush() {
						return
					}
				}
			}
		}
		flush()
	}
}

// materializeRows builds a Block from the given absolute row indices,
// applying the PREWHERE predicate (if any) as a pre-filter before
// projecting the requested columns.
func materializeRows(rows map[string]Column, columns []string, prewhere *PrewhereSpec, rowIdx []int) Block {
	selected := rowIdx
	if prewhere != nil && prewhere.Eval != nil {
		selected = selected[:0]
		for _, r := range rowIdx {
			rowVals := make(map[string]any, len(prewhere.RequiredColumns))
			for _, c := range prewhere.RequiredColumns {
				if col, ok := rows[c]; ok && r < len(col) {
					rowVals[c] = col[r]
				}
			}
			if prewhere.Eval(rowVals) {
				selected = append(selected, r)
			}
		}
	}

	out := Block{Columns: make(map[string]Column, len(columns)+1), Len: len(selected)}
	for _, c := range columns {
		col, ok := rows[c]
		vals := make(Column, len(selected))
		if ok {
			for i, r := range selected {
				if r < len(col) {
					vals[i] = col[r]
				}
			}
		}
		out.Columns[c] = vals
	}
	if prewhere != nil && prewhere.ColumnName != "" {
		vals := make(Column, len(selected))
		for i := range vals {
			vals[i] = true
		}
		out.Columns[prewhere.ColumnName] = vals
	}
	return out
}
