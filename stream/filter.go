package stream

import (
	"context"
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// Filter wraps inner, keeping only rows whose filterColumn value is
// truthy (the boolean true, or a non-zero number). It's used both for the
// sampling row filter ("sampling_expr ≤ limit") and for C5's one-surviving
// -part "sign == 1" filter, each of which first runs through Expression to
// materialize filterColumn.
//
// Matching row positions within each block are collected into a
// roaring.Bitmap before materialization, the same way the corpus's LSM
// part scanner represents a block's surviving row set as a bitmap ahead of
// taking the matching rows.
func Filter(inner BlockInputStream, filterColumn string) BlockInputStream {
	return &filterStream{inner: inner, filterColumn: filterColumn}
}

type filterStream struct {
	inner        BlockInputStream
	filterColumn string
}

func (s *filterStream) Blocks(ctx context.Context) iter.Seq2[Block, error] {
	return func(yield func(Block, error) bool) {
		for blk, err := range s.inner.Blocks(ctx) {
			if err != nil {
				yield(Block{}, err)
				return
			}
			keep := matchingPositions(blk, s.filterColumn)
			if keep.IsEmpty() {
				continue
			}
			filtered := takeBlock(blk, keep)
			if filtered.Len == 0 {
				continue
			}
			if !yield(filtered, nil) {
				return
			}
		}
	}
}

// matchingPositions builds a bitmap of the row indices in blk whose
// filterColumn value is truthy.
func matchingPositions(blk Block, filterColumn string) *roaring.Bitmap {
	b := roaring.New()
	col, ok := blk.Columns[filterColumn]
	if !ok {
		return b
	}
	for i := 0; i < blk.Len && i < len(col); i++ {
		if truthy(col[i]) {
			b.Add(uint32(i))
		}
	}
	return b
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int:
		return x != 0
	case int64:
		return x != 0
	case uint64:
		return x != 0
	case float64:
		return x != 0
	default:
		return v != nil
	}
}

// takeBlock materializes only the rows selected by keep, in ascending
// order, preserving every column of blk.
func takeBlock(blk Block, keep *roaring.Bitmap) Block {
	n := int(keep.GetCardinality())
	out := Block{Columns: make(map[string]Column, len(blk.Columns)), Len: n}
	idx := keep.ToArray()
	for name, col := range blk.Columns {
		vals := make(Column, n)
		for i, pos := range idx {
			if int(pos) < len(col) {
				vals[i] = col[pos]
			}
		}
		out.Columns[name] = vals
	}
	return out
}
