package stream

import (
	"context"
	"fmt"
	"iter"
)

// CollapsingFinal merges several already primary-key-sorted per-part
// streams into one, collapsing runs of rows that share the same primary
// key tuple (across parts) down to at most one row: the representative of
// a run whose signs sum positive. Rows from a run that nets to zero or
// negative are dropped entirely.
//
// sortColumns names the columns (present in every input row) that make up the primary key tuple; signColumn names the Int8
// insert/delete marker column.
func CollapsingFinal(streams []BlockInputStream, sortColumns []string, signColumn string) BlockInputStream {
	return &collapsingStream{streams: streams, sortColumns: sortColumns, signColumn: signColumn}
}

type collapsingStream struct {
	streams     []BlockInputStream
	sortColumns []string
	signColumn  string
}

const collapsingOutputBlockSize = 1024

func (s *collapsingStream) Blocks(ctx context.Context) iter.Seq2[Block, error] {
	return func(yield func(Block, error) bool) {
		merged, stop, err := mergeRows(ctx, s.streams, s.sortColumns)
		if stop != nil {
			defer stop()
		}
		if err != nil {
			yield(Block{}, err)
			return
		}

		var pending []map[string]any
		flush := func() bool {
			if len(pending) == 0 {
				return true
			}
			blk := rowsToBlock(pending)
			pending = pending[:0]
			return yield(blk, nil)
		}

		var group []map[string]any
		flushGroup := func() {
			selected := selectSurvivor(group, s.signColumn)
			if selected != nil {
				pending = append(pending, selected)
			}
			group = group[:0]
		}

		for row, err := range merged {
			if err != nil {
				flushGroup()
				flush()
				yield(Block{}, err)
				return
			}
			if len(group) > 0 && !sameKey(group[0], row, s.sortColumns) {
				flushGroup()
				if len(pending) >= collapsingOutputBlockSize {
					if !flush() {
						return
					}
				}
			}
			group = append(group, row)
		}
		flushGroup()
		flush()
	}
}

// selectSurvivor sums signColumn across group and, if the net is
// positive, returns the last row in the group as the representative.
func selectSurvivor(group []map[string]any, signColumn string) map[string]any {
	if len(group) == 0 {
		return nil
	}
	var net int64
	for _, row := range group {
		net += signOf(row[signColumn])
	}
	if net <= 0 {
		return nil
	}
	return group[len(group)-1]
}

func signOf(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	default:
		return 0
	}
}

func sameKey(a, b map[string]any, sortColumns []string) bool {
	for _, c := range sortColumns {
		if fmt.Sprint(a[c]) != fmt.Sprint(b[c]) {
			return false
		}
	}
	return true
}

func rowsToBlock(rows []map[string]any) Block {
	blk := Block{Columns: make(map[string]Column), Len: len(rows)}
	for _, row := range rows {
		for name := range row {
			if _, ok := blk.Columns[name]; !ok {
				blk.Columns[name] = make(Column, len(rows))
			}
		}
	}
	for i, row := range rows {
		for name, v := range row {
			blk.Columns[name][i] = v
		}
	}
	return blk
}

// mergeRows performs a k-way merge of streams, each assumed internally
// sorted ascending by sortColumns, yielding rows in global sort order.
func mergeRows(ctx context.Context, streams []BlockInputStream, sortColumns []string) (iter.Seq2[map[string]any, error], func(), error) {
	type source struct {
		next func() (map[string]any, error, bool)
		stop func()
		cur  map[string]any
		err  error
		ok   bool
	}

	sources := make([]*source, 0, len(streams))
	stopAll := func() {
		for _, s := range sources {
			if s.stop != nil {
				s.stop()
			}
		}
	}

	for _, st := range streams {
		rowSeq := flattenRows(ctx, st)
		next, stop := iter.Pull2(rowSeq)
		src := &source{next: func() (map[string]any, error, bool) {
			row, err, ok := next()
			return row, err, ok
		}, stop: stop}
		row, err, ok := src.next()
		src.cur, src.err, src.ok = row, err, ok
		sources = append(sources, src)
	}

	seq := func(yield func(map[string]any, error) bool) {
		for {
			best := -1
			for i, s := range sources {
				if !s.ok {
					continue
				}
				if s.err != nil {
					yield(nil, s.err)
					return
				}
				if best == -1 || lessKey(s.cur, sources[best].cur, sortColumns) {
					best = i
				}
			}
			if best == -1 {
				return
			}
			row := sources[best].cur
			if !yield(row, nil) {
				return
			}
			next, err, ok := sources[best].next()
			sources[best].cur, sources[best].err, sources[best].ok = next, err, ok
		}
	}

	return seq, stopAll, nil
}

// flattenRows unpacks a BlockInputStream's blocks into individual rows.
func flattenRows(ctx context.Context, st BlockInputStream) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		for blk, err := range st.Blocks(ctx) {
			if err != nil {
				yield(nil, err)
				return
			}
			for i := 0; i < blk.Len; i++ {
				row := make(map[string]any, len(blk.Columns))
				for name, col := range blk.Columns {
					if i < len(col) {
						row[name] = col[i]
					}
				}
				if !yield(row, nil) {
					return
				}
			}
		}
	}
}

// lessKey orders int, int64 and uint64 key values numerically and any
// other value by its fmt.Sprint form.
func lessKey(a, b map[string]any, sortColumns []string) bool {
	for _, c := range sortColumns {
		switch x := a[c].(type) {
		case int:
			if y, ok := b[c].(int); ok && x != y {
				return x < y
			}
		case int64:
			if y, ok := b[c].(int64); ok && x != y {
				return x < y
			}
		case uint64:
			if y, ok := b[c].(uint64); ok && x != y {
				return x < y
			}
		}
		av, bv := fmt.Sprint(a[c]), fmt.Sprint(b[c])
		if av != bv {
			return av < bv
		}
	}
	return false
}
