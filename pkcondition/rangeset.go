package pkcondition

import (
	"fmt"
	"strings"

	"github.com/coltree/mergetree/part"
)

// RangeSet is a reference Condition: the conjunction of independent,
// per-column Ranges evaluated lexicographically over the primary key
// column order, the same order a real index descent would use.
//
// It is conservative by construction: once the two boundary keys differ
// at a column (or, for an open-ended range, from the first column on),
// evaluation stops and reports true rather than inspecting later
// columns, mirroring how ClickHouse's PKCondition treats a partial key
// match as inconclusive.
type RangeSet struct {
	keyColumns []string
	ranges     map[string]Range
}

// NewRangeSet creates an always-true condition compiled against the given
// primary key column order. Use AddCondition to constrain individual
// columns.
func NewRangeSet(keyColumns []string) *RangeSet {
	return &RangeSet{
		keyColumns: keyColumns,
		ranges:     make(map[string]Range),
	}
}

func (c *RangeSet) AlwaysTrue() bool {
	return len(c.ranges) == 0
}

func (c *RangeSet) AddCondition(column string, r Range) bool {
	idx := c.columnIndex(column)
	if idx < 0 {
		return false
	}
	existing, ok := c.ranges[column]
	if !ok {
		c.ranges[column] = r
		return true
	}
	c.ranges[column] = intersect(existing, r)
	return true
}

func (c *RangeSet) columnIndex(column string) int {
	for i, name := range c.keyColumns {
		if name == column {
			return i
		}
	}
	return -1
}

// MayBeTrueInRange conservatively evaluates the conjunction over
// [left, right] by checking, for each constrained key column in order,
// whether the column's projected interval [left[i], right[i]] could
// intersect the column's Range.
func (c *RangeSet) MayBeTrueInRange(left, right part.Key) bool {
	for i, col := range c.keyColumns {
		if i >= len(left) || i >= len(right) {
			return true
		}
		if r, ok := c.ranges[col]; ok && !rangesMayIntersect(r, left[i], right[i]) {
			return false
		}
		// If the boundary keys disagree at this column, later columns
		// cannot further narrow the answer: any value is possible for
		// them within the gap, so remain conservative and stop here.
		eq, err := compare(left[i], right[i])
		if err != nil || eq != 0 {
			return true
		}
	}
	return true
}

// MayBeTrueAfter conservatively evaluates the conjunction over [left, +inf).
func (c *RangeSet) MayBeTrueAfter(left part.Key) bool {
	for i, col := range c.keyColumns {
		r, ok := c.ranges[col]
		if !ok {
			// Only the first key column is bounded below by left; keys
			// after it can hold any value in later columns.
			return true
		}
		if i >= len(left) {
			return true
		}
		if !rangeMayBeTrueAfter(r, left[i]) {
			return false
		}
		return true
	}
	return true
}

func (c *RangeSet) String() string {
	if c.AlwaysTrue() {
		return "unknown"
	}
	parts := make([]string, 0, len(c.ranges))
	for _, col := range c.keyColumns {
		r, ok := c.ranges[col]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s in %s", col, rangeString(r)))
	}
	return strings.Join(parts, ", ")
}

func rangeString(r Range) string {
	left := "-inf"
	if !r.LeftUnbounded {
		left = fmt.Sprintf("%v", r.Left)
	}
	right := "+inf"
	if !r.RightUnbounded {
		right = fmt.Sprintf("%v", r.Right)
	}
	lb := "("
	if r.LeftIncl {
		lb = "["
	}
	rb := ")"
	if r.RightIncl {
		rb = "]"
	}
	return fmt.Sprintf("%s%s, %s%s", lb, left, right, rb)
}

// rangesMayIntersect reports whether Range r could contain some value in
// [lo, hi].
func rangesMayIntersect(r Range, lo, hi any) bool {
	if !r.LeftUnbounded {
		if cmp, err := compare(hi, r.Left); err == nil {
			if cmp < 0 || (cmp == 0 && !r.LeftIncl) {
				return false
			}
		}
	}
	if !r.RightUnbounded {
		if cmp, err := compare(lo, r.Right); err == nil {
			if cmp > 0 || (cmp == 0 && !r.RightIncl) {
				return false
			}
		}
	}
	return true
}

// rangeMayBeTrueAfter reports whether Range r could contain some value
// >= lo.
func rangeMayBeTrueAfter(r Range, lo any) bool {
	if !r.RightUnbounded {
		if cmp, err := compare(lo, r.Right); err == nil {
			if cmp > 0 || (cmp == 0 && !r.RightIncl) {
				return false
			}
		}
	}
	return true
}

// intersect narrows a to the overlap with b, keeping the tighter bound on
// each side.
func intersect(a, b Range) Range {
	out := a
	if !b.LeftUnbounded {
		if a.LeftUnbounded {
			out.LeftUnbounded = false
			out.Left = b.Left
			out.LeftIncl = b.LeftIncl
		} else if cmp, err := compare(b.Left, a.Left); err == nil && (cmp > 0 || (cmp == 0 && !b.LeftIncl)) {
			out.Left = b.Left
			out.LeftIncl = b.LeftIncl
		}
	}
	if !b.RightUnbounded {
		if a.RightUnbounded {
			out.RightUnbounded = false
			out.Right = b.Right
			out.RightIncl = b.RightIncl
		} else if cmp, err := compare(b.Right, a.Right); err == nil && (cmp < 0 || (cmp == 0 && !b.RightIncl)) {
			out.Right = b.Right
			out.RightIncl = b.RightIncl
		}
	}
	return out
}
