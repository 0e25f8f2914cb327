// Package rangeprune implements the coarse primary-key index descent that
// turns a compiled condition into the set of mark ranges that could
// possibly contain a matching row.
package rangeprune

import (
	"github.com/coltree/mergetree/part"
	"github.com/coltree/mergetree/pkcondition"
)

// Prune returns the mark ranges of idx (covering marksCount marks) that
// may satisfy cond, coalescing adjacent single-mark hits that are no more
// than minMarksForSeek marks apart.
//
// The descent is depth-first, left-first, over an implicit tree: each
// interval that cannot be resolved down to a single mark is split into
// coarseIndexGranularity roughly-equal children tiled from the right (so
// the leftmost child absorbs any remainder), pushed right-to-left so the
// leftmost child is visited first.
func Prune(idx part.PrimaryKeyIndex, marksCount int, cond pkcondition.Condition, minMarksForSeek, coarseIndexGranularity int) []part.MarkRange {
	if cond.AlwaysTrue() {
		return []part.MarkRange{{Begin: 0, End: marksCount}}
	}
	if coarseIndexGranularity <= 0 {
		coarseIndexGranularity = 1
	}

	var res []part.MarkRange
	stack := []part.MarkRange{{Begin: 0, End: marksCount}}

	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var mayBeTrue bool
		if r.End == marksCount {
			mayBeTrue = cond.MayBeTrueAfter(idx[r.Begin])
		} else {
			mayBeTrue = cond.MayBeTrueInRange(idx[r.Begin], idx[r.End])
		}
		if !mayBeTrue {
			continue
		}

		if r.End == r.Begin+1 {
			if len(res) == 0 || r.Begin-res[len(res)-1].End > minMarksForSeek {
				res = append(res, r)
			} else {
				res[len(res)-1].End = r.End
			}
			continue
		}

		step := (r.End-r.Begin-1)/coarseIndexGranularity + 1
		end := r.End
		for end > r.Begin+step {
			stack = append(stack, part.MarkRange{Begin: end - step, End: end})
			end -= step
		}
		stack = append(stack, part.MarkRange{Begin: r.Begin, End: end})
	}

	return res
}
