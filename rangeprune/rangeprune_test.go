package rangeprune

import (
	"testing"

	"github.com/coltree/mergetree/part"
	"github.com/coltree/mergetree/pkcondition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyIndex(n int) part.PrimaryKeyIndex {
	idx := make(part.PrimaryKeyIndex, n)
	for i := range idx {
		idx[i] = part.Key{int64(i)}
	}
	return idx
}

func TestPrune_AlwaysTrue(t *testing.T) {
	idx := keyIndex(100)
	cond := pkcondition.NewRangeSet([]string{"id"})
	ranges := Prune(idx, 100, cond, 0, 8)
	require.Len(t, ranges, 1)
	assert.Equal(t, part.MarkRange{Begin: 0, End: 100}, ranges[0])
}

func TestPrune_SelectsMatchingMarks(t *testing.T) {
	idx := keyIndex(64)
	cond := pkcondition.NewRangeSet([]string{"id"})
	require.True(t, cond.AddCondition("id", pkcondition.Bounded(int64(20), int64(25), true, true)))

	ranges := Prune(idx, 64, cond, 0, 8)
	require.NotEmpty(t, ranges)
	for _, r := range ranges {
		assert.True(t, r.Begin <= 25 && r.End >= 20, "range %v should overlap [20,25]", r)
	}
	// every mark in [20,25] must be covered by some output range
	for m := 20; m <= 25; m++ {
		covered := false
		for _, r := range ranges {
			if m >= r.Begin && m < r.End {
				covered = true
			}
		}
		assert.True(t, covered, "mark %d not covered", m)
	}
}

func TestPrune_NoMatch(t *testing.T) {
	idx := keyIndex(64)
	cond := pkcondition.NewRangeSet([]string{"id"})
	// Below the first mark's minimum key. A key above every mark's
	// minimum could still be in the last mark, which has no upper bound.
	require.True(t, cond.AddCondition("id", pkcondition.Exact(int64(-5))))

	ranges := Prune(idx, 64, cond, 0, 8)
	assert.Empty(t, ranges)
}

func TestPrune_CoalescesCloseRanges(t *testing.T) {
	idx := keyIndex(64)
	cond := pkcondition.NewRangeSet([]string{"id"})
	// Marks 9 through 12 may hold ids in [10,12]; the adjacent hits
	// coalesce into one range.
	require.True(t, cond.AddCondition("id", Bounded(10, 12)))

	ranges := Prune(idx, 64, cond, 100, 8)
	require.Len(t, ranges, 1)
}

func Bounded(lo, hi int64) pkcondition.Range {
	return pkcondition.Bounded(lo, hi, true, true)
}

func TestPrune_OutputIsSortedAndDisjoint(t *testing.T) {
	idx := keyIndex(200)
	cond := pkcondition.NewRangeSet([]string{"id"})
	require.True(t, cond.AddCondition("id", pkcondition.Bounded(int64(15), int64(180), true, true)))

	ranges := Prune(idx, 200, cond, 0, 4)
	for i := 1; i < len(ranges); i++ {
		assert.True(t, ranges[i].Begin > ranges[i-1].End, "ranges must not overlap or touch: %v", ranges)
	}
}
