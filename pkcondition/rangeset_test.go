package pkcondition

import (
	"testing"

	"github.com/coltree/mergetree/part"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeSet_AlwaysTrue(t *testing.T) {
	c := NewRangeSet([]string{"id"})
	assert.True(t, c.AlwaysTrue())
	assert.True(t, c.MayBeTrueInRange(part.Key{int64(0)}, part.Key{int64(100)}))
	assert.True(t, c.MayBeTrueAfter(part.Key{int64(0)}))
}

func TestRangeSet_AddCondition(t *testing.T) {
	c := NewRangeSet([]string{"id"})
	ok := c.AddCondition("id", Bounded(int64(10), int64(20), true, true))
	require.True(t, ok)
	assert.False(t, c.AlwaysTrue())

	ok = c.AddCondition("missing", Exact(int64(1)))
	assert.False(t, ok)
}

func TestRangeSet_MayBeTrueInRange(t *testing.T) {
	c := NewRangeSet([]string{"id"})
	require.True(t, c.AddCondition("id", Bounded(int64(10), int64(20), true, true)))

	assert.True(t, c.MayBeTrueInRange(part.Key{int64(0)}, part.Key{int64(15)}))
	assert.True(t, c.MayBeTrueInRange(part.Key{int64(15)}, part.Key{int64(30)}))
	assert.False(t, c.MayBeTrueInRange(part.Key{int64(21)}, part.Key{int64(30)}))
	assert.False(t, c.MayBeTrueInRange(part.Key{int64(0)}, part.Key{int64(9)}))
}

func TestRangeSet_MayBeTrueAfter(t *testing.T) {
	c := NewRangeSet([]string{"id"})
	require.True(t, c.AddCondition("id", RightBounded(int64(20), true)))

	assert.True(t, c.MayBeTrueAfter(part.Key{int64(5)}))
	assert.False(t, c.MayBeTrueAfter(part.Key{int64(21)}))
}

func TestRangeSet_MultiColumnConservative(t *testing.T) {
	c := NewRangeSet([]string{"a", "b"})
	require.True(t, c.AddCondition("b", Exact(int64(5))))

	// a differs across the boundary, so column b cannot be excluded.
	assert.True(t, c.MayBeTrueInRange(part.Key{int64(1), int64(100)}, part.Key{int64(2), int64(0)}))
}

func TestIntersect(t *testing.T) {
	c := NewRangeSet([]string{"id"})
	require.True(t, c.AddCondition("id", LeftBounded(int64(5), true)))
	require.True(t, c.AddCondition("id", RightBounded(int64(15), false)))

	assert.True(t, c.MayBeTrueInRange(part.Key{int64(10)}, part.Key{int64(10)}))
	assert.False(t, c.MayBeTrueInRange(part.Key{int64(16)}, part.Key{int64(20)}))
	assert.False(t, c.MayBeTrueInRange(part.Key{int64(0)}, part.Key{int64(4)}))
}
