package planner

import (
	"context"
	"math/rand"
	"runtime"
	"testing"

	"github.com/coltree/mergetree/mtsettings"
	"github.com/coltree/mergetree/part"
	"github.com/coltree/mergetree/pkcondition"
	"github.com/coltree/mergetree/sampling"
	"github.com/coltree/mergetree/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memPartWithRows(name string, rowsPerMark, marks int, col string) *stream.InMemoryPart {
	idx := make(part.PrimaryKeyIndex, marks)
	for i := range idx {
		idx[i] = part.Key{uint64(i * rowsPerMark)}
	}
	p := part.NewMemPart(name, 0, 0, rowsPerMark, marks*rowsPerMark, idx)
	values := make(stream.Column, marks*rowsPerMark)
	for i := range values {
		values[i] = i
	}
	return &stream.InMemoryPart{Part: p, RowColumns: map[string]stream.Column{col: values}}
}

func baseTable() Table {
	return Table{
		Columns:           []string{"k", "v"},
		PrimaryKeyColumns: []string{"k"},
		SignColumn:        "sign",
	}
}

func TestPlan_UnknownColumnRejected(t *testing.T) {
	p := New()
	_, err := p.Plan(context.Background(), baseTable(), nil, Query{
		ColumnNamesToReturn: []string{"nope"},
	}, mtsettings.Default(), 100, 1)
	require.Error(t, err)
	var uc *ErrUnknownColumn
	require.ErrorAs(t, err, &uc)
	assert.Equal(t, "nope", uc.Column)
}

func TestPlan_RequiresConditions(t *testing.T) {
	p := New()
	_, err := p.Plan(context.Background(), baseTable(), nil, Query{
		ColumnNamesToReturn: []string{"k"},
	}, mtsettings.Default(), 100, 1)
	require.Error(t, err)
	var le *ErrLogicalError
	require.ErrorAs(t, err, &le)
}

func TestPlan_NormalDispatch(t *testing.T) {
	mp := memPartWithRows("p1", 10, 3, "v")
	p := New(WithRand(rand.New(rand.NewSource(1))))

	res, err := p.Plan(context.Background(), baseTable(), []part.Part{mp}, Query{
		ColumnNamesToReturn: []string{"k", "v"},
		KeyCondition:        pkcondition.NewRangeSet([]string{"k"}),
		DateCondition:       pkcondition.NewRangeSet([]string{"date"}),
	}, mtsettings.Default(), 100, 2)

	require.NoError(t, err)
	assert.Equal(t, ProcessedStage, res.ProcessedStage)
	require.NotEmpty(t, res.Streams)

	total := 0
	for _, s := range res.Streams {
		for blk, err := range s.Blocks(context.Background()) {
			require.NoError(t, err)
			total += blk.Len
		}
	}
	assert.Equal(t, 30, total)
}

func TestPlan_SamplingAppliesFilter(t *testing.T) {
	mp := memPartWithRows("p1", 10, 4, "k")
	p := New()

	// The sampling column must be a primary-key column. 0.005 of the
	// UInt8 range gives the cutoff floor(0.005*255) = 1, so only k = 0
	// and k = 1 pass the filter.
	res, err := p.Plan(context.Background(), baseTable(), []part.Part{mp}, Query{
		ColumnNamesToReturn: []string{"k", "v"},
		KeyCondition:        pkcondition.NewRangeSet([]string{"k"}),
		DateCondition:       pkcondition.NewRangeSet([]string{"date"}),
		SampleSize:          0.005,
		SamplingColumn:      "k",
		SamplingColumnWidth: sampling.Width8,
	}, mtsettings.Default(), 100, 1)

	require.NoError(t, err)
	require.NotEmpty(t, res.Streams)
	kept := 0
	for _, s := range res.Streams {
		for blk, err := range s.Blocks(context.Background()) {
			require.NoError(t, err)
			for _, v := range blk.Columns["k"] {
				assert.LessOrEqual(t, v.(int), 1)
				kept++
			}
		}
	}
	assert.Equal(t, 2, kept)
}

func TestPlan_BadSampleArgumentTranslated(t *testing.T) {
	p := New()
	_, err := p.Plan(context.Background(), baseTable(), nil, Query{
		ColumnNamesToReturn: []string{"k"},
		KeyCondition:        pkcondition.NewRangeSet([]string{"k"}),
		DateCondition:       pkcondition.NewRangeSet([]string{"date"}),
		SampleSize:          -1,
		SamplingColumn:      "k",
		SamplingColumnWidth: sampling.Width32,
	}, mtsettings.Default(), 100, 1)
	require.Error(t, err)
	var bad *ErrBadSampleArgument
	require.ErrorAs(t, err, &bad)
}

func TestPlan_FinalDispatch(t *testing.T) {
	mp1 := signedMemPart("p1", []int{1, 2}, []int8{1, 1})
	mp2 := signedMemPart("p2", []int{2, 3}, []int8{-1, 1})
	p := New()

	res, err := p.Plan(context.Background(), baseTable(), []part.Part{mp1, mp2}, Query{
		ColumnNamesToReturn: []string{"k"},
		KeyCondition:        pkcondition.NewRangeSet([]string{"k"}),
		DateCondition:       pkcondition.NewRangeSet([]string{"date"}),
		Final:               true,
	}, mtsettings.Default(), 100, 1)

	require.NoError(t, err)
	require.Len(t, res.Streams, 1)

	var keys []int
	for blk, err := range res.Streams[0].Blocks(context.Background()) {
		require.NoError(t, err)
		for _, v := range blk.Columns["k"] {
			keys = append(keys, v.(int))
		}
	}
	assert.ElementsMatch(t, []int{1, 3}, keys)
}

func signedMemPart(name string, keys []int, signs []int8) *stream.InMemoryPart {
	idx := make(part.PrimaryKeyIndex, len(keys))
	for i, k := range keys {
		idx[i] = part.Key{uint64(k)}
	}
	p := part.NewMemPart(name, 0, 0, 1, len(keys), idx)
	keyCol := make(stream.Column, len(keys))
	signCol := make(stream.Column, len(keys))
	for i := range keys {
		keyCol[i] = keys[i]
		signCol[i] = signs[i]
	}
	return &stream.InMemoryPart{Part: p, RowColumns: map[string]stream.Column{"k": keyCol, "sign": signCol}}
}

func TestPlan_DoesNotSpawnGoroutines(t *testing.T) {
	mp := memPartWithRows("p1", 10, 3, "v")
	p := New()
	before := runtime.NumGoroutine()
	_, err := p.Plan(context.Background(), baseTable(), []part.Part{mp}, Query{
		ColumnNamesToReturn: []string{"k", "v"},
		KeyCondition:        pkcondition.NewRangeSet([]string{"k"}),
		DateCondition:       pkcondition.NewRangeSet([]string{"date"}),
	}, mtsettings.Default(), 100, 2)
	require.NoError(t, err)
	after := runtime.NumGoroutine()
	assert.Equal(t, before, after)
}
