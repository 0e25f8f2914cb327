package runner

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/coltree/mergetree/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedStream struct {
	blocks []stream.Block
	err    error
}

func (s *fixedStream) Blocks(ctx context.Context) iter.Seq2[stream.Block, error] {
	return func(yield func(stream.Block, error) bool) {
		for _, b := range s.blocks {
			if !yield(b, nil) {
				return
			}
		}
		if s.err != nil {
			yield(stream.Block{}, s.err)
		}
	}
}

func TestPullAll_Concatenates(t *testing.T) {
	s1 := &fixedStream{blocks: []stream.Block{{Len: 3}, {Len: 2}}}
	s2 := &fixedStream{blocks: []stream.Block{{Len: 4}}}

	results, err := PullAll(context.Background(), []stream.BlockInputStream{s1, s2})
	require.NoError(t, err)
	assert.Equal(t, 9, RowCount(results))
}

func TestPullAll_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	s1 := &fixedStream{blocks: []stream.Block{{Len: 1}}, err: boom}

	_, err := PullAll(context.Background(), []stream.BlockInputStream{s1})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
