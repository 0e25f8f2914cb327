package stream

import (
	"context"
	"iter"
)

// Concat wraps several streams, pulling them in order so a worker reads a
// sequence of streams as if it were one. Used by C4 when a worker slot
// collected more than one range-set and needs to read them sequentially.
func Concat(streams ...BlockInputStream) BlockInputStream {
	if len(streams) == 1 {
		return streams[0]
	}
	return &concatStream{streams: streams}
}

type concatStream struct {
	streams []BlockInputStream
}

func (s *concatStream) Blocks(ctx context.Context) iter.Seq2[Block, error] {
	return func(yield func(Block, error) bool) {
		for _, inner := range s.streams {
			for blk, err := range inner.Blocks(ctx) {
				if err != nil {
					yield(Block{}, err)
					return
				}
				if !yield(blk, nil) {
					return
				}
			}
		}
	}
}
