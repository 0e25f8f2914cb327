package blockcache

import (
	"context"
	"hash/maphash"
	"sync"

	"github.com/coltree/mergetree/mtresource"
)

const numShards = 64

// Sharded is a sharded LRU cache for high-concurrency workloads: it
// distributes entries across shards to reduce lock contention when many
// goroutines read the cache concurrently.
type Sharded struct {
	shards [numShards]*LRU
	seed   maphash.Seed
}

// NewSharded creates a sharded cache whose capacity is divided evenly
// across shards.
func NewSharded(capacity int64, rc *mtresource.Controller) *Sharded {
	shardCapacity := capacity / numShards
	if shardCapacity < 1 {
		shardCapacity = 1
	}
	s := &Sharded{seed: maphash.MakeSeed()}
	for i := range numShards {
		s.shards[i] = NewLRU(shardCapacity, rc)
	}
	return s
}

func (s *Sharded) shard(key Key) *LRU {
	var h maphash.Hash
	h.SetSeed(s.seed)
	_, _ = h.WriteString(key.PartName)
	var buf [8]byte
	buf[0] = byte(key.MarkBegin)
	buf[1] = byte(key.MarkBegin >> 8)
	buf[2] = byte(key.MarkBegin >> 16)
	buf[3] = byte(key.MarkBegin >> 24)
	buf[4] = byte(key.MarkEnd)
	buf[5] = byte(key.MarkEnd >> 8)
	buf[6] = byte(key.MarkEnd >> 16)
	buf[7] = byte(key.MarkEnd >> 24)
	_, _ = h.Write(buf[:])
	idx := h.Sum64() % numShards
	return s.shards[idx]
}

func (s *Sharded) Get(ctx context.Context, key Key) ([]byte, bool) {
	return s.shard(key).Get(ctx, key)
}

func (s *Sharded) Set(ctx context.Context, key Key, b []byte) {
	s.shard(key).Set(ctx, key, b)
}

// Invalidate removes entries matching the predicate across all shards.
func (s *Sharded) Invalidate(predicate func(key Key) bool) {
	var wg sync.WaitGroup
	wg.Add(numShards)
	for i := range numShards {
		go func(shard *LRU) {
			defer wg.Done()
			shard.Invalidate(predicate)
		}(s.shards[i])
	}
	wg.Wait()
}

// Stats returns aggregated hit/miss statistics.
func (s *Sharded) Stats() (hits, misses int64) {
	for i := range numShards {
		h, m := s.shards[i].Stats()
		hits += h
		misses += m
	}
	return hits, misses
}

// Size returns the total size across all shards.
func (s *Sharded) Size() int64 {
	var total int64
	for i := range numShards {
		total += s.shards[i].Size()
	}
	return total
}
