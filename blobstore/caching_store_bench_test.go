package blobstore

import (
	"context"
	"testing"

	"github.com/coltree/mergetree/blockcache"
)

type mockCountingStore struct {
	readCount int
}

func (m *mockCountingStore) Open(ctx context.Context, name string) (Blob, error) {
	return &mockCountingBlob{store: m, size: 1024 * 1024}, nil
}
func (m *mockCountingStore) Put(ctx context.Context, name string, data []byte) error { return nil }
func (m *mockCountingStore) Delete(ctx context.Context, name string) error           { return nil }
func (m *mockCountingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return nil, nil
}

type mockCountingBlob struct {
	store *mockCountingStore
	size  int64
}

func (b *mockCountingBlob) ReadAt(p []byte, off int64) (int, error) {
	b.store.readCount++
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}
func (b *mockCountingBlob) Size() int64  { return b.size }
func (b *mockCountingBlob) Close() error { return nil }

func TestCachingStore_Coalescing(t *testing.T) {
	inner := &mockCountingStore{}
	// 1KB blocks
	cachingStore := NewCachingStore(inner, blockcache.NewLRU(1024*1024, nil), 1024)

	ctx := context.Background()
	blob, _ := cachingStore.Open(ctx, "test")

	// Read 10KB (10 blocks); the backend read should coalesce into one run.
	buf := make([]byte, 10*1024)
	blob.ReadAt(buf, 0)

	t.Logf("ReadCount: %d", inner.readCount)
	if inner.readCount != 1 {
		t.Fatalf("expected one coalesced backend read, got %d", inner.readCount)
	}
}
