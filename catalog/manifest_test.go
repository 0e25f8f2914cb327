package catalog

import (
	"context"
	"testing"

	"github.com/coltree/mergetree/blobstore"
	"github.com/coltree/mergetree/mtresource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	bs := blobstore.NewMemoryStore()
	s := NewStore(bs)

	m := New()
	m.Parts = []PartInfo{{Name: "part-0001", MinDate: 1, MaxDate: 2, MarksCount: 4, IndexGranularity: 8192, RowsCount: 100, Path: "part-0001"}}
	require.NoError(t, s.Save(context.Background(), m))

	loaded, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, m.NextPartSeq, loaded.NextPartSeq)
	require.Len(t, loaded.Parts, 1)
	assert.Equal(t, "part-0001", loaded.Parts[0].Name)
}

func TestStore_LoadMissingReturnsErrNotFound(t *testing.T) {
	s := NewStore(blobstore.NewMemoryStore())
	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestStore_ResourceControllerGatesConcurrentRefresh confirms that a
// Store's Load waits for the Controller's single background worker
// slot: with that slot already held, a Load whose context is canceled
// fails with ctx.Err() rather than running without the slot.
func TestStore_ResourceControllerGatesConcurrentRefresh(t *testing.T) {
	rc := mtresource.NewController(mtresource.Config{MaxBackgroundWorkers: 1})
	require.NoError(t, rc.AcquireBackground(context.Background()))
	defer rc.ReleaseBackground()

	s := NewStore(blobstore.NewMemoryStore(), WithResourceController(rc))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_NilResourceControllerIsUnthrottled(t *testing.T) {
	s := NewStore(blobstore.NewMemoryStore())
	require.NoError(t, s.Save(context.Background(), New()))
	_, err := s.Load(context.Background())
	require.NoError(t, err)
}
