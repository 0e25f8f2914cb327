// Package catalog tracks the set of live parts for a table and implements
// C2, the PartSelector: filtering parts by their date-partition envelope
// before handing the survivors to the index range pruner.
//
// Store's manifest loads and saves optionally run behind an
// mtresource.Controller (WithResourceController), which caps how many
// refreshes may be in flight across a set of Stores and throttles their
// I/O.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/coltree/mergetree/blobstore"
	"github.com/coltree/mergetree/mtresource"
	"github.com/coltree/mergetree/part"
	"github.com/coltree/mergetree/pkcondition"
)

// ErrNotFound is returned when no manifest has been written yet.
var ErrNotFound = errors.New("catalog: manifest not found")

const (
	manifestFileName = "MANIFEST"
	currentFileName  = "CURRENT"
	currentVersion   = 1
)

// PartInfo is the catalog's durable record of a single live part: enough
// to reconstruct a part.Part handle and to do cheap envelope pruning ahead
// of paging in its real primary key index.
type PartInfo struct {
	Name             string
	MinDate          uint64
	MaxDate          uint64
	MarksCount       int
	IndexGranularity int
	RowsCount        int
	Path             string // relative to the blobstore root
	Size             int64
	Stats            PartStats
}

// Manifest is the catalog's point-in-time snapshot: the live part list plus
// bookkeeping needed to allocate the next part name.
type Manifest struct {
	Version     int
	ID          uint64
	CreatedAt   time.Time
	NextPartSeq uint64
	Parts       []PartInfo
}

// New creates a new, empty manifest.
func New() *Manifest {
	return &Manifest{Version: currentVersion, NextPartSeq: 1, CreatedAt: time.Now()}
}

// Store manages the manifest's durable representation behind a
// blobstore.BlobStore, exactly as the catalog for any pluggable storage
// backend (local disk, S3, MinIO) would.
//
// resources, when set via WithResourceController, gates concurrent
// manifest loads/saves and their I/O rate. Several tables' Stores
// sharing one *mtresource.Controller have their catalog refreshes
// throttled and capped together, independent of each Store's own mu.
type Store struct {
	store     blobstore.BlobStore
	resources *mtresource.Controller
	mu        sync.Mutex
}

// NewStore creates a manifest store backed by store.
func NewStore(store blobstore.BlobStore, opts ...Option) *Store {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Store{store: store, resources: o.resources}
}

// Load loads the current manifest.
func (s *Store) Load(ctx context.Context) (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.resources.AcquireBackground(ctx); err != nil {
		return nil, err
	}
	defer s.resources.ReleaseBackground()

	b, err := s.store.Open(ctx, currentFileName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer b.Close()

	content, err := io.ReadAll(mtresource.NewRateLimitedReader(io.NewSectionReader(b, 0, b.Size()), s.resources, ctx))
	if err != nil {
		return nil, err
	}
	filename := string(content)

	mb, err := s.store.Open(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("catalog: opening manifest %s: %w", filename, err)
	}
	defer mb.Close()

	payload, err := io.ReadAll(mtresource.NewRateLimitedReader(io.NewSectionReader(mb, 0, mb.Size()), s.resources, ctx))
	if err != nil {
		return nil, err
	}
	return decodeManifest(payload)
}

// Save atomically persists m as the new current manifest.
func (s *Store) Save(ctx context.Context, m *Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.resources.AcquireBackground(ctx); err != nil {
		return err
	}
	defer s.resources.ReleaseBackground()

	m.Version = currentVersion
	m.ID++
	m.CreatedAt = time.Now()

	filename := fmt.Sprintf("%s-%06d.bin", manifestFileName, m.ID)

	payload, err := encodeManifest(m)
	if err != nil {
		return err
	}

	var throttled bytes.Buffer
	if _, err := mtresource.NewRateLimitedWriter(&throttled, s.resources, ctx).Write(payload); err != nil {
		return err
	}
	if err := s.store.Put(ctx, filename, throttled.Bytes()); err != nil {
		return err
	}
	return s.store.Put(ctx, currentFileName, []byte(filename))
}

// Live materializes the catalog's live parts as part.Part handles.
func (m *Manifest) Live() []part.Part {
	out := make([]part.Part, 0, len(m.Parts))
	for i := range m.Parts {
		out = append(out, &catalogPart{info: &m.Parts[i]})
	}
	return out
}

// catalogPart adapts a PartInfo into a part.Part. It carries no real
// primary key index: in production, Index() would page it in from Path on
// first access. The planner never calls Index() on a part that C2 has
// already excluded by date envelope, so this adapter's Index is supplied
// by the caller via WithIndex; without it, Index returns nil.
type catalogPart struct {
	info  *PartInfo
	index part.PrimaryKeyIndex
}

func (p *catalogPart) Name() string                   { return p.info.Name }
func (p *catalogPart) MinDate() uint64                 { return p.info.MinDate }
func (p *catalogPart) MaxDate() uint64                 { return p.info.MaxDate }
func (p *catalogPart) MarksCount() int                 { return p.info.MarksCount }
func (p *catalogPart) IndexGranularity() int           { return p.info.IndexGranularity }
func (p *catalogPart) RowsCount() int                  { return p.info.RowsCount }
func (p *catalogPart) Index() part.PrimaryKeyIndex     { return p.index }

// WithIndex attaches a loaded primary key index to a catalog-derived part
// handle, mimicking the lazy page-in a real implementation would perform.
func WithIndex(p part.Part, idx part.PrimaryKeyIndex) part.Part {
	cp, ok := p.(*catalogPart)
	if !ok {
		return p
	}
	clone := *cp
	clone.index = idx
	return &clone
}

// SelectByDate implements C2: it filters parts to those whose [MinDate,
// MaxDate] envelope the dateCond says may contain a match. dateCond must
// have been compiled against a synthetic single-column sort description
// naming the partitioning date column.
func SelectByDate(parts []part.Part, dateCond pkcondition.Condition) []part.Part {
	if dateCond.AlwaysTrue() {
		out := make([]part.Part, len(parts))
		copy(out, parts)
		return out
	}
	out := make([]part.Part, 0, len(parts))
	for _, p := range parts {
		if dateCond.MayBeTrueInRange(part.Key{p.MinDate()}, part.Key{p.MaxDate()}) {
			out = append(out, p)
		}
	}
	return out
}
