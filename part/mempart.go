package part

// MemPart is a reference, in-memory Part implementation used by the
// module's own tests. It is not the
// production part reader: a real part's index is paged from disk, not held
// as a Go slice.
type MemPart struct {
	name             string
	minDate, maxDate uint64
	indexGranularity int
	rowsCount        int
	index            PrimaryKeyIndex
}

// NewMemPart builds a MemPart from a primary key index already sorted in
// mark order. indexGranularity and rowsCount describe the part's physical
// layout independently of the index slice length, mirroring how a real
// part's last mark is often partially filled.
func NewMemPart(name string, minDate, maxDate uint64, indexGranularity, rowsCount int, index PrimaryKeyIndex) *MemPart {
	return &MemPart{
		name:             name,
		minDate:          minDate,
		maxDate:          maxDate,
		indexGranularity: indexGranularity,
		rowsCount:        rowsCount,
		index:            index,
	}
}

func (p *MemPart) Name() string            { return p.name }
func (p *MemPart) MinDate() uint64         { return p.minDate }
func (p *MemPart) MaxDate() uint64         { return p.maxDate }
func (p *MemPart) MarksCount() int         { return len(p.index) }
func (p *MemPart) IndexGranularity() int   { return p.indexGranularity }
func (p *MemPart) Index() PrimaryKeyIndex  { return p.index }
func (p *MemPart) RowsCount() int          { return p.rowsCount }
