// Package sampling implements C3, the SamplingRewriter: given a SAMPLE
// clause, it tightens the primary key condition and builds a row-level
// filter consistent with the same cutoff, so index pruning and row
// filtering agree exactly on which rows survive.
package sampling

import (
	"math"
	"sort"

	"github.com/coltree/mergetree/mtsettings"
	"github.com/coltree/mergetree/part"
	"github.com/coltree/mergetree/pkcondition"
	"github.com/coltree/mergetree/rangeprune"
	"github.com/coltree/mergetree/stream"
)

// ColumnWidth describes the physical representation of the sampling
// column: it must be an unsigned integer of width 8, 16, 32, or 64 bits.
type ColumnWidth int

const (
	Width8 ColumnWidth = 8
	Width16 ColumnWidth = 16
	Width32 ColumnWidth = 32
	Width64 ColumnWidth = 64
)

// Max returns the maximum representable value for the width, i.e. M in
// spec.md §4.3.
func (w ColumnWidth) Max() uint64 {
	switch w {
	case Width8:
		return math.MaxUint8
	case Width16:
		return math.MaxUint16
	case Width32:
		return math.MaxUint32
	case Width64:
		return math.MaxUint64
	default:
		return 0
	}
}

// Request is the input to Rewrite.
type Request struct {
	// SampleSize is the raw SAMPLE clause value: in [0,1] for a relative
	// fraction, or > 1 for an absolute requested row count.
	SampleSize float64

	// Column is the sampling column's name.
	Column string
	// ColumnWidth is the sampling column's physical width; 0 is invalid
	// and always rejected unless SampleSize == 0 (no sampling requested).
	ColumnWidth ColumnWidth

	// Condition is the main PK condition; AddCondition is called on it.
	Condition pkcondition.Condition

	// Parts is the set of parts surviving C2's date filter, needed to
	// estimate total row count when SampleSize is an absolute count.
	Parts []part.Part
	// Thresholds are the mark-granularity thresholds to run C1 with while
	// estimating the total row count.
	Thresholds mtsettings.Thresholds

	// ReadColumns is the caller's current read column set; sampling's
	// required columns are unioned into it.
	ReadColumns []string
}

// Plan is C3's output: the row-level filter expression to wrap streams
// with, and the (possibly expanded) read column set.
type Plan struct {
	// FilterColumn is the output column name of the comparison expression
	// ("sampling_expr ≤ limit"); wrap streams with
	// stream.Expression(s, FilterColumn, Eval) then stream.Filter(s, FilterColumn).
	FilterColumn string
	Eval         stream.ExpressionFunc

	// Limit is the cutoff value addCondition was called with.
	Limit uint64
	// Relative is the resolved relative sample size in [0,1].
	Relative float64

	// ReadColumns is ReadColumns with sampling's required columns unioned
	// in, sorted and deduplicated.
	ReadColumns []string
}

const filterColumnName = "_sample_filter"

// Rewrite implements spec.md §4.3. It returns (nil, nil) if req.SampleSize
// is exactly zero (no sampling requested).
func Rewrite(req Request) (*Plan, error) {
	if req.SampleSize == 0 {
		return nil, nil
	}
	if req.SampleSize < 0 {
		return nil, &badArgument{Size: req.SampleSize}
	}

	relative := req.SampleSize
	if req.SampleSize > 1 {
		total := estimateTotalRows(req.Parts, req.Condition, req.Thresholds)
		if total == 0 {
			relative = 1.0
		} else {
			relative = req.SampleSize / float64(total)
			if relative > 1 {
				relative = 1
			}
		}
	}

	if req.ColumnWidth != Width8 && req.ColumnWidth != Width16 && req.ColumnWidth != Width32 && req.ColumnWidth != Width64 {
		return nil, &illegalColumnType{Column: req.Column}
	}
	maxVal := req.ColumnWidth.Max()
	limit := uint64(math.Floor(relative * float64(maxVal)))

	if !req.Condition.AddCondition(req.Column, pkcondition.RightBounded(limit, true)) {
		return nil, &illegalColumn{Column: req.Column}
	}

	column := req.Column
	eval := func(row map[string]any) any {
		v, ok := toUint64(row[column])
		if !ok {
			return false
		}
		return v <= limit
	}

	readColumns := unionSorted(req.ReadColumns, []string{req.Column})

	return &Plan{
		FilterColumn: filterColumnName,
		Eval:         eval,
		Limit:        limit,
		Relative:     relative,
		ReadColumns:  readColumns,
	}, nil
}

// estimateTotalRows runs C1 over every part with cond and sums marks *
// indexGranularity, the preliminary index scan spec.md §4.3 describes for
// resolving an absolute sample size into a relative one.
func estimateTotalRows(parts []part.Part, cond pkcondition.Condition, th mtsettings.Thresholds) int64 {
	var total int64
	for _, p := range parts {
		ranges := rangeprune.Prune(p.Index(), p.MarksCount(), cond, th.MinMarksForSeek, th.CoarseIndexGranularity)
		marks := 0
		for _, r := range ranges {
			marks += r.Count()
		}
		total += int64(marks) * int64(p.IndexGranularity())
	}
	return total
}

func unionSorted(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		set[s] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func toUint64(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint64:
		return x, true
	case uint32:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint8:
		return uint64(x), true
	case int:
		if x < 0 {
			return 0, false
		}
		return uint64(x), true
	case int64:
		if x < 0 {
			return 0, false
		}
		return uint64(x), true
	default:
		return 0, false
	}
}
