package planner

import (
	"github.com/coltree/mergetree/pkcondition"
	"github.com/coltree/mergetree/sampling"
	"github.com/coltree/mergetree/stream"
)

// Table describes the fixed, schema-level facts the Planner needs about
// the table being queried: its column set, its sort (primary key)
// description, and its partitioning date column.
type Table struct {
	// Columns is the full set of column names the table exposes.
	Columns []string

	// PrimaryKeyColumns is the table's sort description, in sort order.
	// It also names the columns over which KeyCondition's index descent
	// is meaningful.
	PrimaryKeyColumns []string

	// SignColumn is the Int8 insert/delete marker column used by FINAL's
	// collapsing merge.
	SignColumn string
}

func (t Table) hasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Query is the planner's entry input: the compiled predicate the external
// collaborator (spec.md §6.2's "predicate compiler") produced, plus the
// SAMPLE/PREWHERE/FINAL modifiers that steer C3/C4/C5.
type Query struct {
	// ColumnNamesToReturn is the caller's requested projection; must be a
	// subset of Table.Columns.
	ColumnNamesToReturn []string

	// KeyCondition is compiled over Table.PrimaryKeyColumns.
	KeyCondition pkcondition.Condition
	// DateCondition is compiled over a single synthetic column: the
	// partitioning date.
	DateCondition pkcondition.Condition

	// SampleSize is the raw SAMPLE clause value, or 0 if absent.
	SampleSize float64
	// SamplingColumn and SamplingColumnWidth describe the column SAMPLE
	// tightens against; required when SampleSize != 0.
	SamplingColumn      string
	SamplingColumnWidth sampling.ColumnWidth

	// Prewhere is the already-compiled PREWHERE predicate, or nil.
	Prewhere *stream.PrewhereSpec

	// Final requests collapsing-merge semantics (C5) instead of normal
	// thread spreading (C4).
	Final bool
}

// ProcessedStage mirrors ClickHouse's QueryProcessingStage: this planner
// only ever reaches FetchColumns, since aggregation is a downstream
// concern it does not implement.
const ProcessedStage = "FetchColumns"

// Result is the Planner's output: the processed stage reached, and the
// independently-pullable stream pipelines the caller distributes across
// worker threads.
type Result struct {
	ProcessedStage string
	Streams        []stream.BlockInputStream
}
