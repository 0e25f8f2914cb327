// Package planner implements C6, the Orchestrator: it wires the date
// filter (C2), sample rewrite (C3), index-range pruning (C1), and thread
// spreading (C4/C5) into the sequence spec.md §4.6 describes, and owns the
// five typed errors the rest of this module surfaces to callers.
package planner

import (
	"context"
	"errors"
	"math/rand"

	"github.com/coltree/mergetree/catalog"
	"github.com/coltree/mergetree/mtsettings"
	"github.com/coltree/mergetree/part"
	"github.com/coltree/mergetree/rangeprune"
	"github.com/coltree/mergetree/sampling"
	"github.com/coltree/mergetree/stream"
	"github.com/coltree/mergetree/threadspread"
)

// Planner is the entry point for turning a compiled query into a vector of
// independently-pullable BlockInputStreams.
type Planner struct {
	opts *options
}

// New constructs a Planner with the given options applied over the
// defaults (a no-op logger, no resource controller, system clock).
func New(opts ...Option) *Planner {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Planner{opts: o}
}

// Plan implements spec.md §4.6's nine-step sequence: validate the
// projection, build the FetchColumns stage, apply C2's date filter,
// optionally tighten via C3's sample rewrite, apply C1 per surviving part,
// dispatch to C4 or C5, and wrap with the sampling filter.
func (p *Planner) Plan(ctx context.Context, table Table, parts []part.Part, query Query, settings mtsettings.Settings, maxBlockSize, threads int) (Result, error) {
	log := p.opts.logger

	// Step 1: validate the requested projection.
	for _, col := range query.ColumnNamesToReturn {
		if !table.hasColumn(col) {
			return Result{}, &ErrUnknownColumn{Column: col}
		}
	}

	// Step 2: this planner only ever reaches FetchColumns.
	result := Result{ProcessedStage: ProcessedStage}

	// Step 3: the key and date conditions are compiled by an external
	// collaborator (spec.md §6.2) and handed in via Query already built
	// against table.PrimaryKeyColumns and the partitioning date column
	// respectively; the planner's responsibility here is just to log them.
	keyCondition := query.KeyCondition
	dateCondition := query.DateCondition
	if keyCondition == nil {
		return Result{}, &ErrLogicalError{Detail: "query.KeyCondition must not be nil"}
	}
	if dateCondition == nil {
		return Result{}, &ErrLogicalError{Detail: "query.DateCondition must not be nil"}
	}
	log.LogKeyCondition(ctx, keyCondition.String())
	log.LogDateCondition(ctx, dateCondition.String())

	// Step 4: PartSelector (C2).
	byDate := catalog.SelectByDate(parts, dateCondition)

	readColumns := append([]string(nil), query.ColumnNamesToReturn...)

	// Step 5: SamplingRewriter (C3), if a sample clause is present.
	var samplingPlan *sampling.Plan
	if query.SampleSize != 0 {
		indexGranularity := tableIndexGranularity(byDate, settings)
		th := mtsettings.FromSettings(settings, indexGranularity)
		plan, err := sampling.Rewrite(sampling.Request{
			SampleSize:  query.SampleSize,
			Column:      query.SamplingColumn,
			ColumnWidth: query.SamplingColumnWidth,
			Condition:   keyCondition,
			Parts:       byDate,
			Thresholds:  th,
			ReadColumns: readColumns,
		})
		if err != nil {
			return Result{}, translateSamplingError(err)
		}
		samplingPlan = plan
		readColumns = plan.ReadColumns
		log.LogSampleSize(ctx, plan.Relative)
	}

	// Step 6: PREWHERE is already compiled by the caller; the planner just
	// forwards it into the reader constructor call sites built below.
	prewhere := query.Prewhere

	// Step 7: apply C1 to each surviving part, collecting non-empty ranges.
	var rangesByPart []part.RangesInDataPart
	totalMarks := 0
	for _, prt := range byDate {
		th := mtsettings.FromSettings(settings, prt.IndexGranularity())
		ranges := rangeprune.Prune(prt.Index(), prt.MarksCount(), keyCondition, th.MinMarksForSeek, th.CoarseIndexGranularity)
		if len(ranges) == 0 {
			continue
		}
		rangesByPart = append(rangesByPart, part.RangesInDataPart{Part: prt, Ranges: ranges})
		for _, r := range ranges {
			totalMarks += r.Count()
		}
	}

	totalRangeCount := 0
	for _, r := range rangesByPart {
		totalRangeCount += len(r.Ranges)
	}
	log.LogPlanSummary(ctx, len(byDate), len(rangesByPart), totalMarks, totalRangeCount)

	useCache := settings.UseUncompressedCache
	if p.opts.resources != nil {
		globalTh := mtsettings.FromSettings(settings, settings.IndexGranularity)
		useCache = useCache && p.opts.resources.ShouldUseCache(totalMarks, globalTh.MaxMarksToUseCache)
	}

	// Step 8: dispatch to C4 or C5 depending on FINAL.
	var streams []stream.BlockInputStream
	if query.Final {
		fp := threadspread.FinalParams{
			MaxBlockSize: maxBlockSize,
			Columns:      readColumns,
			Prewhere:     prewhere,
			SortColumns:  table.PrimaryKeyColumns,
			SignColumn:   table.SignColumn,
		}
		finalThresholds := mtsettings.FromSettings(settings, settings.IndexGranularity)
		out, err := threadspread.Final(rangesByPart, finalThresholds, useCache, fp)
		if err != nil {
			return Result{}, translateThreadspreadError(err)
		}
		streams = out
	} else {
		rp := threadspread.ReaderParams{
			MaxBlockSize: maxBlockSize,
			Columns:      readColumns,
			Prewhere:     prewhere,
		}
		normalThresholds := mtsettings.FromSettings(settings, settings.IndexGranularity)
		out, err := threadspread.Normal(rangesByPart, threads, normalThresholds, useCache, rp, p.rng())
		if err != nil {
			return Result{}, translateThreadspreadError(err)
		}
		streams = out
	}

	// Step 9: if sampling is active, wrap each stream with the row filter.
	if samplingPlan != nil {
		wrapped := make([]stream.BlockInputStream, len(streams))
		for i, s := range streams {
			withExpr := stream.Expression(s, samplingPlan.FilterColumn, samplingPlan.Eval)
			wrapped[i] = stream.Filter(withExpr, samplingPlan.FilterColumn)
		}
		streams = wrapped
	}

	// Step 10: return the stream vector.
	result.Streams = streams
	return result, nil
}

func (p *Planner) rng() *rand.Rand {
	if p.opts.rng != nil {
		return p.opts.rng
	}
	return rand.New(rand.NewSource(p.opts.now().UnixNano()))
}

// tableIndexGranularity picks a representative index granularity for
// estimating total row counts during sample-size resolution: the first
// surviving part's, or the settings default if none survived C2.
func tableIndexGranularity(parts []part.Part, settings mtsettings.Settings) int {
	if len(parts) > 0 {
		return parts[0].IndexGranularity()
	}
	return settings.IndexGranularity
}

func translateSamplingError(err error) error {
	if size, ok := sampling.BadArgumentSize(err); ok {
		return &ErrBadSampleArgument{Size: size}
	}
	if col, ok := sampling.IllegalColumnTypeName(err); ok {
		return &ErrIllegalColumnType{Column: col, Type: "sampling column"}
	}
	if col, ok := sampling.IllegalColumnName(err); ok {
		return &ErrIllegalColumn{Column: col}
	}
	return &ErrLogicalError{Detail: err.Error()}
}

func translateThreadspreadError(err error) error {
	var le *threadspread.LogicalError
	if errors.As(err, &le) {
		return &ErrLogicalError{Detail: le.Detail}
	}
	return &ErrLogicalError{Detail: err.Error()}
}
