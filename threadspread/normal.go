// Package threadspread implements C4 (normal) and C5 (FINAL), the two
// ways the planner turns a set of pruned per-part mark ranges into the
// BlockInputStreams the caller will pull.
package threadspread

import (
	"math/rand"

	"github.com/coltree/mergetree/mtsettings"
	"github.com/coltree/mergetree/part"
	"github.com/coltree/mergetree/stream"
)

// LogicalError indicates a threadspread invariant was violated — marks
// remaining undistributed after all worker slots were filled, or a
// partial-take loop running out of ranges. It should never occur for
// correct input; callers are expected to translate it into the planner's
// own ErrLogicalError.
type LogicalError struct {
	Detail string
}

func (e *LogicalError) Error() string { return "threadspread: " + e.Detail }

// ReaderParams bundles the part-reader construction parameters that are
// constant across all streams C4 builds for one query.
type ReaderParams struct {
	MaxBlockSize int
	Columns      []string
	Prewhere     *stream.PrewhereSpec
}

// workPart is the mutable per-part working state C4 maintains while
// distributing marks: ranges are kept reversed so the leftmost range is
// at the back, for O(1) pop.
type workPart struct {
	part          part.Part
	reversedRanges []part.MarkRange // reverse of the original order
}

func (w *workPart) marksRemaining() int {
	n := 0
	for _, r := range w.reversedRanges {
		n += r.Count()
	}
	return n
}

// Normal implements C4: it partitions the total mark workload across up
// to threads worker streams using seek/concurrency thresholds.
func Normal(ranges []part.RangesInDataPart, threads int, th mtsettings.Thresholds, useCache bool, rp ReaderParams, rng *rand.Rand) ([]stream.BlockInputStream, error) {
	if threads < 1 {
		threads = 1
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	parts := make([]*workPart, 0, len(ranges))
	sumMarks := 0
	for _, r := range ranges {
		if len(r.Ranges) == 0 {
			continue
		}
		reversed := make([]part.MarkRange, len(r.Ranges))
		for i, rg := range r.Ranges {
			reversed[len(r.Ranges)-1-i] = rg
		}
		wp := &workPart{part: r.Part, reversedRanges: reversed}
		parts = append(parts, wp)
		sumMarks += wp.marksRemaining()
	}

	if len(parts) == 0 {
		return nil, nil
	}

	// Shuffle to spread hotspots from skewed part sizes.
	rng.Shuffle(len(parts), func(i, j int) { parts[i], parts[j] = parts[j], parts[i] })

	effectiveCache := useCache
	if th.MaxMarksToUseCache > 0 && sumMarks > th.MaxMarksToUseCache {
		effectiveCache = false
	}

	var out []stream.BlockInputStream
	remainingMarks := sumMarks
	remainingThreads := threads

	for slot := 0; slot < threads && len(parts) > 0; slot++ {
		if remainingThreads <= 0 {
			remainingThreads = 1
		}
		needMarks := ceilDiv(remainingMarks, remainingThreads)

		var collected []stream.BlockInputStream
		for needMarks > 0 && len(parts) > 0 {
			wp := parts[len(parts)-1]
			marksInPart := wp.marksRemaining()
			if marksInPart == 0 {
				parts = parts[:len(parts)-1]
				continue
			}

			// Quantization-up.
			if marksInPart >= th.MinMarksForConcurrentRead && needMarks < th.MinMarksForConcurrentRead {
				needMarks = th.MinMarksForConcurrentRead
			}
			// Absorb remainder.
			if marksInPart > needMarks && marksInPart-needMarks < th.MinMarksForConcurrentRead {
				needMarks = marksInPart
			}

			if marksInPart <= needMarks {
				// Whole-part take: restore natural order.
				natural := make([]part.MarkRange, len(wp.reversedRanges))
				for i, rg := range wp.reversedRanges {
					natural[len(wp.reversedRanges)-1-i] = rg
				}
				collected = append(collected, readerStream(wp.part, natural, effectiveCache, rp))
				remainingMarks -= marksInPart
				needMarks -= marksInPart
				parts = parts[:len(parts)-1]
				continue
			}

			// Partial take: peel ranges from the back (leftmost) until
			// needMarks is met, splitting the last range if necessary.
			taken, err := peel(wp, needMarks)
			if err != nil {
				return nil, err
			}
			collected = append(collected, readerStream(wp.part, taken, effectiveCache, rp))
			remainingMarks -= needMarks
			needMarks = 0
		}

		if len(collected) == 1 {
			out = append(out, collected[0])
		} else if len(collected) > 1 {
			out = append(out, stream.Concat(collected...))
		}
		remainingThreads--
	}

	if len(parts) > 0 || remainingMarks > 0 {
		hasWork := false
		for _, wp := range parts {
			if wp.marksRemaining() > 0 {
				hasWork = true
				break
			}
		}
		if hasWork {
			return nil, &LogicalError{Detail: "marks remained undistributed after exhausting worker slots"}
		}
	}

	return out, nil
}

// peel removes ranges from the back (leftmost) of wp's reversed range
// list until exactly need marks have been collected, splitting the
// boundary range if necessary. The returned ranges are in natural
// left-to-right order, since the leftmost-on-top stack discipline means
// they are collected in order.
func peel(wp *workPart, need int) ([]part.MarkRange, error) {
	var taken []part.MarkRange
	for need > 0 {
		if len(wp.reversedRanges) == 0 {
			return nil, &LogicalError{Detail: "partial-take ran out of ranges before satisfying need_marks"}
		}
		last := len(wp.reversedRanges) - 1
		rg := wp.reversedRanges[last]
		n := rg.Count()
		if n <= need {
			taken = append(taken, rg)
			wp.reversedRanges = wp.reversedRanges[:last]
			need -= n
			continue
		}
		// Split: take the first `need` marks of rg, leave the remainder.
		split := part.MarkRange{Begin: rg.Begin, End: rg.Begin + need}
		taken = append(taken, split)
		wp.reversedRanges[last] = part.MarkRange{Begin: rg.Begin + need, End: rg.End}
		need = 0
	}
	return taken, nil
}

func readerStream(p part.Part, ranges []part.MarkRange, useCache bool, rp ReaderParams) stream.BlockInputStream {
	return stream.NewPartBlockStream(p, rp.MaxBlockSize, rp.Columns, ranges, useCache, rp.Prewhere)
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
