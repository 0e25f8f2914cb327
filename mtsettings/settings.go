// Package mtsettings holds the engine-level settings the planner consults
// and derives per-query mark-granularity thresholds from them.
package mtsettings

// Settings mirrors the subset of MergeTree table/query settings the read
// planner consults. Units are rows except where noted.
type Settings struct {
	// MinRowsForSeek is the minimum number of rows between two mark ranges
	// below which the planner coalesces them into a single seek, trading a
	// few wasted rows for one fewer disk seek.
	MinRowsForSeek int

	// MinRowsForConcurrentRead is the smallest slice, in rows, that the
	// thread spreader cuts from a part for one worker stream: a part at
	// least this large is not split into a smaller piece, and no
	// remainder smaller than this is left behind.
	MinRowsForConcurrentRead int

	// MaxRowsToUseCache bounds how large (in rows) a read may be before the
	// planner stops considering the uncompressed block cache worthwhile.
	MaxRowsToUseCache int

	// CoarseIndexGranularity controls how many sub-intervals the
	// index-range pruner splits an interval into when it can't resolve it
	// down to a single mark.
	CoarseIndexGranularity int

	// IndexGranularity is the number of rows represented by a single mark.
	IndexGranularity int

	// UseUncompressedCache enables the uncompressed block cache subject to
	// MaxRowsToUseCache.
	UseUncompressedCache bool
}

// Default returns the engine's built-in defaults, matching MergeTree's own
// stock configuration.
func Default() Settings {
	return Settings{
		MinRowsForSeek:           0,
		MinRowsForConcurrentRead: 163840,
		MaxRowsToUseCache:        1048576,
		CoarseIndexGranularity:   8,
		IndexGranularity:         8192,
		UseUncompressedCache:     false,
	}
}

// Thresholds are the per-query mark counts derived from Settings once the
// part's index granularity is known.
type Thresholds struct {
	MinMarksForSeek           int
	MinMarksForConcurrentRead int
	MaxMarksToUseCache        int
	CoarseIndexGranularity    int
}

// FromSettings converts row-denominated Settings into mark-denominated
// Thresholds for a part whose index granularity is indexGranularity.
// A row threshold of zero still yields a mark threshold of zero (no
// coalescing / no concurrency floor), and any remainder rounds up so a
// partial mark's worth of rows is never silently dropped from the budget.
func FromSettings(s Settings, indexGranularity int) Thresholds {
	if indexGranularity <= 0 {
		indexGranularity = s.IndexGranularity
	}
	if indexGranularity <= 0 {
		indexGranularity = 1
	}
	return Thresholds{
		MinMarksForSeek:           ceilDiv(s.MinRowsForSeek, indexGranularity),
		MinMarksForConcurrentRead: ceilDiv(s.MinRowsForConcurrentRead, indexGranularity),
		MaxMarksToUseCache:        ceilDiv(s.MaxRowsToUseCache, indexGranularity),
		CoarseIndexGranularity:    s.CoarseIndexGranularity,
	}
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}
