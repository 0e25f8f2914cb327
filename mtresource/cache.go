package mtresource

// ShouldUseCache reports whether the uncompressed block cache should be
// consulted for a read that will touch sumMarks marks.
//
// This mirrors max_marks_to_use_cache: once a query's total mark count
// exceeds the threshold, the planner assumes the working set will not fit
// the cache and skips it rather than evicting everything else resident.
func (c *Controller) ShouldUseCache(sumMarks int, maxMarksToUseCache int) bool {
	if c == nil {
		return true
	}
	if maxMarksToUseCache <= 0 {
		return true
	}
	return sumMarks <= maxMarksToUseCache
}
