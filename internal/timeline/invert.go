package timeline

import (
	"errors"
	"sort"
)

// EdgeTolerance absorbs the sub-second slack left when a segment is dragged
// to the very start or end of the track.
const EdgeTolerance = 0.5

var (
	ErrNothingToDelete = errors.New("no segments marked for deletion")
	ErrCoversWholeFile = errors.New("segment covers whole file")
)

// Invert turns the delete segments into the ordered keep ranges between them.
func Invert(deletes []TimeRange, duration float64) ([]Range, error) {
	if duration <= 0 {
		return nil, ErrNoDuration
	}
	if len(deletes) == 0 {
		return nil, ErrNothingToDelete
	}

	merged := mergeRanges(deletes, duration)
	if len(merged) == 0 {
		return nil, ErrNothingToDelete
	}

	var keep []Range
	cursor := 0.0
	for _, d := range merged {
		if d.Start > cursor {
			keep = append(keep, Range{Start: cursor, End: d.Start})
		}
		if d.End > cursor {
			cursor = d.End
		}
	}
	if cursor < duration {
		keep = append(keep, Range{Start: cursor, End: duration})
	}

	keep = dropEdgeSlivers(keep, duration)
	if len(keep) == 0 {
		return nil, ErrCoversWholeFile
	}
	return keep, nil
}

// mergeRanges sorts, clamps and coalesces overlapping or touching ranges.
func mergeRanges(ranges []TimeRange, duration float64) []Range {
	sorted := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		start := clamp(r.Start, 0, duration)
		end := clamp(r.End, 0, duration)
		if end > start {
			sorted = append(sorted, Range{Start: start, End: end})
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var merged []Range
	for _, r := range sorted {
		if n := len(merged); n > 0 && r.Start <= merged[n-1].End {
			if r.End > merged[n-1].End {
				merged[n-1].End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// dropEdgeSlivers removes a leading gap before a delete range that starts
// within EdgeTolerance of 0, and the trailing one after a delete range that
// ends within EdgeTolerance of duration.
func dropEdgeSlivers(keep []Range, duration float64) []Range {
	if len(keep) > 0 && keep[0].Start == 0 && keep[0].End < EdgeTolerance && keep[0].End < duration {
		keep = keep[1:]
	}
	if n := len(keep); n > 0 && keep[n-1].End == duration && duration-keep[n-1].Start < EdgeTolerance && keep[n-1].Start > 0 {
		keep = keep[:n-1]
	}
	return keep
}
