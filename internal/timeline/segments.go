package timeline

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

var (
	ErrNoDuration      = errors.New("media duration is unknown")
	ErrTooShort        = errors.New("segment is shorter than the minimum duration")
	ErrOverlap         = errors.New("segment overlaps an existing segment")
	ErrSegmentNotFound = errors.New("segment not found")
)

// Range is a plain [Start, End) span in seconds.
type Range struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (r Range) Duration() float64 {
	return r.End - r.Start
}

// TimeRange is a segment marked by the user. IDs only mean something inside
// the SegmentSet that issued them.
type TimeRange struct {
	ID    string  `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (r TimeRange) Range() Range {
	return Range{Start: r.Start, End: r.End}
}

func (r TimeRange) Duration() float64 {
	return r.End - r.Start
}

func (r TimeRange) String() string {
	return fmt.Sprintf("%s[%.3f,%.3f)", r.ID, r.Start, r.End)
}

// Overlaps reports whether [start, end) intersects r. Touching edges do not.
func (r TimeRange) Overlaps(start, end float64) bool {
	return start < r.End && end > r.Start
}

// SegmentSet is the collection of non-overlapping segments for one editing
// session. It is not safe for concurrent use.
type SegmentSet struct {
	duration float64
	opts     Options
	segments []TimeRange // kept sorted by Start
	newID    func() string
}

func NewSegmentSet(duration float64, opts Options) *SegmentSet {
	return &SegmentSet{
		duration: duration,
		opts:     opts,
		newID:    func() string { return uuid.NewString()[:8] },
	}
}

func (s *SegmentSet) Duration() float64 {
	return s.duration
}

func (s *SegmentSet) Options() Options {
	return s.opts
}

func (s *SegmentSet) Len() int {
	return len(s.segments)
}

// Sorted returns a copy of the segments ordered by start.
func (s *SegmentSet) Sorted() []TimeRange {
	out := make([]TimeRange, len(s.segments))
	copy(out, s.segments)
	return out
}

func (s *SegmentSet) Get(id string) (TimeRange, bool) {
	i := s.index(id)
	if i < 0 {
		return TimeRange{}, false
	}
	return s.segments[i], true
}

// At returns the segment covering t, if any.
func (s *SegmentSet) At(t float64) (TimeRange, bool) {
	for _, seg := range s.segments {
		if t >= seg.Start && t < seg.End {
			return seg, true
		}
	}
	return TimeRange{}, false
}

// CheckCollision returns the first segment, other than excludeID, that
// intersects [start, end). It is the only overlap test the set uses.
func (s *SegmentSet) CheckCollision(start, end float64, excludeID string) *TimeRange {
	for i := range s.segments {
		seg := s.segments[i]
		if seg.ID == excludeID {
			continue
		}
		if seg.Overlaps(start, end) {
			return &seg
		}
	}
	return nil
}

// Create inserts a new segment covering [start, end).
func (s *SegmentSet) Create(start, end float64) (TimeRange, error) {
	if s.duration <= 0 {
		return TimeRange{}, ErrNoDuration
	}
	if end < start {
		start, end = end, start
	}
	start = clamp(start, 0, s.duration)
	end = clamp(end, 0, s.duration)

	if end-start < s.opts.MinSegmentDuration {
		return TimeRange{}, ErrTooShort
	}
	if other := s.CheckCollision(start, end, ""); other != nil {
		return TimeRange{}, fmt.Errorf("%w: %s", ErrOverlap, other)
	}

	id := s.newID()
	for s.index(id) >= 0 {
		id = s.newID()
	}

	seg := TimeRange{ID: id, Start: start, End: end}
	s.segments = append(s.segments, seg)
	s.sort()
	return seg, nil
}

// ResizeStart moves the start edge of a segment towards proposed. The edge
// stops at the end of a left neighbour rather than jumping over it, and the
// segment never shrinks below the minimum duration.
func (s *SegmentSet) ResizeStart(id string, proposed float64) (TimeRange, error) {
	i := s.index(id)
	if i < 0 {
		return TimeRange{}, ErrSegmentNotFound
	}
	seg := s.segments[i]

	candidate := clamp(proposed, 0, seg.End-s.opts.MinSegmentDuration)
	for {
		other := s.CheckCollision(candidate, seg.End, seg.ID)
		if other == nil {
			break
		}
		if other.End <= seg.Start {
			candidate = other.End
		} else {
			candidate = other.Start - s.opts.MinSegmentDuration
		}
		if candidate > seg.End-s.opts.MinSegmentDuration || candidate < 0 {
			return seg, nil
		}
	}

	s.segments[i].Start = candidate
	return s.segments[i], nil
}

// ResizeEnd is the mirror of ResizeStart for the end edge.
func (s *SegmentSet) ResizeEnd(id string, proposed float64) (TimeRange, error) {
	i := s.index(id)
	if i < 0 {
		return TimeRange{}, ErrSegmentNotFound
	}
	seg := s.segments[i]

	candidate := clamp(proposed, seg.Start+s.opts.MinSegmentDuration, s.duration)
	for {
		other := s.CheckCollision(seg.Start, candidate, seg.ID)
		if other == nil {
			break
		}
		if other.Start >= seg.End {
			candidate = other.Start
		} else {
			candidate = other.End + s.opts.MinSegmentDuration
		}
		if candidate < seg.Start+s.opts.MinSegmentDuration || candidate > s.duration {
			return seg, nil
		}
	}

	s.segments[i].End = candidate
	return s.segments[i], nil
}

// Remove deletes the segment with the given id. Unknown ids are ignored.
func (s *SegmentSet) Remove(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.segments = append(s.segments[:i], s.segments[i+1:]...)
	return true
}

func (s *SegmentSet) Clear() {
	s.segments = nil
}

func (s *SegmentSet) index(id string) int {
	for i, seg := range s.segments {
		if seg.ID == id {
			return i
		}
	}
	return -1
}

func (s *SegmentSet) sort() {
	sort.Slice(s.segments, func(a, b int) bool {
		return s.segments[a].Start < s.segments[b].Start
	})
}
