// Package timeline holds the pure geometry and segment bookkeeping behind the
// trim editor: pixel/time mapping, grid snapping, the non-overlapping segment
// set and the delete-to-keep inversion.
package timeline

import "math"

const (
	DefaultGridInterval       = 1.0
	DefaultSnapTolerance      = 0.5
	DefaultMinSegmentDuration = 1.0
)

// Options tunes snapping and the minimum segment length, all in seconds.
type Options struct {
	GridInterval       float64 `yaml:"grid_interval_seconds"`
	SnapTolerance      float64 `yaml:"snap_tolerance_seconds"`
	MinSegmentDuration float64 `yaml:"min_segment_duration_seconds"`
}

// DefaultOptions returns the recognised defaults.
func DefaultOptions() Options {
	return Options{
		GridInterval:       DefaultGridInterval,
		SnapTolerance:      DefaultSnapTolerance,
		MinSegmentDuration: DefaultMinSegmentDuration,
	}
}

// Bounds is the rendered horizontal extent of the track.
type Bounds struct {
	Left  float64
	Width float64
}

// PositionToTime maps a pointer x coordinate to a time in [0, duration].
// Degenerate tracks or durations map everything to 0.
func PositionToTime(pixelX float64, track Bounds, duration float64) float64 {
	if track.Width <= 0 || duration <= 0 || math.IsNaN(pixelX) {
		return 0
	}
	offset := clamp(pixelX-track.Left, 0, track.Width)
	return offset / track.Width * duration
}

// TimeToPosition is the inverse of PositionToTime.
func TimeToPosition(t float64, track Bounds, duration float64) float64 {
	if track.Width <= 0 || duration <= 0 {
		return track.Left
	}
	return track.Left + clamp(t, 0, duration)/duration*track.Width
}

// SnapToGrid pulls t onto the nearest multiple of grid when it is strictly
// closer than tolerance. Otherwise t is returned unchanged.
func SnapToGrid(t, grid, tolerance float64) float64 {
	if grid <= 0 || tolerance <= 0 {
		return t
	}
	snapped := math.Round(t/grid) * grid
	if math.Abs(snapped-t) < tolerance {
		return snapped
	}
	return t
}

// Snap applies the options' grid to t and keeps the result inside [0, duration].
func (o Options) Snap(t, duration float64) float64 {
	return clamp(SnapToGrid(t, o.GridInterval, o.SnapTolerance), 0, duration)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
