// Package editor drives a timeline.SegmentSet from pointer and keyboard
// events. An Editor owns exactly one gesture at a time and every handler
// returns synchronously.
package editor

import (
	"math"

	"github.com/bunpeg/bunpeg-editor/internal/timeline"
)

const DefaultDragThresholdPx = 3.0

// Player is the playback surface the editor seeks and toggles.
type Player interface {
	Seek(t float64)
	TogglePlay()
	Playing() bool
}

type Config struct {
	Duration        float64
	Track           timeline.Bounds
	Options         timeline.Options
	DragThresholdPx float64
	Player          Player
}

type Editor struct {
	segments  *timeline.SegmentSet
	opts      timeline.Options
	track     timeline.Bounds
	player    Player
	threshold float64

	gesture   Gesture
	preview   *timeline.Range
	hoveredID string
	textFocus bool

	pressX        float64
	travel        float64
	suppressClick bool
}

func New(cfg Config) *Editor {
	threshold := cfg.DragThresholdPx
	if threshold <= 0 {
		threshold = DefaultDragThresholdPx
	}
	player := cfg.Player
	if player == nil {
		player = &VirtualPlayer{}
	}
	return &Editor{
		segments:  timeline.NewSegmentSet(cfg.Duration, cfg.Options),
		opts:      cfg.Options,
		track:     cfg.Track,
		player:    player,
		threshold: threshold,
		gesture:   Idle(),
	}
}

func (e *Editor) Segments() *timeline.SegmentSet { return e.segments }
func (e *Editor) Gesture() Gesture                { return e.gesture }
func (e *Editor) HoveredID() string               { return e.hoveredID }
func (e *Editor) Player() Player                  { return e.player }
func (e *Editor) Track() timeline.Bounds          { return e.track }
func (e *Editor) Duration() float64               { return e.segments.Duration() }

// Preview returns the pending range while a create gesture is in flight.
func (e *Editor) Preview() (timeline.Range, bool) {
	if e.preview == nil {
		return timeline.Range{}, false
	}
	return *e.preview, true
}

// SetTrack updates the rendered bounds, e.g. after a resize of the view.
func (e *Editor) SetTrack(b timeline.Bounds) {
	e.track = b
}

// SetTextFocus suspends the space shortcut while a text field has focus.
func (e *Editor) SetTextFocus(focused bool) {
	e.textFocus = focused
}

func (e *Editor) ready() bool {
	return e.segments.Duration() > 0 && e.track.Width > 0
}

func (e *Editor) timeAt(x float64) float64 {
	return timeline.PositionToTime(x, e.track, e.segments.Duration())
}

func (e *Editor) snappedTimeAt(x float64) float64 {
	return e.opts.Snap(e.timeAt(x), e.segments.Duration())
}

// PointerDown starts a create gesture on the bare track or a resize gesture
// on a segment handle.
func (e *Editor) PointerDown(x float64, target Target) Outcome {
	if !e.ready() {
		return Outcome{Kind: OutcomeNone}
	}

	e.pressX = x
	e.travel = 0
	e.suppressClick = false

	switch target.Kind {
	case TargetStartHandle, TargetEndHandle:
		if _, ok := e.segments.Get(target.SegmentID); !ok {
			return Outcome{Kind: OutcomeRejected, SegmentID: target.SegmentID, Err: timeline.ErrSegmentNotFound}
		}
		if target.Kind == TargetStartHandle {
			e.gesture = ResizingStart(target.SegmentID)
		} else {
			e.gesture = ResizingEnd(target.SegmentID)
		}
		e.preview = nil
		return Outcome{Kind: OutcomeNone, SegmentID: target.SegmentID}
	default:
		anchor := e.snappedTimeAt(x)
		e.gesture = Creating(anchor)
		e.preview = &timeline.Range{Start: anchor, End: anchor}
		return Outcome{Kind: OutcomeNone, Time: anchor}
	}
}

// PointerMove updates the preview, live-resizes, or tracks hover.
func (e *Editor) PointerMove(x float64) Outcome {
	if !e.ready() {
		return Outcome{Kind: OutcomeNone}
	}
	if d := math.Abs(x - e.pressX); d > e.travel && !e.gesture.IsIdle() {
		e.travel = d
	}

	switch e.gesture.Kind {
	case GestureCreating:
		now := e.snappedTimeAt(x)
		e.preview = &timeline.Range{
			Start: math.Min(e.gesture.Anchor, now),
			End:   math.Max(e.gesture.Anchor, now),
		}
		return Outcome{Kind: OutcomeNone, Time: now}

	case GestureResizingStart, GestureResizingEnd:
		return e.resizeTo(x)

	default:
		if seg, ok := e.segments.At(e.timeAt(x)); ok {
			e.hoveredID = seg.ID
		} else {
			e.hoveredID = ""
		}
		return Outcome{Kind: OutcomeNone}
	}
}

func (e *Editor) resizeTo(x float64) Outcome {
	t := e.snappedTimeAt(x)
	var (
		seg timeline.TimeRange
		err error
	)
	if e.gesture.Kind == GestureResizingStart {
		seg, err = e.segments.ResizeStart(e.gesture.SegmentID, t)
	} else {
		seg, err = e.segments.ResizeEnd(e.gesture.SegmentID, t)
	}
	if err != nil {
		id := e.gesture.SegmentID
		e.reset()
		return Outcome{Kind: OutcomeRejected, SegmentID: id, Err: err}
	}
	return Outcome{Kind: OutcomeResized, SegmentID: seg.ID, Time: t}
}

// PointerUp ends the active gesture. A create gesture commits its preview if
// the segment set accepts it, however few pixels it travelled; the editor
// returns to idle either way.
func (e *Editor) PointerUp(x float64) Outcome {
	if !e.ready() {
		e.reset()
		return Outcome{Kind: OutcomeNone}
	}
	if d := math.Abs(x - e.pressX); d > e.travel && !e.gesture.IsIdle() {
		e.travel = d
	}
	dragged := e.travel >= e.threshold

	switch e.gesture.Kind {
	case GestureCreating:
		anchor := e.gesture.Anchor
		now := e.snappedTimeAt(x)
		e.reset()
		e.suppressClick = dragged
		if anchor == now {
			return Outcome{Kind: OutcomeNone}
		}
		seg, err := e.segments.Create(math.Min(anchor, now), math.Max(anchor, now))
		if err != nil {
			// Jitter under the drag threshold is a click, not a failed gesture.
			if !dragged {
				return Outcome{Kind: OutcomeNone}
			}
			return Outcome{Kind: OutcomeRejected, Err: err}
		}
		e.suppressClick = true
		return Outcome{Kind: OutcomeCommitted, SegmentID: seg.ID}

	case GestureResizingStart, GestureResizingEnd:
		out := e.resizeTo(x)
		e.reset()
		e.suppressClick = true
		return out

	default:
		e.reset()
		return Outcome{Kind: OutcomeNone}
	}
}

// PointerLeave cancels a create gesture without committing. A resize simply
// ends, since every move has already been applied.
func (e *Editor) PointerLeave() Outcome {
	kind := e.gesture.Kind
	e.reset()
	e.hoveredID = ""
	e.suppressClick = false
	if kind == GestureCreating {
		return Outcome{Kind: OutcomeCancelled}
	}
	return Outcome{Kind: OutcomeNone}
}

// Click seeks playback unless it is the tail of a drag that just ended.
func (e *Editor) Click(x float64) Outcome {
	if e.suppressClick {
		e.suppressClick = false
		return Outcome{Kind: OutcomeNone}
	}
	if !e.ready() || !e.gesture.IsIdle() {
		return Outcome{Kind: OutcomeNone}
	}
	t := e.timeAt(x)
	e.player.Seek(t)
	return Outcome{Kind: OutcomeSeeked, Time: t}
}

// Key handles the editor shortcuts: space toggles playback, delete and
// backspace remove the hovered segment.
func (e *Editor) Key(key string) Outcome {
	switch key {
	case " ", "space":
		if e.textFocus {
			return Outcome{Kind: OutcomeNone}
		}
		e.player.TogglePlay()
		return Outcome{Kind: OutcomeToggledPlayback}
	case "delete", "backspace":
		if e.hoveredID == "" {
			return Outcome{Kind: OutcomeNone}
		}
		return e.RemoveSegment(e.hoveredID)
	}
	return Outcome{Kind: OutcomeNone}
}

// Hover marks a segment as hovered, as a pointer-enter on it would.
func (e *Editor) Hover(id string) {
	if _, ok := e.segments.Get(id); ok || id == "" {
		e.hoveredID = id
	}
}

// CreateSegment adds a segment directly, bypassing the pointer gesture.
func (e *Editor) CreateSegment(start, end float64) (timeline.TimeRange, error) {
	return e.segments.Create(start, end)
}

// ResizeSegment moves one or both edges of a segment. Edges are applied in
// the order that keeps the segment valid.
func (e *Editor) ResizeSegment(id string, start, end *float64) (timeline.TimeRange, error) {
	seg, ok := e.segments.Get(id)
	if !ok {
		return timeline.TimeRange{}, timeline.ErrSegmentNotFound
	}
	var err error
	if start != nil && end != nil && *start >= seg.End {
		if seg, err = e.segments.ResizeEnd(id, *end); err != nil {
			return seg, err
		}
		return e.segments.ResizeStart(id, *start)
	}
	if start != nil {
		if seg, err = e.segments.ResizeStart(id, *start); err != nil {
			return seg, err
		}
	}
	if end != nil {
		if seg, err = e.segments.ResizeEnd(id, *end); err != nil {
			return seg, err
		}
	}
	return seg, nil
}

// RemoveSegment deletes a segment and ends any gesture that referenced it.
func (e *Editor) RemoveSegment(id string) Outcome {
	if !e.segments.Remove(id) {
		return Outcome{Kind: OutcomeNone, SegmentID: id}
	}
	if e.hoveredID == id {
		e.hoveredID = ""
	}
	if e.gesture.SegmentID == id {
		e.reset()
	}
	return Outcome{Kind: OutcomeRemoved, SegmentID: id}
}

func (e *Editor) reset() {
	e.gesture = Idle()
	e.preview = nil
}
