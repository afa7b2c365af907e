package editor

import "fmt"

// GestureKind tags the single active pointer gesture of an editor.
type GestureKind int

const (
	GestureIdle GestureKind = iota
	GestureCreating
	GestureResizingStart
	GestureResizingEnd
)

func (k GestureKind) String() string {
	switch k {
	case GestureIdle:
		return "idle"
	case GestureCreating:
		return "creating"
	case GestureResizingStart:
		return "resizing_start"
	case GestureResizingEnd:
		return "resizing_end"
	default:
		return fmt.Sprintf("gesture(%d)", int(k))
	}
}

func (k GestureKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *GestureKind) UnmarshalText(text []byte) error {
	for _, c := range []GestureKind{GestureIdle, GestureCreating, GestureResizingStart, GestureResizingEnd} {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown gesture %q", text)
}

// Gesture is the tagged state. Anchor is set only while creating, SegmentID
// only while resizing.
type Gesture struct {
	Kind      GestureKind `json:"kind"`
	Anchor    float64     `json:"anchor,omitempty"`
	SegmentID string      `json:"segment_id,omitempty"`
}

func Idle() Gesture {
	return Gesture{Kind: GestureIdle}
}

func Creating(anchor float64) Gesture {
	return Gesture{Kind: GestureCreating, Anchor: anchor}
}

func ResizingStart(id string) Gesture {
	return Gesture{Kind: GestureResizingStart, SegmentID: id}
}

func ResizingEnd(id string) Gesture {
	return Gesture{Kind: GestureResizingEnd, SegmentID: id}
}

func (g Gesture) IsIdle() bool {
	return g.Kind == GestureIdle
}

func (g Gesture) IsResizing() bool {
	return g.Kind == GestureResizingStart || g.Kind == GestureResizingEnd
}

// TargetKind says what the pointer was pressed on.
type TargetKind int

const (
	TargetTrack TargetKind = iota
	TargetStartHandle
	TargetEndHandle
)

// Target is the hit-test result for a pointer-down.
type Target struct {
	Kind      TargetKind
	SegmentID string
}

func Track() Target {
	return Target{Kind: TargetTrack}
}

func StartHandle(id string) Target {
	return Target{Kind: TargetStartHandle, SegmentID: id}
}

func EndHandle(id string) Target {
	return Target{Kind: TargetEndHandle, SegmentID: id}
}

// ParseTarget maps the wire names used by the HTTP surface.
func ParseTarget(kind, segmentID string) (Target, error) {
	switch kind {
	case "", "track":
		return Track(), nil
	case "start", "start_handle":
		if segmentID == "" {
			return Target{}, fmt.Errorf("segment_id is required for %s", kind)
		}
		return StartHandle(segmentID), nil
	case "end", "end_handle":
		if segmentID == "" {
			return Target{}, fmt.Errorf("segment_id is required for %s", kind)
		}
		return EndHandle(segmentID), nil
	default:
		return Target{}, fmt.Errorf("unknown pointer target %q", kind)
	}
}

// OutcomeKind classifies what a pointer event did to the segment set.
type OutcomeKind int

const (
	OutcomeNone OutcomeKind = iota
	OutcomeCommitted
	OutcomeRejected
	OutcomeResized
	OutcomeRemoved
	OutcomeCancelled
	OutcomeSeeked
	OutcomeToggledPlayback
)

var outcomeNames = map[OutcomeKind]string{
	OutcomeNone:            "none",
	OutcomeCommitted:       "committed",
	OutcomeRejected:        "rejected",
	OutcomeResized:         "resized",
	OutcomeRemoved:         "removed",
	OutcomeCancelled:       "cancelled",
	OutcomeSeeked:          "seeked",
	OutcomeToggledPlayback: "toggled_playback",
}

func (k OutcomeKind) String() string {
	if name, ok := outcomeNames[k]; ok {
		return name
	}
	return fmt.Sprintf("outcome(%d)", int(k))
}

func (k OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *OutcomeKind) UnmarshalText(text []byte) error {
	for kind, name := range outcomeNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", text)
}

// Outcome is returned by every handler so callers can surface rejections
// without inspecting editor internals.
type Outcome struct {
	Kind      OutcomeKind
	SegmentID string
	Time      float64
	Err       error
}
