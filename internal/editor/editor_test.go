package editor

import (
	"errors"
	"testing"

	"github.com/bunpeg/bunpeg-editor/internal/timeline"
)

type fakePlayer struct {
	seeks   []float64
	toggles int
}

func (p *fakePlayer) Seek(t float64) { p.seeks = append(p.seeks, t) }
func (p *fakePlayer) TogglePlay()    { p.toggles++ }
func (p *fakePlayer) Playing() bool  { return p.toggles%2 == 1 }

// 100px track over 100s: one pixel is one second.
func newTestEditor(t *testing.T) (*Editor, *fakePlayer) {
	t.Helper()
	player := &fakePlayer{}
	e := New(Config{
		Duration: 100,
		Track:    timeline.Bounds{Left: 0, Width: 100},
		Options:  timeline.DefaultOptions(),
		Player:   player,
	})
	return e, player
}

func drag(e *Editor, from, to float64) Outcome {
	e.PointerDown(from, Track())
	e.PointerMove((from + to) / 2)
	e.PointerMove(to)
	return e.PointerUp(to)
}

func TestCreateGesture_Commits(t *testing.T) {
	e, _ := newTestEditor(t)

	out := drag(e, 10.2, 20.1)
	if out.Kind != OutcomeCommitted {
		t.Fatalf("outcome = %v (%v), want committed", out.Kind, out.Err)
	}

	segs := e.Segments().Sorted()
	if len(segs) != 1 {
		t.Fatalf("segments = %d, want 1", len(segs))
	}
	if segs[0].Start != 10 || segs[0].End != 20 {
		t.Fatalf("segment = %s, want snapped [10,20)", segs[0])
	}
	if !e.Gesture().IsIdle() {
		t.Fatalf("gesture = %v, want idle", e.Gesture().Kind)
	}
	if _, ok := e.Preview(); ok {
		t.Fatal("preview should be cleared after pointer-up")
	}
}

func TestCreateGesture_RightToLeft(t *testing.T) {
	e, _ := newTestEditor(t)

	if out := drag(e, 50, 40); out.Kind != OutcomeCommitted {
		t.Fatalf("outcome = %v, want committed", out.Kind)
	}
	seg := e.Segments().Sorted()[0]
	if seg.Start != 40 || seg.End != 50 {
		t.Fatalf("segment = %s, want [40,50)", seg)
	}
}

func TestCreateGesture_PreviewWhileDragging(t *testing.T) {
	e, _ := newTestEditor(t)

	e.PointerDown(30, Track())
	if e.Gesture().Kind != GestureCreating || e.Gesture().Anchor != 30 {
		t.Fatalf("gesture = %+v, want creating at 30", e.Gesture())
	}
	e.PointerMove(22)

	preview, ok := e.Preview()
	if !ok {
		t.Fatal("expected a preview while creating")
	}
	if preview.Start != 22 || preview.End != 30 {
		t.Fatalf("preview = %+v, want [22,30]", preview)
	}
	if e.Segments().Len() != 0 {
		t.Fatal("preview must not mutate the segment set")
	}
}

// On a terminal-sized track one cell spans several seconds, so a drag of a
// couple of pixels is still a real range.
func TestCreateGesture_CommitsShortPixelDrag(t *testing.T) {
	player := &fakePlayer{}
	e := New(Config{
		Duration: 600,
		Track:    timeline.Bounds{Width: 76},
		Options:  timeline.DefaultOptions(),
		Player:   player,
	})

	e.PointerDown(10, Track())
	e.PointerMove(12)
	out := e.PointerUp(12)
	if out.Kind != OutcomeCommitted {
		t.Fatalf("outcome = %v (%v), want committed", out.Kind, out.Err)
	}

	segs := e.Segments().Sorted()
	if len(segs) != 1 {
		t.Fatalf("segments = %d, want 1", len(segs))
	}
	if d := segs[0].End - segs[0].Start; d < 10 {
		t.Fatalf("segment = %s, want about 15.8s", segs[0])
	}

	if out := e.Click(12); out.Kind != OutcomeNone {
		t.Fatalf("click after commit = %v, want none", out.Kind)
	}
	if len(player.seeks) != 0 {
		t.Fatalf("seeks = %v, want none", player.seeks)
	}
}

func TestCreateGesture_TooShortDiscarded(t *testing.T) {
	opts := timeline.DefaultOptions()
	opts.MinSegmentDuration = 10
	e := New(Config{Duration: 100, Track: timeline.Bounds{Width: 100}, Options: opts})

	out := drag(e, 10, 15)
	if out.Kind != OutcomeRejected || !errors.Is(out.Err, timeline.ErrTooShort) {
		t.Fatalf("outcome = %v (%v), want rejected too short", out.Kind, out.Err)
	}
	if e.Segments().Len() != 0 {
		t.Fatal("too short gesture must not commit")
	}
	if !e.Gesture().IsIdle() {
		t.Fatal("gesture should return to idle")
	}
}

func TestCreateGesture_OverlapDiscarded(t *testing.T) {
	e, _ := newTestEditor(t)
	drag(e, 10, 20)

	out := drag(e, 15, 30)
	if out.Kind != OutcomeRejected || !errors.Is(out.Err, timeline.ErrOverlap) {
		t.Fatalf("outcome = %v (%v), want rejected overlap", out.Kind, out.Err)
	}
	if e.Segments().Len() != 1 {
		t.Fatalf("segments = %d, want 1", e.Segments().Len())
	}
}

func TestPointerLeave_CancelsCreate(t *testing.T) {
	e, _ := newTestEditor(t)

	e.PointerDown(10, Track())
	e.PointerMove(40)
	if out := e.PointerLeave(); out.Kind != OutcomeCancelled {
		t.Fatalf("outcome = %v, want cancelled", out.Kind)
	}
	if e.Segments().Len() != 0 {
		t.Fatal("leave must not commit")
	}
	if _, ok := e.Preview(); ok {
		t.Fatal("preview should be discarded")
	}

	if out := e.PointerUp(40); out.Kind != OutcomeNone {
		t.Fatalf("pointer-up after leave = %v, want none", out.Kind)
	}
	if e.Segments().Len() != 0 {
		t.Fatal("pointer-up after leave must not commit")
	}
}

func TestResizeGesture_LiveUpdates(t *testing.T) {
	e, _ := newTestEditor(t)
	drag(e, 40, 60)
	id := e.Segments().Sorted()[0].ID

	e.PointerDown(60, EndHandle(id))
	if e.Gesture().Kind != GestureResizingEnd || e.Gesture().SegmentID != id {
		t.Fatalf("gesture = %+v, want resizing end of %s", e.Gesture(), id)
	}

	out := e.PointerMove(70)
	if out.Kind != OutcomeResized {
		t.Fatalf("move outcome = %v, want resized", out.Kind)
	}
	if seg, _ := e.Segments().Get(id); seg.End != 70 {
		t.Fatalf("live resize end = %v, want 70", seg.End)
	}

	e.PointerUp(75)
	if seg, _ := e.Segments().Get(id); seg.End != 75 {
		t.Fatalf("final end = %v, want 75", seg.End)
	}
	if !e.Gesture().IsIdle() {
		t.Fatal("gesture should be idle after pointer-up")
	}
}

func TestResizeGesture_StopsAtNeighbour(t *testing.T) {
	e, _ := newTestEditor(t)
	drag(e, 10, 20)
	drag(e, 40, 60)
	id := e.Segments().Sorted()[1].ID

	e.PointerDown(40, StartHandle(id))
	e.PointerMove(5)
	e.PointerUp(5)

	seg, _ := e.Segments().Get(id)
	if seg.Start != 20 {
		t.Fatalf("start = %v, want 20 (left neighbour end)", seg.Start)
	}
}

func TestResizeGesture_UnknownSegment(t *testing.T) {
	e, _ := newTestEditor(t)

	out := e.PointerDown(10, StartHandle("missing"))
	if out.Kind != OutcomeRejected || !errors.Is(out.Err, timeline.ErrSegmentNotFound) {
		t.Fatalf("outcome = %v (%v), want rejected not found", out.Kind, out.Err)
	}
	if !e.Gesture().IsIdle() {
		t.Fatal("gesture should stay idle")
	}
}

func TestClick_SeeksWhenIdle(t *testing.T) {
	e, player := newTestEditor(t)

	e.PointerDown(42, Track())
	e.PointerUp(42)
	out := e.Click(42)

	if out.Kind != OutcomeSeeked {
		t.Fatalf("outcome = %v, want seeked", out.Kind)
	}
	if len(player.seeks) != 1 || player.seeks[0] != 42 {
		t.Fatalf("seeks = %v, want [42]", player.seeks)
	}
	if e.Segments().Len() != 0 {
		t.Fatal("a plain click must not create a segment")
	}
}

func TestClick_SuppressedAfterDrag(t *testing.T) {
	e, player := newTestEditor(t)

	drag(e, 10, 30)
	if out := e.Click(30); out.Kind != OutcomeNone {
		t.Fatalf("click after drag = %v, want none", out.Kind)
	}
	if len(player.seeks) != 0 {
		t.Fatalf("seeks = %v, want none", player.seeks)
	}

	if out := e.Click(50); out.Kind != OutcomeSeeked {
		t.Fatalf("next click = %v, want seeked", out.Kind)
	}
}

func TestKeys(t *testing.T) {
	e, player := newTestEditor(t)

	e.Key("space")
	if player.toggles != 1 {
		t.Fatalf("toggles = %d, want 1", player.toggles)
	}

	e.SetTextFocus(true)
	e.Key(" ")
	if player.toggles != 1 {
		t.Fatal("space must be ignored while a text field has focus")
	}
	e.SetTextFocus(false)

	drag(e, 10, 20)
	if out := e.Key("delete"); out.Kind != OutcomeNone {
		t.Fatalf("delete without hover = %v, want none", out.Kind)
	}

	e.PointerMove(15)
	if e.HoveredID() == "" {
		t.Fatal("expected hovered segment")
	}
	if out := e.Key("backspace"); out.Kind != OutcomeRemoved {
		t.Fatalf("backspace = %v, want removed", out.Kind)
	}
	if e.Segments().Len() != 0 {
		t.Fatal("segment should be removed")
	}
	if e.HoveredID() != "" {
		t.Fatal("hover should be cleared after removal")
	}
}

func TestZeroDurationIsInert(t *testing.T) {
	e := New(Config{Duration: 0, Track: timeline.Bounds{Width: 100}})

	e.PointerDown(10, Track())
	e.PointerMove(50)
	out := e.PointerUp(50)

	if out.Kind != OutcomeNone {
		t.Fatalf("outcome = %v, want none", out.Kind)
	}
	if !e.Gesture().IsIdle() {
		t.Fatal("gesture should remain idle without a duration")
	}
	if e.Click(10).Kind != OutcomeNone {
		t.Fatal("click should not seek without a duration")
	}
}

func TestResizeSegment(t *testing.T) {
	e, _ := newTestEditor(t)
	seg, err := e.CreateSegment(10, 20)
	if err != nil {
		t.Fatalf("CreateSegment() error = %v", err)
	}

	start, end := 30.0, 40.0
	got, err := e.ResizeSegment(seg.ID, &start, &end)
	if err != nil {
		t.Fatalf("ResizeSegment() error = %v", err)
	}
	if got.Start != 30 || got.End != 40 {
		t.Fatalf("ResizeSegment() = %s, want [30,40)", got)
	}

	if _, err := e.ResizeSegment("missing", &start, nil); !errors.Is(err, timeline.ErrSegmentNotFound) {
		t.Fatalf("ResizeSegment(missing) error = %v", err)
	}
}

func TestParseTarget(t *testing.T) {
	if got, err := ParseTarget("", ""); err != nil || got.Kind != TargetTrack {
		t.Fatalf("ParseTarget(track) = %+v, %v", got, err)
	}
	if got, err := ParseTarget("end", "abc"); err != nil || got.Kind != TargetEndHandle || got.SegmentID != "abc" {
		t.Fatalf("ParseTarget(end) = %+v, %v", got, err)
	}
	if _, err := ParseTarget("start", ""); err == nil {
		t.Fatal("ParseTarget(start) without id should fail")
	}
	if _, err := ParseTarget("middle", "x"); err == nil {
		t.Fatal("ParseTarget(unknown) should fail")
	}
}

func TestVirtualPlayer_Advance(t *testing.T) {
	p := &VirtualPlayer{}
	if got := p.Advance(1, 10); got != 0 {
		t.Fatalf("Advance while paused = %v, want 0", got)
	}
	p.TogglePlay()
	p.Seek(9.5)
	if got := p.Advance(1, 10); got != 10 {
		t.Fatalf("Advance past end = %v, want 10", got)
	}
	if p.Playing() {
		t.Fatal("player should stop at the end")
	}
}
