package editor

import "sync"

// VirtualPlayer is a playhead without media behind it. The terminal editor
// and the HTTP sessions use it to track the seek position and play state.
type VirtualPlayer struct {
	mu       sync.Mutex
	position float64
	playing  bool
}

func (p *VirtualPlayer) Seek(t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.position = t
}

func (p *VirtualPlayer) TogglePlay() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = !p.playing
}

func (p *VirtualPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *VirtualPlayer) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

// Advance moves the playhead forward by dt seconds while playing, stopping
// at duration.
func (p *VirtualPlayer) Advance(dt, duration float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return p.position
	}
	p.position += dt
	if p.position >= duration {
		p.position = duration
		p.playing = false
	}
	return p.position
}
