package audiomix

// player feeds the background track into the mix one frame at a time.
// Loading a new buffer never touches a playback already in flight: the
// active source keeps draining the buffer it started with, the loaded
// buffer is only attached on the next Play. Guarded by the graph's mutex.
type player struct {
	loaded  *Buffer
	active  *Buffer
	pos     int
	playing bool
}

func (p *player) load(buf *Buffer) {
	p.loaded = buf
	// pos belongs to the active playback, only rewind when idle
	if !p.playing {
		p.pos = 0
	}
}

func (p *player) play() error {
	if p.loaded == nil {
		return ErrNotReady
	}
	if p.active != p.loaded {
		p.pos = 0
	}
	p.active = p.loaded
	p.playing = true
	return nil
}

// stop halts playback and rewinds. There is no pause in this design:
// stopping always resets the position to the start.
func (p *player) stop() {
	p.playing = false
	p.active = nil
	p.pos = 0
}

// nextFrame fills dst with the next frame of the active buffer, zero-padding
// past the end. Returns true when playback just reached end-of-buffer, in
// which case the player has already stopped and rewound itself.
func (p *player) nextFrame(dst []float32) (ended bool) {
	if !p.playing || p.active == nil {
		zero(dst)
		return false
	}
	n := copy(dst, p.active.samples[p.pos:])
	zero(dst[n:])
	p.pos += n
	if p.pos >= len(p.active.samples) {
		p.stop()
		return true
	}
	return false
}

func (p *player) position() float64 {
	return float64(p.pos) / SampleRate
}

func (p *player) duration() float64 {
	if p.loaded == nil {
		return 0
	}
	return p.loaded.Duration().Seconds()
}

func zero(s []float32) {
	for i := range s {
		s[i] = 0
	}
}
