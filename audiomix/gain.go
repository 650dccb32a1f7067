package audiomix

import (
	"math"
	"time"
)

// gainNode is one gain stage of the graph. setTarget starts a linear ramp
// that lands on the target after gainRampDuration; step advances the ramp
// by the elapsed frame time and returns the value to apply to the frame.
// Guarded by the owning graph's mutex.
type gainNode struct {
	value  float64
	target float64
	rate   float64 // units per second while ramping, 0 when settled
}

func newGainNode(initial float64) *gainNode {
	return &gainNode{value: initial, target: initial}
}

func (g *gainNode) setTarget(v float64) {
	v = clampGain(v)
	if v == g.target {
		return
	}
	g.target = v
	g.rate = math.Abs(v-g.value) / gainRampDuration.Seconds()
}

func (g *gainNode) step(dt time.Duration) float64 {
	if g.value == g.target {
		return g.value
	}
	delta := g.rate * dt.Seconds()
	if g.value < g.target {
		g.value = math.Min(g.value+delta, g.target)
	} else {
		g.value = math.Max(g.value-delta, g.target)
	}
	return g.value
}

func (g *gainNode) current() float64 {
	return g.value
}

func clampGain(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > MaxGain {
		return MaxGain
	}
	return v
}
