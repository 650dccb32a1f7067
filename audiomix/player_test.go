package audiomix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantBuffer(value float32, n int) *Buffer {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = value
	}
	return &Buffer{samples: samples}
}

func TestPlayWithoutLoadedTrack(t *testing.T) {
	p := &player{}
	assert.ErrorIs(t, p.play(), ErrNotReady)
	assert.False(t, p.playing)
}

func TestLoadDoesNotInterruptActivePlayback(t *testing.T) {
	p := &player{}
	p.load(constantBuffer(0.5, FrameSize*4))
	require.NoError(t, p.play())

	dst := make([]float32, FrameSize)
	p.nextFrame(dst)
	p.nextFrame(dst)
	position := p.position()
	assert.Greater(t, position, 0.0)

	// a new track arrives mid-playback: the in-flight source keeps its
	// buffer and its position
	p.load(constantBuffer(0.9, FrameSize*4))
	assert.Equal(t, position, p.position())

	p.nextFrame(dst)
	assert.Equal(t, float32(0.5), dst[0])

	// the loaded buffer is only attached on the next play, from the start
	p.stop()
	require.NoError(t, p.play())
	assert.Equal(t, 0.0, p.position())
	p.nextFrame(dst)
	assert.Equal(t, float32(0.9), dst[0])
}

func TestStopAlwaysRewinds(t *testing.T) {
	p := &player{}
	p.load(constantBuffer(0.5, FrameSize*4))
	require.NoError(t, p.play())

	dst := make([]float32, FrameSize)
	p.nextFrame(dst)
	assert.Greater(t, p.position(), 0.0)

	p.stop()
	assert.False(t, p.playing)
	assert.Equal(t, 0.0, p.position())
}

func TestNextFrameZeroPadsAndRewindsAtEnd(t *testing.T) {
	p := &player{}
	p.load(constantBuffer(0.5, FrameSize/2))
	require.NoError(t, p.play())

	dst := make([]float32, FrameSize)
	ended := p.nextFrame(dst)
	assert.True(t, ended)
	assert.Equal(t, float32(0.5), dst[0])
	assert.Equal(t, float32(0), dst[FrameSize-1])
	assert.False(t, p.playing)
	assert.Equal(t, 0.0, p.position())
}

func TestNextFrameSilentWhenStopped(t *testing.T) {
	p := &player{}
	p.load(constantBuffer(0.5, FrameSize))

	dst := make([]float32, FrameSize)
	dst[0] = 1
	ended := p.nextFrame(dst)
	assert.False(t, ended)
	assert.Equal(t, float32(0), dst[0])
}

func TestDurationFollowsLoadedTrack(t *testing.T) {
	p := &player{}
	assert.Equal(t, 0.0, p.duration())

	p.load(constantBuffer(0, SampleRate))
	assert.Equal(t, 1.0, p.duration())
}
