package audiomix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGainRampIsGradual(t *testing.T) {
	node := newGainNode(0)
	node.setTarget(1.0)

	v := node.step(frameDuration)
	assert.Greater(t, v, 0.0)
	assert.Less(t, v, 1.0)
}

func TestGainRampReachesTargetWithinRampDuration(t *testing.T) {
	node := newGainNode(0)
	node.setTarget(1.0)

	steps := int(gainRampDuration / frameDuration)
	for i := 0; i < steps; i++ {
		node.step(frameDuration)
	}
	assert.Equal(t, 1.0, node.current())

	// settled, further steps hold the value
	assert.Equal(t, 1.0, node.step(frameDuration))
}

func TestGainRampDownward(t *testing.T) {
	node := newGainNode(1.0)
	node.setTarget(0)

	v := node.step(frameDuration)
	assert.Less(t, v, 1.0)
	assert.Greater(t, v, 0.0)

	for i := 0; i < 10; i++ {
		node.step(frameDuration)
	}
	assert.Equal(t, 0.0, node.current())
}

func TestGainTargetIsClamped(t *testing.T) {
	node := newGainNode(1.0)

	node.setTarget(10)
	assert.Equal(t, MaxGain, node.target)

	node.setTarget(-3)
	assert.Equal(t, 0.0, node.target)
}

func TestClampGain(t *testing.T) {
	assert.Equal(t, 0.0, clampGain(-0.1))
	assert.Equal(t, 0.7, clampGain(0.7))
	assert.Equal(t, MaxGain, clampGain(MaxGain+1))
}
