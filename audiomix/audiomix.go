// Package audiomix mixes the local microphone with an optionally loaded
// background track into a single outbound Opus track, while separately
// feeding a local monitor output. The graph is built once per call: gain
// stages are wired at construction and only sources come and go.
package audiomix

import (
	"errors"
	"time"
)

const (
	// SampleRate is the graph's internal rate. Decoded tracks are
	// resampled to it, the capture source must deliver it.
	SampleRate = 48000

	channels      = 1
	frameDuration = 20 * time.Millisecond

	// FrameSize is samples per 20ms mono frame.
	FrameSize = SampleRate / 1000 * 20

	// Gain targets are reached over this window instead of stepping
	// instantly, otherwise the jump is an audible click.
	gainRampDuration = 100 * time.Millisecond

	// MaxGain allows boosting a quiet source up to 150%.
	MaxGain = 1.5
)

var (
	// ErrPermissionDenied: the user or OS refused microphone access.
	// Terminal for this initialization attempt.
	ErrPermissionDenied = errors.New("audiomix: microphone access denied")

	// ErrDecode: the picked file is not decodable. Recoverable, the user
	// picks another file.
	ErrDecode = errors.New("audiomix: cannot decode audio file")

	// ErrNotReady: playback requested with nothing to play.
	ErrNotReady = errors.New("audiomix: no track loaded")
)

// CaptureSource is an exclusive handle on the device microphone. ReadFrame
// fills dst (len FrameSize) with mono float32 samples at SampleRate and may
// block up to one frame interval.
type CaptureSource interface {
	ReadFrame(dst []float32) error
	Close() error
}

// CaptureProvider acquires the microphone from the platform. Acquisition
// requires a user gesture on the embedding side, which is why the graph
// never initializes implicitly. Returns ErrPermissionDenied when refused.
type CaptureProvider interface {
	AcquireMicrophone(sampleRate, channels int) (CaptureSource, error)
}

// PlaybackSink plays frames on the local output device. Used for the
// monitor tap and for hearing the loaded background track.
type PlaybackSink interface {
	WriteFrame(frame []float32) error
}

// GraphDelegate receives playback progress on a UI-binding cadence.
type GraphDelegate interface {
	OnPlaybackProgress(position, duration float64)
	OnPlaybackEnded()
}

// MixGraphState is the snapshot exposed to the UI layer.
type MixGraphState struct {
	MicGain          float64 `json:"micGain"`
	BgmGain          float64 `json:"bgmGain"`
	MonitorEnabled   bool    `json:"monitorEnabled"`
	TrackDuration    float64 `json:"loadedTrackDuration"`
	PlaybackPosition float64 `json:"playbackPosition"`
	IsPlaying        bool    `json:"isPlaying"`
}
