package audiomix

import (
	"fmt"
	"sync"
	"time"

	"github.com/hraban/opus"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	log "github.com/sirupsen/logrus"
)

// Graph owns the call's outbound audio. Topology, fixed at construction:
//
//	mic ── micGain ──┬────────────────────────┐
//	                 └─ monitorGain ──┐       ├─ outbound (opus track)
//	bgm ── bgmGain ──┬────────────────┴─ local output
//	                 └────────────────────────┘
//
// The bgm gain stage feeds both the outbound mix and the local output; it
// is wired exactly once here, never per Play, so repeated playback cannot
// double-connect it and double the volume. The monitor tap only affects the
// mic path: the operator always hears the music they loaded.
type Graph struct {
	provider CaptureProvider
	monitor  PlaybackSink  // may be nil
	delegate GraphDelegate // may be nil

	mu          sync.Mutex
	initialized bool
	mic         CaptureSource
	micEnabled  bool
	micGain     *gainNode
	bgmGain     *gainNode
	monitorGain *gainNode
	monitorOn   bool
	player      *player
	track       *webrtc.TrackLocalStaticSample
	encoder     *opus.Encoder
	done        chan struct{}
	micReadErr  bool
}

func NewGraph(provider CaptureProvider, monitor PlaybackSink, delegate GraphDelegate) *Graph {
	return &Graph{
		provider:    provider,
		monitor:     monitor,
		delegate:    delegate,
		micEnabled:  true,
		micGain:     newGainNode(1.0),
		bgmGain:     newGainNode(1.0),
		monitorGain: newGainNode(0.0),
		player:      &player{},
	}
}

// Initialize acquires the microphone and starts the mix loop. Idempotent: a
// second call on a live graph is a no-op. Must be driven by an explicit
// user action, acquisition prompts for hardware permission.
func (g *Graph) Initialize() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.initialized {
		return nil
	}

	mic, err := g.provider.AcquireMicrophone(SampleRate, channels)
	if err != nil {
		return err
	}

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: SampleRate, Channels: channels},
		"audio", "mixed-audio",
	)
	if err != nil {
		_ = mic.Close()
		return fmt.Errorf("cannot create outbound track, err = %w", err)
	}

	encoder, err := opus.NewEncoder(SampleRate, channels, opus.AppVoIP)
	if err != nil {
		_ = mic.Close()
		return fmt.Errorf("cannot create opus encoder, err = %w", err)
	}

	g.mic = mic
	g.track = track
	g.encoder = encoder
	g.done = make(chan struct{})
	g.initialized = true

	go g.pump(g.done)
	log.Info("audio mix graph initialized")
	return nil
}

// LoadTrack decodes fileBytes and makes it the loaded background track.
// Replaces any previous buffer and rewinds; a playback already in flight
// keeps its old buffer until stopped.
func (g *Graph) LoadTrack(fileBytes []byte) error {
	buf, err := DecodeTrack(fileBytes)
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.player.load(buf)
	g.mu.Unlock()

	log.Infof("background track loaded, duration=%v", buf.Duration())
	return nil
}

func (g *Graph) Play() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.initialized {
		return fmt.Errorf("%w: graph is not initialized", ErrNotReady)
	}
	return g.player.play()
}

func (g *Graph) Stop() {
	g.mu.Lock()
	g.player.stop()
	g.mu.Unlock()
}

func (g *Graph) SetMicGain(v float64) {
	g.mu.Lock()
	g.micGain.setTarget(v)
	g.mu.Unlock()
}

func (g *Graph) SetBgmGain(v float64) {
	g.mu.Lock()
	g.bgmGain.setTarget(v)
	g.mu.Unlock()
}

func (g *Graph) SetMonitor(enabled bool) {
	g.mu.Lock()
	g.monitorOn = enabled
	if enabled {
		g.monitorGain.setTarget(1.0)
	} else {
		g.monitorGain.setTarget(0.0)
	}
	g.mu.Unlock()
}

// SetMicrophoneEnabled mutes the mic contribution without releasing the
// hardware handle. Driven by mic-control broadcasts targeting this user.
func (g *Graph) SetMicrophoneEnabled(enabled bool) {
	g.mu.Lock()
	g.micEnabled = enabled
	g.mu.Unlock()
}

// OutboundStream is the mixed track handed to the media transport. Nil
// until Initialize succeeds.
func (g *Graph) OutboundStream() *webrtc.TrackLocalStaticSample {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.track
}

func (g *Graph) State() MixGraphState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return MixGraphState{
		MicGain:          g.micGain.current(),
		BgmGain:          g.bgmGain.current(),
		MonitorEnabled:   g.monitorOn,
		TrackDuration:    g.player.duration(),
		PlaybackPosition: g.player.position(),
		IsPlaying:        g.player.playing,
	}
}

// Close releases the microphone and stops the mix loop. The graph cannot be
// reused afterwards; the call view creates a fresh one.
func (g *Graph) Close() {
	g.mu.Lock()
	if !g.initialized {
		g.mu.Unlock()
		return
	}
	g.initialized = false
	close(g.done)
	mic := g.mic
	g.mic = nil
	g.track = nil
	g.encoder = nil
	g.player.stop()
	g.mu.Unlock()

	if err := mic.Close(); err != nil {
		log.WithError(err).Warn("cannot release microphone")
	}
	log.Info("audio mix graph closed")
}

type frameResult struct {
	progress bool
	position float64
	duration float64
	ended    bool
}

func (g *Graph) pump(done chan struct{}) {
	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	micFrame := make([]float32, FrameSize)
	bgmFrame := make([]float32, FrameSize)
	mixFrame := make([]float32, FrameSize)
	monFrame := make([]float32, FrameSize)
	pcm := make([]int16, FrameSize)
	encoded := make([]byte, 4000)

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}

		res, track, encoder := g.renderFrame(micFrame, bgmFrame, mixFrame, monFrame)

		if track != nil && encoder != nil {
			for i, s := range mixFrame {
				pcm[i] = int16(clampSample(s) * 32767)
			}
			n, err := encoder.Encode(pcm, encoded)
			if err != nil {
				log.WithError(err).Warn("cannot encode mixed frame")
			} else if err := track.WriteSample(media.Sample{Data: append([]byte(nil), encoded[:n]...), Duration: frameDuration}); err != nil {
				log.WithError(err).Warn("cannot write mixed sample")
			}
		}

		if g.monitor != nil {
			if err := g.monitor.WriteFrame(monFrame); err != nil {
				log.WithError(err).Debug("cannot write monitor frame")
			}
		}

		if g.delegate != nil {
			if res.progress {
				g.delegate.OnPlaybackProgress(res.position, res.duration)
			}
			if res.ended {
				g.delegate.OnPlaybackEnded()
			}
		}
	}
}

// renderFrame produces one frame of the outbound mix and the monitor feed.
// The monitor frame always carries the background track; the mic tap on it
// follows the monitor gain.
func (g *Graph) renderFrame(micFrame, bgmFrame, mixFrame, monFrame []float32) (frameResult, *webrtc.TrackLocalStaticSample, *opus.Encoder) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var res frameResult
	if !g.initialized {
		zero(mixFrame)
		zero(monFrame)
		return res, nil, nil
	}

	if err := g.mic.ReadFrame(micFrame); err != nil {
		if !g.micReadErr {
			g.micReadErr = true
			log.WithError(err).Warn("cannot read microphone frame")
		}
		zero(micFrame)
	} else {
		g.micReadErr = false
	}
	if !g.micEnabled {
		zero(micFrame)
	}

	wasPlaying := g.player.playing
	res.ended = g.player.nextFrame(bgmFrame)

	mg := g.micGain.step(frameDuration)
	bg := g.bgmGain.step(frameDuration)
	mon := g.monitorGain.step(frameDuration)

	for i := range mixFrame {
		mic := micFrame[i] * float32(mg)
		bgm := bgmFrame[i] * float32(bg)
		mixFrame[i] = clampSample(mic + bgm)
		monFrame[i] = clampSample(mic*float32(mon) + bgm)
	}

	if wasPlaying {
		res.progress = true
		res.position = g.player.position()
		res.duration = g.player.duration()
	}
	return res, g.track, g.encoder
}

func clampSample(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
