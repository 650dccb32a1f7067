package audiomix

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
)

// Buffer is a decoded background track: mono float32 PCM at SampleRate.
type Buffer struct {
	samples []float32
}

func (b *Buffer) Duration() time.Duration {
	return time.Duration(len(b.samples)) * time.Second / SampleRate
}

// DecodeTrack decodes a user-picked audio file into a Buffer. There is no
// format allow-list; the container is sniffed and anything neither WAV nor
// MP3 fails with ErrDecode at decode time.
func DecodeTrack(fileBytes []byte) (*Buffer, error) {
	switch {
	case bytes.HasPrefix(fileBytes, []byte("RIFF")):
		return decodeWAV(fileBytes)
	case looksLikeMP3(fileBytes):
		return decodeMP3(fileBytes)
	default:
		return nil, fmt.Errorf("%w: unrecognized container", ErrDecode)
	}
}

func looksLikeMP3(data []byte) bool {
	if bytes.HasPrefix(data, []byte("ID3")) {
		return true
	}
	// bare frame sync
	return len(data) > 1 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

func decodeWAV(data []byte) (*Buffer, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%w: malformed wav", ErrDecode)
	}
	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if pcm.Format == nil || pcm.Format.NumChannels < 1 || pcm.Format.SampleRate < 1 {
		return nil, fmt.Errorf("%w: wav without format chunk", ErrDecode)
	}

	bitDepth := pcm.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float32(int64(1) << (bitDepth - 1))
	numChannels := pcm.Format.NumChannels

	frames := len(pcm.Data) / numChannels
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for ch := 0; ch < numChannels; ch++ {
			sum += float32(pcm.Data[i*numChannels+ch]) / scale
		}
		mono[i] = sum / float32(numChannels)
	}

	return &Buffer{samples: resample(mono, pcm.Format.SampleRate, SampleRate)}, nil
}

func decodeMP3(data []byte) (*Buffer, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	raw, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	// go-mp3 always yields 16-bit little-endian stereo
	frames := len(raw) / 4
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		left := int16(uint16(raw[i*4]) | uint16(raw[i*4+1])<<8)
		right := int16(uint16(raw[i*4+2]) | uint16(raw[i*4+3])<<8)
		mono[i] = (float32(left) + float32(right)) / 2 / 32768
	}

	return &Buffer{samples: resample(mono, d.SampleRate(), SampleRate)}, nil
}

// resample does linear interpolation; good enough for background music.
func resample(in []float32, from, to int) []float32 {
	if from == to || len(in) == 0 {
		return in
	}
	n := int(int64(len(in)) * int64(to) / int64(from))
	out := make([]float32, n)
	ratio := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = in[j]*(1-frac) + in[j+1]*frac
	}
	return out
}
