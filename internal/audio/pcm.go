// Package audio decodes synthesized speech and hands it to an output device.
package audio

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
)

// Decoding errors
var (
	ErrMalformedTransport = errors.New("malformed audio transport")
	ErrTruncatedAudio     = errors.New("truncated audio")
)

// MalformedTransportError reports a transport string that is not base64
type MalformedTransportError struct {
	Err error
}

func (e *MalformedTransportError) Error() string {
	return fmt.Sprintf("%s: %v", ErrMalformedTransport, e.Err)
}

func (e *MalformedTransportError) Unwrap() error { return e.Err }

func (e *MalformedTransportError) Is(target error) bool { return target == ErrMalformedTransport }

// TruncatedAudioError reports a payload that does not split into whole frames
type TruncatedAudioError struct {
	ByteLen      int
	ChannelCount int
}

func (e *TruncatedAudioError) Error() string {
	if e.ByteLen%2 != 0 {
		return fmt.Sprintf("%s: odd byte length %d", ErrTruncatedAudio, e.ByteLen)
	}
	return fmt.Sprintf("%s: %d samples not divisible by %d channels", ErrTruncatedAudio, e.ByteLen/2, e.ChannelCount)
}

func (e *TruncatedAudioError) Is(target error) bool { return target == ErrTruncatedAudio }

// SampleBuffer holds de-interleaved samples normalized to [-1, 1].
// Every channel has the same length.
type SampleBuffer struct {
	SampleRate   int
	ChannelCount int
	Channels     [][]float32
}

// Frames returns the number of samples per channel
func (b *SampleBuffer) Frames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the clip length in seconds
func (b *SampleBuffer) Duration() float64 {
	return float64(b.Frames()) / float64(b.SampleRate)
}

// DecodePCM16 decodes a base64 transport string of interleaved little-endian
// signed 16-bit samples. Padded standard base64 is tried first, unpadded second.
// Panics if sampleRate or channelCount is below 1.
func DecodePCM16(transport string, sampleRate, channelCount int) (*SampleBuffer, error) {
	if sampleRate < 1 {
		panic(fmt.Sprintf("audio: invalid sample rate %d", sampleRate))
	}
	if channelCount < 1 {
		panic(fmt.Sprintf("audio: invalid channel count %d", channelCount))
	}

	raw, err := base64.StdEncoding.DecodeString(transport)
	if err != nil {
		var rawErr error
		raw, rawErr = base64.RawStdEncoding.DecodeString(transport)
		if rawErr != nil {
			return nil, &MalformedTransportError{Err: err}
		}
	}

	if len(raw)%2 != 0 {
		return nil, &TruncatedAudioError{ByteLen: len(raw), ChannelCount: channelCount}
	}
	samples := len(raw) / 2
	if samples%channelCount != 0 {
		return nil, &TruncatedAudioError{ByteLen: len(raw), ChannelCount: channelCount}
	}

	frames := samples / channelCount
	channels := make([][]float32, channelCount)
	for c := range channels {
		channels[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < channelCount; c++ {
			off := (i*channelCount + c) * 2
			v := int16(binary.LittleEndian.Uint16(raw[off:]))
			channels[c][i] = clamp(float32(v) / 32768.0)
		}
	}

	return &SampleBuffer{
		SampleRate:   sampleRate,
		ChannelCount: channelCount,
		Channels:     channels,
	}, nil
}

func clamp(v float32) float32 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
