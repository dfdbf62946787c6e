package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
)

// ErrInvalidBuffer is returned when a SampleBuffer's channels are inconsistent
var ErrInvalidBuffer = errors.New("invalid sample buffer")

// EncodeWAV writes the buffer as a 16-bit PCM WAV stream
func EncodeWAV(w io.WriteSeeker, buf *SampleBuffer) error {
	if len(buf.Channels) != buf.ChannelCount {
		return fmt.Errorf("%w: %d channels, want %d", ErrInvalidBuffer, len(buf.Channels), buf.ChannelCount)
	}
	frames := buf.Frames()
	for c, ch := range buf.Channels {
		if len(ch) != frames {
			return fmt.Errorf("%w: channel %d has %d samples, want %d", ErrInvalidBuffer, c, len(ch), frames)
		}
	}
	data := make([]int, frames*buf.ChannelCount)
	for i := 0; i < frames; i++ {
		for c := 0; c < buf.ChannelCount; c++ {
			data[i*buf.ChannelCount+c] = toInt16(buf.Channels[c][i])
		}
	}

	ib := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: buf.ChannelCount, SampleRate: buf.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}

	enc := wav.NewEncoder(w, buf.SampleRate, 16, buf.ChannelCount, 1)
	if err := enc.Write(ib); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}

// WriteWAVFile encodes the buffer into a new file at path
func WriteWAVFile(path string, buf *SampleBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav file: %w", err)
	}
	if err := EncodeWAV(f, buf); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close wav file: %w", err)
	}
	return nil
}

func toInt16(v float32) int {
	s := int(math.Round(float64(v) * 32768))
	if s > math.MaxInt16 {
		return math.MaxInt16
	}
	if s < math.MinInt16 {
		return math.MinInt16
	}
	return s
}

// WAVDevice "plays" clips by writing each one to its own WAV file.
// Concurrent Play calls never share a file.
type WAVDevice struct {
	dir    string
	logger *slog.Logger
	// OnWritten, if set, is called with the path of every clip written
	OnWritten func(path string)
}

// NewWAVDevice creates a device writing into dir, creating it if needed
func NewWAVDevice(dir string, logger *slog.Logger) (*WAVDevice, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create audio output dir: %w", err)
	}
	return &WAVDevice{dir: dir, logger: logger.With("component", "wav_device")}, nil
}

// Dir returns the output directory
func (d *WAVDevice) Dir() string { return d.dir }

// Play writes the clip to <dir>/clip-<uuid>.wav
func (d *WAVDevice) Play(ctx context.Context, buf *SampleBuffer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(d.dir, "clip-"+uuid.New().String()+".wav")
	if err := WriteWAVFile(path, buf); err != nil {
		return err
	}
	d.logger.Debug("clip written", "path", path, "frames", buf.Frames(), "sample_rate", buf.SampleRate)
	if d.OnWritten != nil {
		d.OnWritten(path)
	}
	return nil
}
