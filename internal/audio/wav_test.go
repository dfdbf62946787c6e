package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/wav"
)

func TestWriteWAVFile(t *testing.T) {
	buf, err := DecodePCM16(encodePCM16([]int16{0, 16384, -16384, 32767}), 24000, 1)
	if err != nil {
		t.Fatalf("DecodePCM16() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.wav")
	if err := WriteWAVFile(path, buf); err != nil {
		t.Fatalf("WriteWAVFile() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("written file is not a valid WAV")
	}
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer() error = %v", err)
	}
	if pcm.Format.SampleRate != 24000 {
		t.Errorf("SampleRate = %d; want 24000", pcm.Format.SampleRate)
	}
	want := []int{0, 16384, -16384, 32767}
	if len(pcm.Data) != len(want) {
		t.Fatalf("len(Data) = %d; want %d", len(pcm.Data), len(want))
	}
	for i, w := range want {
		if pcm.Data[i] != w {
			t.Errorf("Data[%d] = %d; want %d", i, pcm.Data[i], w)
		}
	}
}

func TestWAVDevice_Play(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "clips")
	dev, err := NewWAVDevice(dir, nil)
	if err != nil {
		t.Fatalf("NewWAVDevice() error = %v", err)
	}
	var written []string
	dev.OnWritten = func(path string) { written = append(written, path) }

	buf, _ := DecodePCM16(encodePCM16([]int16{1, 2, 3}), 24000, 1)
	for i := 0; i < 2; i++ {
		if err := dev.Play(context.Background(), buf); err != nil {
			t.Fatalf("Play() error = %v", err)
		}
	}

	if len(written) != 2 || written[0] == written[1] {
		t.Fatalf("written = %v; want two distinct files", written)
	}
	for _, p := range written {
		if !strings.HasPrefix(filepath.Base(p), "clip-") {
			t.Errorf("file %q missing clip- prefix", p)
		}
		if _, err := os.Stat(p); err != nil {
			t.Errorf("Stat(%q) error = %v", p, err)
		}
	}
}

func TestWAVDevice_CanceledContext(t *testing.T) {
	dev, err := NewWAVDevice(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewWAVDevice() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf, _ := DecodePCM16("", 24000, 1)
	if err := dev.Play(ctx, buf); err == nil {
		t.Error("Play() with canceled context should fail")
	}
}

func TestWriteWAVFile_RemovesFileOnEncodeError(t *testing.T) {
	buf := &SampleBuffer{
		SampleRate:   24000,
		ChannelCount: 2,
		Channels:     [][]float32{{0, 0.5}},
	}

	path := filepath.Join(t.TempDir(), "broken.wav")
	err := WriteWAVFile(path, buf)
	if !errors.Is(err, ErrInvalidBuffer) {
		t.Fatalf("WriteWAVFile() error = %v; want ErrInvalidBuffer", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Errorf("partial file left behind: stat error = %v", statErr)
	}
}

func TestEncodeWAV_RejectsRaggedChannels(t *testing.T) {
	buf := &SampleBuffer{
		SampleRate:   24000,
		ChannelCount: 2,
		Channels:     [][]float32{{0, 0.5}, {0}},
	}
	f, err := os.Create(filepath.Join(t.TempDir(), "ragged.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := EncodeWAV(f, buf); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("EncodeWAV() error = %v; want ErrInvalidBuffer", err)
	}
}
