package audio

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"testing/quick"
)

// encodePCM16 is the inverse of DecodePCM16 for test fixtures
func encodePCM16(interleaved []int16) string {
	raw := make([]byte, len(interleaved)*2)
	for i, s := range interleaved {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func TestDecodePCM16(t *testing.T) {
	data := encodePCM16([]int16{0, 16384, -32768, 32767})

	buf, err := DecodePCM16(data, 24000, 1)
	if err != nil {
		t.Fatalf("DecodePCM16() error = %v", err)
	}
	if buf.SampleRate != 24000 || buf.ChannelCount != 1 {
		t.Errorf("SampleRate/ChannelCount = %d/%d; want 24000/1", buf.SampleRate, buf.ChannelCount)
	}
	want := []float32{0, 0.5, -1, 32767.0 / 32768.0}
	if buf.Frames() != len(want) {
		t.Fatalf("Frames() = %d; want %d", buf.Frames(), len(want))
	}
	for i, w := range want {
		if buf.Channels[0][i] != w {
			t.Errorf("Channels[0][%d] = %v; want %v", i, buf.Channels[0][i], w)
		}
	}
}

func TestDecodePCM16_Stereo(t *testing.T) {
	data := encodePCM16([]int16{100, -100, 200, -200, 300, -300})

	buf, err := DecodePCM16(data, 48000, 2)
	if err != nil {
		t.Fatalf("DecodePCM16() error = %v", err)
	}
	if buf.Frames() != 3 {
		t.Fatalf("Frames() = %d; want 3", buf.Frames())
	}
	if buf.Channels[0][1] != 200.0/32768.0 {
		t.Errorf("left[1] = %v; want %v", buf.Channels[0][1], 200.0/32768.0)
	}
	if buf.Channels[1][2] != -300.0/32768.0 {
		t.Errorf("right[2] = %v; want %v", buf.Channels[1][2], -300.0/32768.0)
	}
}

func TestDecodePCM16_Empty(t *testing.T) {
	buf, err := DecodePCM16("", 24000, 1)
	if err != nil {
		t.Fatalf("DecodePCM16() error = %v", err)
	}
	if buf.Frames() != 0 {
		t.Errorf("Frames() = %d; want 0", buf.Frames())
	}
}

func TestDecodePCM16_UnpaddedFallback(t *testing.T) {
	padded := encodePCM16([]int16{1, 2, 3})
	unpadded := base64.RawStdEncoding.EncodeToString([]byte{1, 0, 2, 0, 3, 0})
	if padded == unpadded {
		t.Fatal("fixture should differ in padding")
	}

	buf, err := DecodePCM16(unpadded, 24000, 1)
	if err != nil {
		t.Fatalf("DecodePCM16() error = %v", err)
	}
	if buf.Frames() != 3 {
		t.Errorf("Frames() = %d; want 3", buf.Frames())
	}
}

func TestDecodePCM16_Errors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		channels int
		want     error
	}{
		{"not base64", "!!!not-base64!!!", 1, ErrMalformedTransport},
		{"odd byte length", base64.StdEncoding.EncodeToString([]byte{1, 2, 3}), 1, ErrTruncatedAudio},
		{"samples not divisible", encodePCM16([]int16{1, 2, 3}), 2, ErrTruncatedAudio},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePCM16(tt.data, 24000, tt.channels)
			if !errors.Is(err, tt.want) {
				t.Errorf("DecodePCM16() error = %v; want %v", err, tt.want)
			}
		})
	}
}

func TestDecodePCM16_TypedErrors(t *testing.T) {
	_, err := DecodePCM16(encodePCM16([]int16{1, 2, 3}), 24000, 2)
	var truncated *TruncatedAudioError
	if !errors.As(err, &truncated) {
		t.Fatalf("error = %T; want *TruncatedAudioError", err)
	}
	if truncated.ChannelCount != 2 || truncated.ByteLen != 6 {
		t.Errorf("TruncatedAudioError = %+v", truncated)
	}

	_, err = DecodePCM16("@@@@", 24000, 1)
	var malformed *MalformedTransportError
	if !errors.As(err, &malformed) {
		t.Fatalf("error = %T; want *MalformedTransportError", err)
	}
}

func TestDecodePCM16_InvalidParamsPanic(t *testing.T) {
	cases := []struct {
		name           string
		rate, channels int
	}{
		{"zero channels", 24000, 0},
		{"zero sample rate", 0, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("DecodePCM16() should panic")
				}
			}()
			DecodePCM16("", c.rate, c.channels)
		})
	}
}

func TestDecodePCM16_RoundTrip(t *testing.T) {
	f := func(samples []int16, stereo bool) bool {
		channels := 1
		if stereo {
			channels = 2
			samples = samples[:len(samples)-len(samples)%2]
		}
		buf, err := DecodePCM16(encodePCM16(samples), 24000, channels)
		if err != nil {
			return false
		}
		if buf.Frames()*channels != len(samples) {
			return false
		}
		for i, s := range samples {
			got := buf.Channels[i%channels][i/channels]
			if got < -1 || got > 1 {
				return false
			}
			if math.Abs(float64(got)-float64(s)/32768.0) > 1.0/32768.0 {
				return false
			}
		}
		return true
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}
