package audio

import (
	"testing"
	"time"
)

func TestResampleSameRateCopies(t *testing.T) {
	in := []int16{1, 2, 3}
	out := Resample(in, 16000, 16000, 1)
	if len(out) != 3 || out[2] != 3 {
		t.Fatalf("unexpected output %v", out)
	}
	out[0] = 99
	if in[0] != 1 {
		t.Fatal("Resample must not alias its input")
	}
}

func TestResampleDownsample(t *testing.T) {
	tests := []struct {
		name     string
		inRate   int
		outRate  int
		channels int
		in       int
		want     int
	}{
		{"48k to 16k mono", 48000, 16000, 1, 4800, 1600},
		{"44.1k to 16k mono", 44100, 16000, 1, 441, 160},
		{"8k to 16k mono", 8000, 16000, 1, 80, 160},
		{"48k to 16k stereo", 48000, 16000, 2, 960, 320},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Resample(make([]int16, tt.in), tt.inRate, tt.outRate, tt.channels)
			if len(out) != tt.want {
				t.Fatalf("len = %d, want %d", len(out), tt.want)
			}
		})
	}
}

func TestResampleInvalid(t *testing.T) {
	if out := Resample([]int16{1}, 0, 16000, 1); out != nil {
		t.Fatalf("expected nil for invalid rate, got %v", out)
	}
}

func TestFramerCarriesRemainder(t *testing.T) {
	f := NewFramer(16000, 1, 10) // 160 samples per frame
	var frames []Frame
	emit := func(fr Frame) { frames = append(frames, fr) }

	f.Write(make([]int16, 100), emit)
	if len(frames) != 0 || f.Pending() != 100 {
		t.Fatalf("expected no frame yet, pending=%d", f.Pending())
	}
	f.Write(make([]int16, 250), emit)
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if f.Pending() != 30 {
		t.Fatalf("pending = %d, want 30", f.Pending())
	}
	if len(frames[0].Data) != 320 {
		t.Fatalf("frame bytes = %d, want 320", len(frames[0].Data))
	}
	if frames[0].Duration() != 10*time.Millisecond {
		t.Fatalf("frame duration = %v", frames[0].Duration())
	}
}

func TestFrameBytes(t *testing.T) {
	if got := FrameBytes(16000, 1, 30); got != 960 {
		t.Fatalf("FrameBytes = %d, want 960", got)
	}
	if got := FrameBytes(48000, 2, 10); got != 1920 {
		t.Fatalf("FrameBytes = %d, want 1920", got)
	}
}
