package audio

import (
	"errors"
	"math"
	"testing"
)

func makePCM(sample int16, count int) []byte {
	samples := make([]int16, count)
	for i := range samples {
		samples[i] = sample
	}
	return PCMBytes(samples)
}

func makeSine(amplitude float64, freq float64, sampleRate, count int) []byte {
	samples := make([]int16, count)
	for i := range samples {
		samples[i] = int16(amplitude * 32767 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return PCMBytes(samples)
}

func TestEnergyGate(t *testing.T) {
	gate := NewEnergyGate(0, 0)

	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"empty", nil, false},
		{"digital silence", makePCM(0, 480), false},
		{"quiet noise floor", makeSine(0.005, 440, 16000, 480), false},
		{"constant hum", makePCM(8000, 480), false},
		{"voiced tone", makeSine(0.3, 220, 16000, 480), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gate.IsSpeech(Frame{Data: tt.data, SampleRate: 16000, Channels: 1})
			if got != tt.want {
				t.Fatalf("IsSpeech() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnergy(t *testing.T) {
	rms, std := Energy(makePCM(16384, 100))
	if math.Abs(rms-0.5) > 1e-6 {
		t.Fatalf("rms = %v, want 0.5", rms)
	}
	if std > 1e-9 {
		t.Fatalf("std of constant signal = %v, want 0", std)
	}
}

type fakeDetector struct {
	calls  int
	active bool
	err    error
}

func (d *fakeDetector) Process(rate int, frame []byte) (bool, error) {
	d.calls++
	return d.active, d.err
}

func TestVADGateRequiresExactLength(t *testing.T) {
	det := &fakeDetector{active: true}
	gate := newVADGate(det, 16000, FrameBytes(16000, 1, 30))

	if gate.IsSpeech(Frame{Data: make([]byte, 100), SampleRate: 16000, Channels: 1}) {
		t.Fatal("short frame must be treated as silence")
	}
	if det.calls != 0 {
		t.Fatalf("detector should not be called for wrong length, got %d calls", det.calls)
	}

	if !gate.IsSpeech(Frame{Data: make([]byte, 960), SampleRate: 16000, Channels: 1}) {
		t.Fatal("expected detector verdict for valid frame")
	}
}

func TestVADGateDetectorError(t *testing.T) {
	det := &fakeDetector{active: true, err: errors.New("boom")}
	gate := newVADGate(det, 16000, 960)
	if gate.IsSpeech(Frame{Data: make([]byte, 960), SampleRate: 16000, Channels: 1}) {
		t.Fatal("detector error must count as silence")
	}
}

func TestNewVADGateRejectsUnsupportedFormats(t *testing.T) {
	if _, err := NewVADGate(44100, 30, 2); err == nil {
		t.Fatal("expected error for 44.1kHz")
	}
	if _, err := NewVADGate(16000, 25, 2); err == nil {
		t.Fatal("expected error for 25ms frames")
	}
	if _, err := NewVADGate(16000, 30, 5); err == nil {
		t.Fatal("expected error for aggressiveness 5")
	}
}

func TestNewGateEnergyMode(t *testing.T) {
	gate := NewGate(GateConfig{Mode: "energy", SampleRate: 16000, FrameMs: 30})
	if _, ok := gate.(*EnergyGate); !ok {
		t.Fatalf("expected *EnergyGate, got %T", gate)
	}
}

func TestNewGateFallsBackToEnergy(t *testing.T) {
	gate := NewGate(GateConfig{Mode: "vad", SampleRate: 44100, FrameMs: 30})
	if _, ok := gate.(*EnergyGate); !ok {
		t.Fatalf("expected fallback to *EnergyGate, got %T", gate)
	}
}
