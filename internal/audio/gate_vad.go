package audio

import (
	"fmt"
	"slices"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"github.com/liuscraft/luca-voice/internal/logging"
)

var (
	vadRates    = []int{8000, 16000, 32000, 48000}
	vadFrameMss = []int{10, 20, 30}
)

type vadDetector interface {
	Process(rate int, frame []byte) (bool, error)
}

// VADGate 基于 WebRTC VAD 的语音检测，帧长必须严格等于检测器要求的长度
type VADGate struct {
	detector   vadDetector
	sampleRate int
	frameBytes int
}

func NewVADGate(sampleRate, frameMs, aggressiveness int) (*VADGate, error) {
	if !slices.Contains(vadRates, sampleRate) {
		return nil, fmt.Errorf("vad: unsupported sample rate %d", sampleRate)
	}
	if !slices.Contains(vadFrameMss, frameMs) {
		return nil, fmt.Errorf("vad: unsupported frame duration %dms", frameMs)
	}
	if aggressiveness < 0 || aggressiveness > 3 {
		return nil, fmt.Errorf("vad: aggressiveness %d out of range", aggressiveness)
	}

	vad, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("vad: create: %w", err)
	}
	if err := vad.SetMode(aggressiveness); err != nil {
		return nil, fmt.Errorf("vad: set mode: %w", err)
	}
	return newVADGate(vad, sampleRate, FrameBytes(sampleRate, 1, frameMs)), nil
}

func newVADGate(detector vadDetector, sampleRate, frameBytes int) *VADGate {
	return &VADGate{detector: detector, sampleRate: sampleRate, frameBytes: frameBytes}
}

func (g *VADGate) IsSpeech(frame Frame) bool {
	if len(frame.Data) != g.frameBytes || frame.Channels > 1 {
		return false
	}
	active, err := g.detector.Process(g.sampleRate, frame.Data)
	if err != nil {
		logging.Debugf("FrameGate: vad process error: %v", err)
		return false
	}
	return active
}
