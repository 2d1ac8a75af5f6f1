package audio

import (
	"math"
	"strings"

	"github.com/liuscraft/luca-voice/internal/logging"
)

const (
	DefaultNoiseThreshold = 0.01
	DefaultVariationFloor = 0.005
)

// Gate 判断一帧是否包含语音
type Gate interface {
	IsSpeech(frame Frame) bool
}

// GateConfig selects and tunes a Gate.
type GateConfig struct {
	Mode              string
	SampleRate        int
	FrameMs           int
	VADAggressiveness int
	NoiseThreshold    float64
	VariationFloor    float64
}

// NewGate 按配置创建 Gate；vad / auto 模式下 VAD 不可用时回退到能量检测
func NewGate(cfg GateConfig) Gate {
	energy := NewEnergyGate(cfg.NoiseThreshold, cfg.VariationFloor)
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "energy" {
		logging.Infof("FrameGate: energy heuristic (noise=%.3f, variation=%.3f)", energy.NoiseThreshold, energy.VariationFloor)
		return energy
	}

	vad, err := NewVADGate(cfg.SampleRate, cfg.FrameMs, cfg.VADAggressiveness)
	if err != nil {
		logging.Warnf("FrameGate: VAD unavailable (%v), falling back to energy heuristic", err)
		return energy
	}
	logging.Infof("FrameGate: WebRTC VAD (mode=%d, frame=%dms)", cfg.VADAggressiveness, cfg.FrameMs)
	return vad
}

// EnergyGate RMS 能量 + 方差双阈值；恒定电平的嗡声能通过能量检测但方差太小
type EnergyGate struct {
	NoiseThreshold float64
	VariationFloor float64
}

func NewEnergyGate(noiseThreshold, variationFloor float64) *EnergyGate {
	if noiseThreshold <= 0 {
		noiseThreshold = DefaultNoiseThreshold
	}
	if variationFloor <= 0 {
		variationFloor = DefaultVariationFloor
	}
	return &EnergyGate{NoiseThreshold: noiseThreshold, VariationFloor: variationFloor}
}

func (g *EnergyGate) IsSpeech(frame Frame) bool {
	if len(frame.Data) < 2 {
		return false
	}
	rms, std := Energy(frame.Data)
	if rms < g.NoiseThreshold {
		return false
	}
	return std >= g.VariationFloor
}

// Energy returns RMS and standard deviation of the int16 samples, both
// normalized by 32768.
func Energy(data []byte) (rms, std float64) {
	count := len(data) / 2
	if count == 0 {
		return 0, 0
	}
	var sum, sumSq float64
	for i := 0; i < count; i++ {
		sample := float64(int16(data[i*2]) | int16(data[i*2+1])<<8)
		sum += sample
		sumSq += sample * sample
	}
	n := float64(count)
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(sumSq/n) / 32768.0, math.Sqrt(variance) / 32768.0
}
