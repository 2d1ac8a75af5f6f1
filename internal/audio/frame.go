package audio

import (
	"encoding/binary"
	"time"
)

// Frame 一帧定长 PCM 数据（int16 小端）
type Frame struct {
	Data       []byte
	SampleRate int
	Channels   int
	Time       time.Time
}

// Duration returns the playback length of the frame.
func (f Frame) Duration() time.Duration {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	samples := len(f.Data) / 2 / f.Channels
	return time.Duration(samples) * time.Second / time.Duration(f.SampleRate)
}

// FrameBytes 计算给定时长一帧的字节数
func FrameBytes(sampleRate, channels, frameMs int) int {
	return sampleRate * frameMs / 1000 * channels * 2
}

// Samples decodes little-endian int16 PCM. A trailing odd byte is ignored.
func Samples(data []byte) []int16 {
	count := len(data) / 2
	out := make([]int16, count)
	for i := 0; i < count; i++ {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return out
}

// PCMBytes encodes samples as little-endian int16 PCM.
func PCMBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, v := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}
