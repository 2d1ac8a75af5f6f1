package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/liuscraft/luca-voice/internal/audio"
	"github.com/liuscraft/luca-voice/internal/logging"
)

// MicrophoneConfig 麦克风采集参数
type MicrophoneConfig struct {
	SampleRate int
	Channels   int
	FrameMs    int
	// CaptureRate is the device rate; frames are resampled to SampleRate.
	// Zero means capture at SampleRate.
	CaptureRate int
	QueueSize   int
	Policy      audio.Policy
	// Device selects an input device by case-insensitive substring.
	Device string
	// HighLatency uses the device's high input latency (Bluetooth headsets).
	HighLatency bool
}

type audioStream interface {
	Start() error
	Stop() error
	Close() error
}

// host 抽象 PortAudio 的设备枚举和开流，便于测试
type host interface {
	Devices() ([]*portaudio.DeviceInfo, error)
	DefaultInputDevice() (*portaudio.DeviceInfo, error)
	OpenStream(params portaudio.StreamParameters, callback func(in []int16)) (audioStream, error)
}

type portaudioHost struct{}

func (portaudioHost) Devices() ([]*portaudio.DeviceInfo, error) {
	return portaudio.Devices()
}

func (portaudioHost) DefaultInputDevice() (*portaudio.DeviceInfo, error) {
	return portaudio.DefaultInputDevice()
}

func (portaudioHost) OpenStream(params portaudio.StreamParameters, callback func(in []int16)) (audioStream, error) {
	return portaudio.OpenStream(params, callback)
}

// Microphone 基于 PortAudio 回调的麦克风音频源
// 回调线程只做重采样、切帧和非阻塞入队
type Microphone struct {
	cfg    MicrophoneConfig
	host   host
	queue  *audio.Queue
	framer *audio.Framer

	mu        sync.Mutex
	stream    audioStream
	device    *portaudio.DeviceInfo
	closeOnce sync.Once
}

// NewMicrophone 创建麦克风源。PortAudio 需要调用方先 Initialize
func NewMicrophone(cfg MicrophoneConfig) (*Microphone, error) {
	return newMicrophone(cfg, portaudioHost{})
}

func newMicrophone(cfg MicrophoneConfig, h host) (*Microphone, error) {
	if cfg.Policy == audio.PolicyBlock {
		return nil, errors.New("microphone: block queue policy would stall the audio callback")
	}
	if cfg.Channels != 1 {
		return nil, fmt.Errorf("microphone: %d channels requested, the pipeline takes mono only", cfg.Channels)
	}
	if cfg.SampleRate <= 0 || cfg.FrameMs <= 0 {
		return nil, fmt.Errorf("microphone: invalid format %dHz/%dch/%dms", cfg.SampleRate, cfg.Channels, cfg.FrameMs)
	}
	if cfg.CaptureRate <= 0 {
		cfg.CaptureRate = cfg.SampleRate
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 50
	}
	return &Microphone{
		cfg:    cfg,
		host:   h,
		queue:  audio.NewQueue(cfg.QueueSize, cfg.Policy),
		framer: audio.NewFramer(cfg.SampleRate, cfg.Channels, cfg.FrameMs),
	}, nil
}

// Open 选择设备、打开并启动采集流
func (m *Microphone) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream != nil {
		return nil
	}

	dev, err := selectDevice(m.host, m.cfg)
	if err != nil {
		return err
	}

	latency := dev.DefaultLowInputLatency
	latencyMode := "low"
	if m.cfg.HighLatency {
		latency = dev.DefaultHighInputLatency
		latencyMode = "high"
	}
	logging.Infof("Microphone: device=%s, %s latency=%.1fms, capture=%dHz -> %dHz",
		dev.Name, latencyMode, latency.Seconds()*1000, m.cfg.CaptureRate, m.cfg.SampleRate)

	stream, err := m.host.OpenStream(streamParams(dev, m.cfg, latency), m.onSamples)
	if err != nil {
		logging.Errorf("Microphone: failed to open stream: %v", err)
		return audio.StreamFailure(dev.Name, err)
	}
	if err := stream.Start(); err != nil {
		logging.Errorf("Microphone: failed to start stream: %v", err)
		stream.Close()
		return audio.StreamFailure(dev.Name, err)
	}

	m.stream = stream
	m.device = dev
	logging.Infof("Microphone: stream started (frame=%dms, queue=%d, policy=%s)", m.cfg.FrameMs, m.cfg.QueueSize, m.cfg.Policy)
	return nil
}

func streamParams(dev *portaudio.DeviceInfo, cfg MicrophoneConfig, latency time.Duration) portaudio.StreamParameters {
	return portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: cfg.Channels,
			Latency:  latency,
		},
		SampleRate:      float64(cfg.CaptureRate),
		FramesPerBuffer: cfg.CaptureRate * cfg.FrameMs / 1000,
	}
}

// onSamples runs on the PortAudio thread and must never block.
func (m *Microphone) onSamples(in []int16) {
	now := time.Now()
	samples := in
	if m.cfg.CaptureRate != m.cfg.SampleRate {
		samples = audio.Resample(in, m.cfg.CaptureRate, m.cfg.SampleRate, m.cfg.Channels)
	}
	m.framer.Write(samples, func(f audio.Frame) {
		f.Time = now
		m.queue.Push(f)
	})
}

func (m *Microphone) Frames() <-chan audio.Frame {
	return m.queue.Frames()
}

// Dropped reports frames evicted because the consumer fell behind.
func (m *Microphone) Dropped() int64 {
	return m.queue.Dropped()
}

// Device returns the selected device name once opened.
func (m *Microphone) Device() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.device == nil {
		return ""
	}
	return m.device.Name
}

// Close 停止采集并关闭帧通道
func (m *Microphone) Close() error {
	var err error
	m.closeOnce.Do(func() {
		logging.Infof("Microphone: closing...")
		m.mu.Lock()
		stream := m.stream
		m.mu.Unlock()
		if stream != nil {
			if stopErr := stream.Stop(); stopErr != nil {
				logging.Errorf("Microphone: error stopping stream: %v", stopErr)
			}
			if closeErr := stream.Close(); closeErr != nil {
				logging.Errorf("Microphone: error closing stream: %v", closeErr)
				err = closeErr
			}
		}
		m.queue.Close()
		logging.Infof("Microphone: closed (dropped=%d)", m.queue.Dropped())
	})
	return err
}

// SelectDevice resolves the input device the microphone would use.
func SelectDevice(cfg MicrophoneConfig) (*portaudio.DeviceInfo, error) {
	if cfg.CaptureRate <= 0 {
		cfg.CaptureRate = cfg.SampleRate
	}
	return selectDevice(portaudioHost{}, cfg)
}

// InputDevices 列出所有带输入通道的设备
func InputDevices() ([]*portaudio.DeviceInfo, error) {
	return inputDevices(portaudioHost{})
}

// Probe opens and immediately closes a throwaway stream on dev.
func Probe(dev *portaudio.DeviceInfo, cfg MicrophoneConfig) error {
	if cfg.CaptureRate <= 0 {
		cfg.CaptureRate = cfg.SampleRate
	}
	return probe(portaudioHost{}, dev, cfg)
}

func inputDevices(h host) ([]*portaudio.DeviceInfo, error) {
	devices, err := h.Devices()
	if err != nil {
		return nil, err
	}
	var inputs []*portaudio.DeviceInfo
	for _, dev := range devices {
		if dev != nil && dev.MaxInputChannels > 0 {
			inputs = append(inputs, dev)
		}
	}
	return inputs, nil
}

// selectDevice 设备选择顺序：指定名称 > 系统默认输入 > 第一个能成功开流的输入设备 > 第一个输入设备
func selectDevice(h host, cfg MicrophoneConfig) (*portaudio.DeviceInfo, error) {
	if cfg.Device != "" {
		inputs, err := inputDevices(h)
		if err != nil {
			return nil, audio.NoDevice(cfg.Device, err)
		}
		want := strings.ToLower(cfg.Device)
		for _, dev := range inputs {
			if strings.Contains(strings.ToLower(dev.Name), want) {
				logging.Infof("Microphone: found device %q matching %q", dev.Name, cfg.Device)
				return dev, nil
			}
		}
		return nil, audio.NoDevice(cfg.Device, fmt.Errorf("no input device matches %q", cfg.Device))
	}

	if dev, err := h.DefaultInputDevice(); err == nil && dev != nil && dev.MaxInputChannels > 0 {
		return dev, nil
	} else if err != nil {
		logging.Warnf("Microphone: no default input device: %v", err)
	}

	inputs, err := inputDevices(h)
	if err != nil {
		return nil, audio.NoDevice("", err)
	}
	if len(inputs) == 0 {
		return nil, audio.NoDevice("", errors.New("no device exposes input channels"))
	}
	for _, dev := range inputs {
		if err := probe(h, dev, cfg); err != nil {
			logging.Debugf("Microphone: probe %q failed: %v", dev.Name, err)
			continue
		}
		logging.Infof("Microphone: using first working input %q", dev.Name)
		return dev, nil
	}
	logging.Warnf("Microphone: no input device passed the probe, trying %q", inputs[0].Name)
	return inputs[0], nil
}

func probe(h host, dev *portaudio.DeviceInfo, cfg MicrophoneConfig) error {
	stream, err := h.OpenStream(streamParams(dev, cfg, dev.DefaultLowInputLatency), func([]int16) {})
	if err != nil {
		return err
	}
	return stream.Close()
}
