// audiodiag 列出输入设备、检查设备选择，并可试录一段音频统计语音帧比例
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/liuscraft/luca-voice/internal/audio"
	"github.com/liuscraft/luca-voice/internal/audio/source"
	"github.com/liuscraft/luca-voice/internal/config"
	"github.com/liuscraft/luca-voice/internal/logging"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "config file path")
	device := flag.String("device", "", "input device name substring; overrides config")
	listen := flag.Int("listen", 0, "record for N seconds and report gate statistics")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if v := strings.TrimSpace(*device); v != "" {
		cfg.Audio.InputDevice = v
	}
	if err := logging.Init(logging.Config{Level: "warn", Format: cfg.Logging.Format}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	fmt.Println("=== PortAudio Input Device Diagnostics ===")
	fmt.Println()

	if err := portaudio.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize PortAudio: %v\n", err)
		os.Exit(1)
	}
	defer portaudio.Terminate()

	micCfg := micConfig(cfg)
	listDevices(micCfg)

	selected, err := source.SelectDevice(micCfg)
	if err != nil {
		fmt.Printf("❌ No usable input device: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Selected input: %s\n\n", selected.Name)
	printRecommendation(selected, cfg.Audio.SampleRate)

	if *listen > 0 {
		runListenTest(cfg, micCfg, time.Duration(*listen)*time.Second)
	}
}

func micConfig(cfg *config.AppConfig) source.MicrophoneConfig {
	return source.MicrophoneConfig{
		SampleRate:  cfg.Audio.SampleRate,
		Channels:    cfg.Audio.Channels,
		FrameMs:     cfg.Audio.FrameMs,
		CaptureRate: cfg.Audio.CaptureRate,
		QueueSize:   cfg.Audio.QueueSize,
		Policy:      audio.PolicyDropOldest,
		Device:      cfg.Audio.InputDevice,
		HighLatency: cfg.Audio.HighLatency,
	}
}

func listDevices(micCfg source.MicrophoneConfig) {
	defaultInput, err := portaudio.DefaultInputDevice()
	if err != nil {
		fmt.Printf("Default Input Device: (error: %v)\n", err)
	} else {
		fmt.Printf("Default Input Device: %s\n", defaultInput.Name)
	}
	fmt.Println()

	inputs, err := source.InputDevices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get devices: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("=== Input Devices (%d) ===\n\n", len(inputs))

	for i, dev := range inputs {
		marker := ""
		if defaultInput != nil && dev.Name == defaultInput.Name {
			marker = " [DEFAULT INPUT]"
		}
		if isBluetooth(dev.Name) {
			marker += " 🎧 (Bluetooth?)"
		}

		probe := "✅ opens"
		if err := source.Probe(dev, micCfg); err != nil {
			probe = fmt.Sprintf("❌ %v", err)
		}

		fmt.Printf("[%d] %s%s\n", i, dev.Name, marker)
		fmt.Printf("    Max Input Channels:  %d\n", dev.MaxInputChannels)
		fmt.Printf("    Default Sample Rate: %.0f Hz\n", dev.DefaultSampleRate)
		fmt.Printf("    Input Latency:  Low=%.1fms, High=%.1fms\n",
			dev.DefaultLowInputLatency.Seconds()*1000,
			dev.DefaultHighInputLatency.Seconds()*1000)
		fmt.Printf("    Probe at %d Hz: %s\n", captureRate(micCfg), probe)
		fmt.Println()
	}
}

func captureRate(c source.MicrophoneConfig) int {
	if c.CaptureRate > 0 {
		return c.CaptureRate
	}
	return c.SampleRate
}

func isBluetooth(name string) bool {
	name = strings.ToLower(name)
	for _, hint := range []string{"bluetooth", "airpods", "buds", "wireless", "headset"} {
		if strings.Contains(name, hint) {
			return true
		}
	}
	return false
}

type audioSuggestion struct {
	InputDevice string `json:"input_device"`
	CaptureRate int    `json:"capture_rate,omitempty"`
	HighLatency bool   `json:"high_latency"`
}

func printRecommendation(dev *portaudio.DeviceInfo, sampleRate int) {
	s := audioSuggestion{
		InputDevice: dev.Name,
		HighLatency: dev.DefaultHighInputLatency > 50*time.Millisecond,
	}
	if rate := int(dev.DefaultSampleRate); rate > 0 && rate != sampleRate {
		s.CaptureRate = rate
	}
	out, _ := json.MarshalIndent(map[string]audioSuggestion{"audio": s}, "", "  ")
	fmt.Println("=== Recommended audio config ===")
	fmt.Println(string(out))
	fmt.Println()
	if s.CaptureRate != 0 {
		fmt.Printf("💡 Device runs at %d Hz; frames are resampled to %d Hz for recognition.\n\n", s.CaptureRate, sampleRate)
	}
}

func runListenTest(cfg *config.AppConfig, micCfg source.MicrophoneConfig, d time.Duration) {
	fmt.Printf("=== Listening for %v, speak now ===\n", d)

	mic, err := source.NewMicrophone(micCfg)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	if err := mic.Open(ctx); err != nil {
		fmt.Printf("❌ Failed to open microphone: %v\n", err)
		return
	}

	gate := audio.NewGate(audio.GateConfig{
		Mode:              cfg.Gate.Mode,
		SampleRate:        cfg.Audio.SampleRate,
		FrameMs:           cfg.Audio.FrameMs,
		VADAggressiveness: cfg.Gate.VADAggressiveness,
		NoiseThreshold:    cfg.Gate.NoiseThreshold,
		VariationFloor:    cfg.Gate.VariationFloor,
	})

	var frames, speech int
	var peak float64
	func() {
		for {
			select {
			case <-ctx.Done():
				return
			case f, ok := <-mic.Frames():
				if !ok {
					return
				}
				frames++
				if gate.IsSpeech(f) {
					speech++
				}
				if rms, _ := audio.Energy(f.Data); rms > peak {
					peak = rms
				}
			}
		}
	}()
	mic.Close()

	fmt.Println()
	fmt.Println("=== Test Results ===")
	fmt.Printf("Frames:         %d\n", frames)
	fmt.Printf("Speech frames:  %d\n", speech)
	fmt.Printf("Dropped frames: %d\n", mic.Dropped())
	fmt.Printf("Peak RMS:       %.3f\n", peak)

	switch {
	case frames == 0:
		fmt.Println("❌ No audio arrived. Check permissions and the selected device.")
	case speech == 0:
		fmt.Println("⚠️  No speech detected. Speak louder or lower gate.noise_threshold.")
	case mic.Dropped() > 0:
		fmt.Println("⚠️  Frames were dropped. Try high_latency: true or a larger queue_size.")
	default:
		fmt.Println("✅ Microphone and gate look healthy.")
	}
}
