package audio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/liuscraft/luca-voice/internal/logging"
)

// FileSource 从 PCM / WAV 数据回放音频帧，用于离线识别和测试
type FileSource struct {
	reader     io.Reader
	sampleRate int
	channels   int
	frameMs    int
	realtime   bool
	padding    time.Duration

	queue  *Queue
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
	err    error
}

type FileSourceConfig struct {
	SampleRate int
	Channels   int
	FrameMs    int
	QueueSize  int
	// Realtime paces frames at their natural duration.
	Realtime bool
	// TrailingSilence is appended after the data so endpointing can fire.
	TrailingSilence time.Duration
}

func NewFileSource(r io.Reader, cfg FileSourceConfig) *FileSource {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	return &FileSource{
		reader:     r,
		sampleRate: cfg.SampleRate,
		channels:   cfg.Channels,
		frameMs:    cfg.FrameMs,
		realtime:   cfg.Realtime,
		padding:    cfg.TrailingSilence,
		queue:      NewQueue(cfg.QueueSize, PolicyBlock),
	}
}

func (s *FileSource) Open(ctx context.Context) error {
	br := bufio.NewReader(s.reader)
	if err := s.skipWAVHeader(br); err != nil {
		return StreamFailure("file", err)
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run(ctx, br)
	return nil
}

func (s *FileSource) Frames() <-chan Frame {
	return s.queue.Frames()
}

// Err returns the read error that ended playback, if any.
func (s *FileSource) Err() error {
	s.wg.Wait()
	return s.err
}

func (s *FileSource) Close() error {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.queue.Close()
	})
	s.wg.Wait()
	return nil
}

func (s *FileSource) run(ctx context.Context, r io.Reader) {
	defer s.wg.Done()
	defer s.queue.Close()

	frameBytes := FrameBytes(s.sampleRate, s.channels, s.frameMs)
	frameDur := time.Duration(s.frameMs) * time.Millisecond
	buf := make([]byte, frameBytes)
	frames := 0

	push := func(data []byte) bool {
		if ctx.Err() != nil {
			return false
		}
		frame := Frame{Data: data, SampleRate: s.sampleRate, Channels: s.channels, Time: time.Now()}
		if !s.queue.Push(frame) {
			return false
		}
		frames++
		if s.realtime {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(frameDur):
			}
		}
		return true
	}

	for {
		_, err := io.ReadFull(r, buf)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			s.err = err
			logging.Errorf("FileSource: read error after %d frames: %v", frames, err)
			return
		}
		if !push(bytes.Clone(buf)) {
			return
		}
	}

	for pad := time.Duration(0); pad < s.padding; pad += frameDur {
		if !push(make([]byte, frameBytes)) {
			return
		}
	}
	logging.Debugf("FileSource: finished after %d frames", frames)
}

// skipWAVHeader consumes a RIFF/WAVE header up to the data chunk. Raw PCM is
// left untouched.
func (s *FileSource) skipWAVHeader(r *bufio.Reader) error {
	head, err := r.Peek(12)
	if err != nil || string(head[0:4]) != "RIFF" || string(head[8:12]) != "WAVE" {
		return nil
	}
	if _, err := r.Discard(12); err != nil {
		return err
	}

	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return fmt.Errorf("wav: missing data chunk: %w", err)
		}
		id := string(hdr[0:4])
		size := int(binary.LittleEndian.Uint32(hdr[4:8]))
		switch id {
		case "data":
			return nil
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return fmt.Errorf("wav: fmt chunk: %w", err)
			}
			if len(body) < 16 {
				return errors.New("wav: short fmt chunk")
			}
			channels := int(binary.LittleEndian.Uint16(body[2:4]))
			rate := int(binary.LittleEndian.Uint32(body[4:8]))
			bits := int(binary.LittleEndian.Uint16(body[14:16]))
			if bits != 16 || rate != s.sampleRate || channels != s.channels {
				return fmt.Errorf("wav: need %dHz/%dch/16bit, got %dHz/%dch/%dbit", s.sampleRate, s.channels, rate, channels, bits)
			}
		default:
			if _, err := r.Discard(size + size%2); err != nil {
				return err
			}
		}
	}
}
