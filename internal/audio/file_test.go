package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"
)

func wavBytes(rate, channels int, pcm []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(rate))
	binary.Write(&buf, binary.LittleEndian, uint32(rate*channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("LIST")
	binary.Write(&buf, binary.LittleEndian, uint32(3))
	buf.Write([]byte{1, 2, 3, 0})
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}

func collect(t *testing.T, src *FileSource) []Frame {
	t.Helper()
	var frames []Frame
	timeout := time.After(2 * time.Second)
	for {
		select {
		case f, ok := <-src.Frames():
			if !ok {
				return frames
			}
			frames = append(frames, f)
		case <-timeout:
			t.Fatal("timed out waiting for frames")
		}
	}
}

func TestFileSourceRawPCM(t *testing.T) {
	pcm := makePCM(1000, 160*3+50) // three full frames plus a partial tail
	src := NewFileSource(bytes.NewReader(pcm), FileSourceConfig{SampleRate: 16000, Channels: 1, FrameMs: 10})
	if err := src.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	frames := collect(t, src)
	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}
	for _, f := range frames {
		if len(f.Data) != 320 || f.SampleRate != 16000 || f.Time.IsZero() {
			t.Fatalf("unexpected frame %+v", f)
		}
	}
	if err := src.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
}

func TestFileSourceWAVWithPadding(t *testing.T) {
	pcm := makePCM(2000, 160*2)
	src := NewFileSource(bytes.NewReader(wavBytes(16000, 1, pcm)), FileSourceConfig{
		SampleRate:      16000,
		Channels:        1,
		FrameMs:         10,
		TrailingSilence: 30 * time.Millisecond,
	})
	if err := src.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	frames := collect(t, src)
	if len(frames) != 5 {
		t.Fatalf("got %d frames, want 2 data + 3 padding", len(frames))
	}
	if rms, _ := Energy(frames[0].Data); rms == 0 {
		t.Fatal("first frame should carry audio, header was not skipped correctly")
	}
	if rms, _ := Energy(frames[4].Data); rms != 0 {
		t.Fatal("padding frames should be silent")
	}
}

func TestFileSourceWAVFormatMismatch(t *testing.T) {
	src := NewFileSource(bytes.NewReader(wavBytes(8000, 1, makePCM(0, 80))), FileSourceConfig{SampleRate: 16000, Channels: 1, FrameMs: 10})
	err := src.Open(context.Background())
	if !errors.Is(err, ErrStreamFailure) {
		t.Fatalf("Open() error = %v, want ErrStreamFailure", err)
	}
}

func TestFileSourceCloseStopsPlayback(t *testing.T) {
	pcm := makePCM(1000, 160*100)
	src := NewFileSource(bytes.NewReader(pcm), FileSourceConfig{SampleRate: 16000, Channels: 1, FrameMs: 10, QueueSize: 1, Realtime: true})
	if err := src.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	<-src.Frames()

	done := make(chan struct{})
	go func() {
		src.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not stop playback")
	}
	src.Close()
}
