package asr

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	vosk "github.com/alphacep/vosk-api/go"
	"github.com/liuscraft/luca-voice/internal/logging"
)

// VoskRecognizer 离线 Vosk 识别器
type VoskRecognizer struct {
	mu         sync.Mutex
	model      *vosk.VoskModel
	recognizer *vosk.VoskRecognizer
	final      string
}

type voskResult struct {
	Text    string `json:"text"`
	Partial string `json:"partial"`
}

func init() {
	vosk.SetLogLevel(-1)
}

func NewVoskRecognizer(language, modelPath string, sampleRate int) (*VoskRecognizer, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, &ModelError{Language: language, Path: modelPath, Err: err}
	}

	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, &ModelError{Language: language, Path: modelPath, Err: err}
	}
	rec, err := vosk.NewRecognizer(model, float64(sampleRate))
	if err != nil {
		model.Free()
		return nil, &ModelError{Language: language, Path: modelPath, Err: err}
	}

	logging.Infof("VoskRecognizer: loaded model %s (language=%s, rate=%d)", modelPath, language, sampleRate)
	return &VoskRecognizer{model: model, recognizer: rec}, nil
}

func (v *VoskRecognizer) AcceptFrame(pcm []byte) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.recognizer == nil {
		return false, ErrClosed
	}
	if v.recognizer.AcceptWaveform(pcm) == 0 {
		return false, nil
	}
	text, err := decodeText(v.recognizer.Result())
	if err != nil {
		return false, fmt.Errorf("vosk: %w", err)
	}
	v.final = text
	return true, nil
}

// FinalResult returns the text of the last completed segment.
func (v *VoskRecognizer) FinalResult() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	text := v.final
	v.final = ""
	return text
}

func (v *VoskRecognizer) PartialResult() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.recognizer == nil {
		return ""
	}
	text, err := decodePartial(v.recognizer.PartialResult())
	if err != nil {
		logging.Warnf("VoskRecognizer: bad partial result: %v", err)
		return ""
	}
	return text
}

func (v *VoskRecognizer) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.final = ""
	if v.recognizer != nil {
		v.recognizer.Reset()
	}
}

func (v *VoskRecognizer) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.recognizer != nil {
		v.recognizer.Free()
		v.recognizer = nil
	}
	if v.model != nil {
		v.model.Free()
		v.model = nil
	}
	return nil
}

func decodeText(raw string) (string, error) {
	var r voskResult
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return "", err
	}
	return strings.TrimSpace(r.Text), nil
}

func decodePartial(raw string) (string, error) {
	var r voskResult
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return "", err
	}
	return strings.TrimSpace(r.Partial), nil
}
