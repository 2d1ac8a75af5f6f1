package asr

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/liuscraft/luca-voice/internal/logging"
)

const (
	defaultDashScopeEndpoint = "wss://dashscope.aliyuncs.com/api-ws/v1/inference"
	dashScopeStartTimeout    = 5 * time.Second
	dashScopeWriteTimeout    = 2 * time.Second
	dashScopeRetryDelay      = time.Second
	// 连接建立前最多缓存的音频帧数，约 3 秒的 30ms 帧
	dashScopeMaxPending = 100
)

var ErrAPIKeyRequired = errors.New("DASHSCOPE_API_KEY is required")

// DashScopeConfig 实时识别 websocket 参数
type DashScopeConfig struct {
	APIKey             string
	Endpoint           string
	Model              string
	Format             string
	SampleRate         int
	VocabularyID       string
	MaxSentenceSilence int
	LanguageHints      []string
}

// DashScopeRecognizer 把 DashScope 实时识别任务适配成 StreamingRecognizer
// 连接在后台建立，AcceptFrame 从不等待网络；连接就绪前的帧先缓存
type DashScopeRecognizer struct {
	ds DashScopeConfig

	ctx    context.Context
	cancel context.CancelFunc

	// writeMu 串行化对同一连接的写入，每次写都带 deadline
	writeMu sync.Mutex

	mu         sync.Mutex
	conn       *websocket.Conn
	taskID     string
	connecting bool
	retryAt    time.Time
	pending    [][]byte
	finals     []string
	partial    string
	err        error
	closed     bool
	gen        uint64

	dial func(ctx context.Context) (*websocket.Conn, error)
}

func NewDashScopeRecognizer(cfg DashScopeConfig) (*DashScopeRecognizer, error) {
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultDashScopeEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = "fun-asr-realtime"
	}
	if cfg.Format == "" {
		cfg.Format = "pcm"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &DashScopeRecognizer{ds: cfg, ctx: ctx, cancel: cancel}
	r.dial = r.connect
	return r, nil
}

// AcceptFrame 发送一帧音频；未连接时缓存该帧并在后台发起连接，立即返回
func (r *DashScopeRecognizer) AcceptFrame(pcm []byte) (bool, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false, ErrClosed
	}
	if err := r.err; err != nil {
		r.err = nil
		conn := r.conn
		r.conn = nil
		r.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return false, err
	}
	conn := r.conn
	if conn == nil {
		r.bufferLocked(pcm)
		r.startLocked()
		r.mu.Unlock()
		return false, nil
	}
	backlog := r.pending
	r.pending = nil
	r.mu.Unlock()

	for _, chunk := range append(backlog, pcm) {
		if err := r.writeAudio(conn, chunk); err != nil {
			r.dropConn(conn)
			return false, fmt.Errorf("dashscope: send audio: %w", err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.finals) > 0, nil
}

// FinalResult pops the oldest completed sentence.
func (r *DashScopeRecognizer) FinalResult() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.finals) == 0 {
		return ""
	}
	text := r.finals[0]
	r.finals = r.finals[1:]
	return text
}

func (r *DashScopeRecognizer) PartialResult() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.partial
}

func (r *DashScopeRecognizer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finals = nil
	r.partial = ""
	r.pending = nil
}

// Close 取消进行中的连接，发送 finish-task 后关闭连接；不会等待拨号
func (r *DashScopeRecognizer) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	conn, taskID := r.conn, r.taskID
	r.conn = nil
	r.pending = nil
	r.mu.Unlock()

	r.cancel()
	if conn == nil {
		return nil
	}

	r.writeMu.Lock()
	err := writeTask(conn, taskID, "finish-task", taskPayload{Input: map[string]any{}})
	r.writeMu.Unlock()
	if err != nil {
		logging.Debugf("DashScopeRecognizer: finish-task not sent: %v", err)
	}
	return conn.Close()
}

func (r *DashScopeRecognizer) bufferLocked(pcm []byte) {
	if len(r.pending) >= dashScopeMaxPending {
		r.pending = r.pending[1:]
	}
	r.pending = append(r.pending, append([]byte(nil), pcm...))
}

// startLocked launches a background connect unless one is running or the
// last attempt failed less than dashScopeRetryDelay ago.
func (r *DashScopeRecognizer) startLocked() {
	if r.connecting || time.Now().Before(r.retryAt) {
		return
	}
	r.connecting = true
	go r.start()
}

func (r *DashScopeRecognizer) start() {
	ctx, cancel := context.WithTimeout(r.ctx, dashScopeStartTimeout)
	defer cancel()

	conn, taskID, err := r.open(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.connecting = false
	if err != nil {
		if r.closed {
			return
		}
		logging.Warnf("DashScopeRecognizer: %v", err)
		r.retryAt = time.Now().Add(dashScopeRetryDelay)
		r.pending = nil
		r.err = err
		return
	}
	if r.closed {
		conn.Close()
		return
	}
	r.conn = conn
	r.taskID = taskID
	logging.Infof("DashScopeRecognizer: task %s started (model=%s)", taskID, r.ds.Model)
}

// open dials, sends run-task and waits for task-started, all bounded by ctx.
func (r *DashScopeRecognizer) open(ctx context.Context) (*websocket.Conn, string, error) {
	conn, err := r.dial(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("dashscope: connect: %w", err)
	}
	// 拨号成功后 Close 仍可能通过 ctx 取消等待
	stop := context.AfterFunc(ctx, func() { conn.Close() })

	taskID := newTaskID()
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.mu.Unlock()

	if err := writeTask(conn, taskID, "run-task", r.runTaskPayload()); err != nil {
		stop()
		conn.Close()
		return nil, "", fmt.Errorf("dashscope: run-task: %w", err)
	}

	started := make(chan error, 1)
	go r.receive(conn, gen, started)

	select {
	case err := <-started:
		if !stop() || err != nil {
			conn.Close()
			if err == nil {
				err = ctx.Err()
			}
			return nil, "", err
		}
		return conn, taskID, nil
	case <-ctx.Done():
		stop()
		conn.Close()
		return nil, "", fmt.Errorf("dashscope: waiting for task-started: %w", ctx.Err())
	}
}

func (r *DashScopeRecognizer) writeAudio(conn *websocket.Conn, pcm []byte) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(dashScopeWriteTimeout))
	return conn.WriteMessage(websocket.BinaryMessage, pcm)
}

func (r *DashScopeRecognizer) dropConn(conn *websocket.Conn) {
	r.mu.Lock()
	if r.conn == conn {
		r.conn = nil
	}
	r.mu.Unlock()
	conn.Close()
}

func (r *DashScopeRecognizer) connect(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Authorization", fmt.Sprintf("Bearer %s", r.ds.APIKey))
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, r.ds.Endpoint, header)
	return conn, err
}

func (r *DashScopeRecognizer) runTaskPayload() taskPayload {
	params := map[string]any{
		"format":      r.ds.Format,
		"sample_rate": r.ds.SampleRate,
	}
	if r.ds.VocabularyID != "" {
		params["vocabulary_id"] = r.ds.VocabularyID
	}
	if r.ds.MaxSentenceSilence > 0 {
		params["max_sentence_silence"] = r.ds.MaxSentenceSilence
	}
	if len(r.ds.LanguageHints) > 0 {
		params["language_hints"] = r.ds.LanguageHints
	}
	return taskPayload{
		TaskGroup:  "audio",
		Task:       "asr",
		Function:   "recognition",
		Model:      r.ds.Model,
		Parameters: params,
		Input:      map[string]any{},
	}
}

// writeTask 发送控制消息；连接已共享时调用方持有 writeMu
func writeTask(conn *websocket.Conn, taskID, action string, payload taskPayload) error {
	msg := taskMessage{
		Header: taskHeader{
			Action:    action,
			TaskID:    taskID,
			Streaming: "duplex",
		},
		Payload: payload,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(dashScopeWriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (r *DashScopeRecognizer) receive(conn *websocket.Conn, gen uint64, started chan<- error) {
	notify := func(err error) {
		select {
		case started <- err:
		default:
		}
	}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			notify(fmt.Errorf("dashscope: read: %w", err))
			r.fail(gen, err)
			return
		}
		var event eventMessage
		if err := json.Unmarshal(data, &event); err != nil {
			notify(fmt.Errorf("dashscope: decode event: %w", err))
			r.fail(gen, err)
			return
		}
		if event.Header.Event == "task-started" {
			notify(nil)
			continue
		}
		done, err := r.handleEvent(event)
		if err != nil {
			notify(err)
			r.fail(gen, err)
			return
		}
		if done {
			r.fail(gen, errors.New("dashscope: task finished"))
			return
		}
	}
}

// handleEvent 处理一条服务端事件，返回任务是否结束
func (r *DashScopeRecognizer) handleEvent(event eventMessage) (bool, error) {
	switch event.Header.Event {
	case "result-generated":
		if event.Payload.Output == nil || event.Payload.Output.Sentence == nil {
			return false, nil
		}
		sentence := event.Payload.Output.Sentence
		text := strings.TrimSpace(sentence.Text)
		if sentence.Heartbeat || text == "" {
			return false, nil
		}
		r.mu.Lock()
		if sentence.SentenceEnd {
			r.finals = append(r.finals, text)
			r.partial = ""
		} else {
			r.partial = text
		}
		r.mu.Unlock()
	case "task-finished":
		return true, nil
	case "task-failed":
		if event.Header.ErrorMessage != "" {
			return true, fmt.Errorf("dashscope: task failed: %s", event.Header.ErrorMessage)
		}
		return true, errors.New("dashscope: task failed")
	}
	return false, nil
}

// fail records a connection error for the next AcceptFrame. Errors from a
// superseded connection are ignored.
func (r *DashScopeRecognizer) fail(gen uint64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || gen != r.gen {
		return
	}
	logging.Warnf("DashScopeRecognizer: connection ended: %v", err)
	r.err = err
}

type taskMessage struct {
	Header  taskHeader  `json:"header"`
	Payload taskPayload `json:"payload"`
}

type taskHeader struct {
	Action       string `json:"action,omitempty"`
	TaskID       string `json:"task_id,omitempty"`
	Streaming    string `json:"streaming,omitempty"`
	Event        string `json:"event,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type taskPayload struct {
	TaskGroup  string         `json:"task_group,omitempty"`
	Task       string         `json:"task,omitempty"`
	Function   string         `json:"function,omitempty"`
	Model      string         `json:"model,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Input      map[string]any `json:"input"`
	Output     *taskOutput    `json:"output,omitempty"`
}

type eventMessage struct {
	Header  taskHeader  `json:"header"`
	Payload taskPayload `json:"payload"`
}

type taskOutput struct {
	Sentence *taskSentence `json:"sentence,omitempty"`
}

type taskSentence struct {
	BeginTime   int64  `json:"begin_time"`
	EndTime     *int64 `json:"end_time"`
	Text        string `json:"text"`
	Heartbeat   bool   `json:"heartbeat"`
	SentenceEnd bool   `json:"sentence_end"`
}

func newTaskID() string {
	var bytes [16]byte
	if _, err := rand.Read(bytes[:]); err != nil {
		return "fallback-task-id"
	}
	return hex.EncodeToString(bytes[:])
}
