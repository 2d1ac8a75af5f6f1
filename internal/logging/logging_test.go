package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func useObserver(level zapcore.Level) *observer.ObservedLogs {
	core, recorded := observer.New(level)
	baseLogger = zap.New(core)
	sugar = baseLogger.Sugar()
	traceID.Store("")
	phaseName.Store("")
	language.Store("")
	phaseID = 0
	return recorded
}

func contextFields(entry observer.LoggedEntry) map[string]interface{} {
	fields := map[string]interface{}{}
	for _, field := range entry.Context {
		switch field.Type {
		case zapcore.StringType:
			fields[field.Key] = field.String
		case zapcore.Int64Type, zapcore.Uint64Type:
			fields[field.Key] = field.Integer
		default:
			fields[field.Key] = field.Interface
		}
	}
	return fields
}

func TestStartPhaseAddsLogFields(t *testing.T) {
	recorded := useObserver(zapcore.InfoLevel)

	SetTraceID("trace-123")
	StartPhase("wake")
	Infof("hello")

	logs := recorded.All()
	if len(logs) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(logs))
	}

	fields := contextFields(logs[0])
	if fields["trace_id"] != "trace-123" {
		t.Fatalf("expected trace_id to be trace-123, got %v", fields["trace_id"])
	}
	if fields["phase_id"] != int64(1) {
		t.Fatalf("expected phase_id to be 1, got %v", fields["phase_id"])
	}
	if fields["phase"] != "wake" {
		t.Fatalf("expected phase to be wake, got %v", fields["phase"])
	}
	if fields["log_id"] != "trace-123-1" {
		t.Fatalf("expected log_id to be trace-123-1, got %v", fields["log_id"])
	}
}

func TestPhaseIDIncrements(t *testing.T) {
	useObserver(zapcore.InfoLevel)

	first := StartPhase("wake")
	second := StartPhase("command")
	if second != first+1 {
		t.Fatalf("expected consecutive phase ids, got %d then %d", first, second)
	}
	id, name := CurrentPhase()
	if id != second || name != "command" {
		t.Fatalf("CurrentPhase() = (%d, %q), want (%d, command)", id, name, second)
	}
}

func TestDebugFilteredAtInfo(t *testing.T) {
	recorded := useObserver(zapcore.InfoLevel)

	Debugf("hidden")
	Warnf("shown")

	if recorded.Len() != 1 {
		t.Fatalf("expected only the warn entry, got %d", recorded.Len())
	}
	if recorded.All()[0].Message != "shown" {
		t.Fatalf("unexpected message %q", recorded.All()[0].Message)
	}
}

func TestInitRejectsBadValues(t *testing.T) {
	defer useObserver(zapcore.InfoLevel)

	if err := Init(Config{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if err := Init(Config{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if err := Init(Config{Level: "debug", Format: "json"}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
}

func TestSetLanguageTagsEntries(t *testing.T) {
	recorded := useObserver(zapcore.InfoLevel)

	Infof("before")
	SetLanguage(" tn ")
	Infof("after")

	logs := recorded.All()
	if len(logs) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(logs))
	}
	if _, ok := contextFields(logs[0])["lang"]; ok {
		t.Fatal("lang field should be absent before SetLanguage")
	}
	if got := contextFields(logs[1])["lang"]; got != "tn" {
		t.Fatalf("expected lang tn, got %v", got)
	}
}
