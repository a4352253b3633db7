package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		level  slog.Level
		format string
	}{
		{name: "json format with info level", level: slog.LevelInfo, format: "json"},
		{name: "text format with debug level", level: slog.LevelDebug, format: "text"},
		{name: "default format (json) with error level", level: slog.LevelError, format: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level, tt.format)
			if logger == nil || logger.Logger == nil {
				t.Fatal("expected non-nil logger")
			}
		})
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "json")

	logger.Info("tick complete", Count(3))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "tick complete" {
		t.Errorf("expected msg %q, got %v", "tick complete", entry["msg"])
	}
	if entry[FieldCount] != float64(3) {
		t.Errorf("expected count 3, got %v", entry[FieldCount])
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "json")

	tests := []struct {
		name         string
		ctx          context.Context
		expectTickID bool
	}{
		{
			name:         "context with tick ID",
			ctx:          WithTickID(context.Background(), "tick-123"),
			expectTickID: true,
		},
		{
			name:         "context without tick ID",
			ctx:          context.Background(),
			expectTickID: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()

			logger.WithContext(tt.ctx).Info("test message")

			hasTick := strings.Contains(buf.String(), `"tick_id":"tick-123"`)
			if hasTick != tt.expectTickID {
				t.Errorf("tick id present=%v, want %v: %s", hasTick, tt.expectTickID, buf.String())
			}
		})
	}
}

func TestLevelContextMethods(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelDebug, "text")
	ctx := WithTickID(context.Background(), "abc")

	logger.DebugContext(ctx, "debug message")
	logger.InfoContext(ctx, "info message")
	logger.WarnContext(ctx, "warn message")
	logger.ErrorContext(ctx, "error message")

	output := buf.String()
	for _, want := range []string{"DEBUG", "INFO", "WARN", "ERROR", "tick_id=abc"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "json").With(Sensor("airflow"))

	logger.Info("hello")

	if !strings.Contains(buf.String(), `"sensor":"airflow"`) {
		t.Errorf("expected sensor attribute, got: %s", buf.String())
	}
}

func TestGetTickID_Missing(t *testing.T) {
	if id := GetTickID(context.Background()); id != "" {
		t.Errorf("expected empty tick id, got %q", id)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFieldHelpers(t *testing.T) {
	tests := []struct {
		attr slog.Attr
		key  string
		want string
	}{
		{Service("runbridge"), FieldService, "runbridge"},
		{Sensor("airflow"), FieldSensor, "airflow"},
		{TickID("t1"), FieldTickID, "t1"},
		{DagID("etl"), FieldDagID, "etl"},
		{RunID("manual__1"), FieldRunID, "manual__1"},
		{TaskID("load"), FieldTaskID, "load"},
		{AssetKey("raw/orders"), FieldAssetKey, "raw/orders"},
		{Error(errors.New("boom")), FieldError, "boom"},
	}
	for _, tt := range tests {
		if tt.attr.Key != tt.key {
			t.Errorf("expected key %q, got %q", tt.key, tt.attr.Key)
		}
		if tt.attr.Value.String() != tt.want {
			t.Errorf("expected value %q, got %q", tt.want, tt.attr.Value.String())
		}
	}

	if attr := Offset(7); attr.Value.Int64() != 7 {
		t.Errorf("expected offset 7, got %d", attr.Value.Int64())
	}
	if attr := Duration(1500 * time.Millisecond); attr.Value.Int64() != 1500 {
		t.Errorf("expected 1500ms, got %d", attr.Value.Int64())
	}
}

func TestSetDefault(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	logger := NewWithWriter(io.Discard, slog.LevelInfo, "json")
	SetDefault(logger)

	if slog.Default() != logger.Logger {
		t.Error("expected slog default to be replaced")
	}
}
