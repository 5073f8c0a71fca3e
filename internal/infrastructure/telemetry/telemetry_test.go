package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInit_Stdout(t *testing.T) {
	var out bytes.Buffer
	shutdown, err := Init("agentforge-test", "v0.0.1", Config{Output: &out})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestInit_Errors(t *testing.T) {
	if _, err := Init("svc", "v1", Config{Exporter: "zipkin"}); err == nil {
		t.Error("expected error for unknown exporter")
	}
	if _, err := Init("svc", "v1", Config{Exporter: "otlp"}); err == nil {
		t.Error("expected error for otlp without endpoint")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestHandler_AddsSpanIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "info", "json"))

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	logger.InfoContext(ctx, "inside span")
	span.End()

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if record["trace_id"] != span.SpanContext().TraceID().String() {
		t.Errorf("trace_id = %v", record["trace_id"])
	}
	if record["span_id"] == nil {
		t.Error("span_id missing")
	}
}

func TestHandler_TextWithoutSpan(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "warn", "text")).With("component", "compile")

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(out, "msg=kept") || !strings.Contains(out, "component=compile") || strings.Contains(out, "trace_id") {
		t.Errorf("unexpected output: %s", out)
	}
}
