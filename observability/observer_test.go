package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/contextkit/propagate/observability"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		name  string
		level observability.Level
		want  string
	}{
		{name: "trace range", level: 1, want: "TRACE"},
		{name: "verbose maps to DEBUG", level: observability.LevelVerbose, want: "DEBUG"},
		{name: "info maps to INFO", level: observability.LevelInfo, want: "INFO"},
		{name: "warning maps to WARN", level: observability.LevelWarning, want: "WARN"},
		{name: "error maps to ERROR", level: observability.LevelError, want: "ERROR"},
		{name: "fatal range", level: 21, want: "FATAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
			}
		})
	}
}

func TestLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level observability.Level
		want  slog.Level
	}{
		{name: "verbose maps to Debug", level: observability.LevelVerbose, want: slog.LevelDebug},
		{name: "info maps to Info", level: observability.LevelInfo, want: slog.LevelInfo},
		{name: "warning maps to Warn", level: observability.LevelWarning, want: slog.LevelWarn},
		{name: "error maps to Error", level: observability.LevelError, want: slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.level.SlogLevel(); got != tt.want {
				t.Errorf("Level(%d).SlogLevel() = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestSlogObserverFlattensData(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	obs := observability.NewSlogObserver(logger)

	obs.OnEvent(context.Background(), observability.Event{
		Type:      "scope.detach.mismatch",
		Level:     observability.LevelError,
		Timestamp: time.Now(),
		Source:    "scope",
		Data:      map[string]any{"generation": 3},
	})

	out := buf.String()
	for _, want := range []string{"scope.detach.mismatch", "level=ERROR", "source=scope", "generation=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestMultiObserverFansOut(t *testing.T) {
	var first, second int
	multi := observability.NewMultiObserver(
		observability.ObserverFunc(func(context.Context, observability.Event) { first++ }),
		nil,
		observability.ObserverFunc(func(context.Context, observability.Event) { second++ }),
	)

	multi.OnEvent(context.Background(), observability.Event{Type: "test"})

	if first != 1 || second != 1 {
		t.Errorf("fan-out counts = (%d, %d), want (1, 1)", first, second)
	}
}

func TestRegistry(t *testing.T) {
	if _, err := observability.GetObserver("noop"); err != nil {
		t.Errorf("noop observer missing: %v", err)
	}
	if _, err := observability.GetObserver("slog"); err != nil {
		t.Errorf("slog observer missing: %v", err)
	}
	if _, err := observability.GetObserver("nope"); err == nil {
		t.Error("unknown observer name did not error")
	}

	marker := observability.NoOpObserver{}
	observability.RegisterObserver("custom", marker)
	got, err := observability.GetObserver("custom")
	if err != nil {
		t.Fatalf("custom observer: %v", err)
	}
	if got != marker {
		t.Error("registry returned a different observer")
	}
}
