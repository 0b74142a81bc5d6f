package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/angas/otesensor-go/database"
)

type memoryLog struct {
	rows []database.LogEntryRow
}

func (m *memoryLog) SaveLogEntry(ctx context.Context, r database.LogEntryRow) error {
	m.rows = append(m.rows, r)
	return nil
}

func TestLevelFromString(t *testing.T) {
	str := func(s string) *string { return &s }
	tests := []struct {
		input    *string
		expected slog.Level
	}{
		{nil, slog.LevelInfo},
		{str("debug"), slog.LevelDebug},
		{str("INFO"), slog.LevelInfo},
		{str("Warn"), slog.LevelWarn},
		{str("warning"), slog.LevelWarn},
		{str(" ERROR "), slog.LevelError},
		{str("verbose"), slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := LevelFromString(tt.input); got != tt.expected {
			t.Errorf("LevelFromString(%v) expected %v, got %v", tt.input, tt.expected, got)
		}
	}
}

func TestSQLiteHandlerJSON(t *testing.T) {
	mem := &memoryLog{}
	logger := slog.New(NewSQLiteHandler(mem, slog.LevelInfo, LogAttrFormatJSON)).With("module", "ote")

	logger.Debug("hidden")
	logger.Warn("skipped prices", slog.Int("hour", 25))

	if len(mem.rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(mem.rows))
	}
	row := mem.rows[0]
	if row.Message != "skipped prices" || row.Level != int(slog.LevelWarn) {
		t.Errorf("unexpected row %+v", row)
	}
	expected := `[{"module":"ote"},{"hour":"25"}]`
	if row.Attrs != expected {
		t.Errorf("expected attrs %s, got %s", expected, row.Attrs)
	}
}

func TestSQLiteHandlerText(t *testing.T) {
	mem := &memoryLog{}
	logger := slog.New(NewSQLiteHandler(mem, slog.LevelDebug, LogAttrFormatText)).WithGroup("req")

	logger.Info("done", slog.String("q", "a=b;c"))

	if len(mem.rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(mem.rows))
	}
	expected := `req.q=a\=b\;c`
	if mem.rows[0].Attrs != expected {
		t.Errorf("expected attrs %s, got %s", expected, mem.rows[0].Attrs)
	}
}

func TestMultiHandlerRespectsLevels(t *testing.T) {
	var debugBuf, errorBuf bytes.Buffer
	logger := slog.New(NewMultiHandler(
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&errorBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	)).With("module", "test")

	logger.Info("informational")
	logger.Error("broken")

	if !strings.Contains(debugBuf.String(), "informational") || !strings.Contains(debugBuf.String(), "broken") {
		t.Errorf("expected both records in debug output, got %q", debugBuf.String())
	}
	if strings.Contains(errorBuf.String(), "informational") {
		t.Errorf("did not expect info record in error output, got %q", errorBuf.String())
	}
	if !strings.Contains(errorBuf.String(), "module=test") {
		t.Errorf("expected attrs in error output, got %q", errorBuf.String())
	}
}

func TestMultiHandlerEnabled(t *testing.T) {
	h := NewMultiHandler(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Errorf("expected info to be disabled")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Errorf("expected error to be enabled")
	}
}
