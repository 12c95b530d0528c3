package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw     string
		want    slog.Level
		wantErr bool
	}{
		{raw: "", want: slog.LevelInfo},
		{raw: "debug", want: slog.LevelDebug},
		{raw: " INFO ", want: slog.LevelInfo},
		{raw: "warning", want: slog.LevelWarn},
		{raw: "error", want: slog.LevelError},
		{raw: "verbose", wantErr: true},
	}

	for _, tc := range tests {
		level, err := ParseLevel(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.raw)
			}

			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.raw, err)
		}
		if level != tc.want {
			t.Fatalf("%q: level = %v, want %v", tc.raw, level, tc.want)
		}
	}
}

func TestTeeWriter_SurvivesFailingSink(t *testing.T) {
	var dst bytes.Buffer
	w := tee(errorWriter{err: errors.New("broken stdout")}, &dst)

	n, err := w.Write([]byte("record"))
	if err != nil {
		t.Fatalf("write returned error: %v", err)
	}
	if n != len("record") {
		t.Fatalf("bytes written = %d, want %d", n, len("record"))
	}
	if got := dst.String(); got != "record" {
		t.Fatalf("surviving sink contents = %q", got)
	}
}

func TestTeeWriter_AllSinksFailing(t *testing.T) {
	w := tee(errorWriter{err: errors.New("a")}, errorWriter{err: errors.New("b")})

	if _, err := w.Write([]byte("record")); err == nil {
		t.Fatalf("expected error when every sink fails")
	}
}

func TestManagerConfigure_WritesToLogFile(t *testing.T) {
	origDefault := slog.Default()
	t.Cleanup(func() { slog.SetDefault(origDefault) })

	logPath := filepath.Join(t.TempDir(), "app.log")
	m := NewManager()
	t.Cleanup(func() { _ = m.Close() })

	if err := m.Configure(config.LoggingConfig{Level: "debug", LogToFile: true}, logPath); err != nil {
		t.Fatalf("configure manager: %v", err)
	}

	m.Logger("test").Debug("file must receive this record")

	if err := m.Close(); err != nil {
		t.Fatalf("close manager: %v", err)
	}

	raw, err := os.ReadFile(logPath) // #nosec G304 -- path from t.TempDir
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(raw), "file must receive this record") {
		t.Fatalf("log file missing record, contents: %q", raw)
	}
	if !strings.Contains(string(raw), "component=test") {
		t.Fatalf("log file missing component attribute, contents: %q", raw)
	}
}

func TestManagerConfigure_RejectsBadLevel(t *testing.T) {
	m := NewManager()
	if err := m.Configure(config.LoggingConfig{Level: "shout"}, ""); err == nil {
		t.Fatalf("expected error for unsupported level")
	}
}

type errorWriter struct {
	err error
}

func (w errorWriter) Write(_ []byte) (int, error) {
	return 0, w.err
}
