package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wonny/bondcvar/pkg/config"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse log output %q: %v", buf.String(), err)
	}
	return logEntry
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *config.Config
		wantLevel zerolog.Level
	}{
		{
			name:      "debug level",
			cfg:       &config.Config{Env: "development", LogLevel: "debug", LogFormat: "json"},
			wantLevel: zerolog.DebugLevel,
		},
		{
			name:      "info level",
			cfg:       &config.Config{Env: "production", LogLevel: "info", LogFormat: "json"},
			wantLevel: zerolog.InfoLevel,
		},
		{
			name:      "warn level",
			cfg:       &config.Config{Env: "staging", LogLevel: "warn", LogFormat: "console"},
			wantLevel: zerolog.WarnLevel,
		},
	}

	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.cfg)
			if logger == nil {
				t.Fatal("Expected logger to be created")
			}

			if zerolog.GlobalLevel() != tt.wantLevel {
				t.Errorf("Expected global level %v, got %v", tt.wantLevel, zerolog.GlobalLevel())
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"invalid", zerolog.InfoLevel}, // Default
		{"", zerolog.InfoLevel},        // Default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewWithWriter_Methods(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "debug")

	tests := []struct {
		name      string
		logFunc   func()
		wantMsg   string
		wantLevel string
	}{
		{"debug", func() { logger.Debug("cache miss") }, "cache miss", "debug"},
		{"info", func() { logger.Info("optimization complete") }, "optimization complete", "info"},
		{"warn", func() { logger.Warn("solver did not converge") }, "solver did not converge", "warn"},
		{"error", func() { logger.Error("universe rejected") }, "universe rejected", "error"},
		{"infof", func() { logger.Infof("%d scenarios", 500) }, "500 scenarios", "info"},
		{"debugf", func() { logger.Debugf("cache entries=%d", 7) }, "cache entries=7", "debug"},
		{"warnf", func() { logger.Warnf("status=%s", "infeasible") }, "status=infeasible", "warn"},
		{"errorf", func() { logger.Errorf("write %s failed", "report.json") }, "write report.json failed", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc()

			logEntry := decodeEntry(t, &buf)
			if logEntry["level"] != tt.wantLevel {
				t.Errorf("Expected level %q, got %q", tt.wantLevel, logEntry["level"])
			}
			if logEntry["message"] != tt.wantMsg {
				t.Errorf("Expected message %q, got %q", tt.wantMsg, logEntry["message"])
			}
		})
	}
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "warn")

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("Expected info to be filtered at warn level, got %q", buf.String())
	}

	logger.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("Expected warn entry, got %q", buf.String())
	}
}

func TestComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "debug")

	logger.Component("optimizer").WithFields(map[string]interface{}{
		"bonds":     7,
		"scenarios": 500,
	}).Info("solving")

	logEntry := decodeEntry(t, &buf)
	if logEntry["component"] != "optimizer" {
		t.Errorf("Expected component optimizer, got %v", logEntry["component"])
	}
	if logEntry["bonds"] != float64(7) {
		t.Errorf("Expected bonds 7, got %v", logEntry["bonds"])
	}
	if logEntry["scenarios"] != float64(500) {
		t.Errorf("Expected scenarios 500, got %v", logEntry["scenarios"])
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info")

	logger.WithError(errors.New("lp: problem is infeasible")).WithField("step", 3).Warn("falling back")

	logEntry := decodeEntry(t, &buf)
	if logEntry["error"] != "lp: problem is infeasible" {
		t.Errorf("Expected error field, got %v", logEntry["error"])
	}
	if logEntry["step"] != float64(3) {
		t.Errorf("Expected step 3, got %v", logEntry["step"])
	}
}

func TestNop(t *testing.T) {
	// Must not panic and must not write anywhere.
	Nop().Component("risk").WithField("k", "v").Error("ignored")
}

func TestLogFormats(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	for _, format := range []string{"json", "console"} {
		t.Run(format, func(t *testing.T) {
			oldStderr := os.Stderr
			r, w, _ := os.Pipe()
			os.Stderr = w

			logger := New(&config.Config{Env: "development", LogLevel: "info", LogFormat: format})
			logger.Info("test message")

			w.Close()
			os.Stderr = oldStderr

			var buf bytes.Buffer
			_, _ = io.Copy(&buf, r)

			if !strings.Contains(buf.String(), "test message") {
				t.Errorf("Expected output to contain 'test message', got: %s", buf.String())
			}
		})
	}
}
