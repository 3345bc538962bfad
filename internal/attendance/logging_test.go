package attendance

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogFormat = "text"
	cfg.LogLevel = "debug"
	cfg.LogFile = filepath.Join(t.TempDir(), "attendance.log")

	logger, closer, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	CorrelationLogger(logger, "corr-1").Debug("export cleanup failed")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	raw, err := os.ReadFile(cfg.LogFile)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(raw), "corrId=corr-1") {
		t.Errorf("log file = %q", raw)
	}
}

func TestNewLogger_Invalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "loud"
	if _, _, err := NewLogger(cfg); err == nil {
		t.Errorf("expected error for unknown level")
	}
	cfg = DefaultConfig()
	cfg.LogFormat = "xml"
	if _, _, err := NewLogger(cfg); err == nil {
		t.Errorf("expected error for unknown format")
	}
}
