package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestForServiceAddsAttribute(t *testing.T) {
	var structured, human bytes.Buffer
	SetOutput(&structured, &human)

	ForService("analysis").Info("stage complete", "stage", "classifier")

	out := structured.String()
	if !strings.Contains(out, `"service":"analysis"`) {
		t.Errorf("structured output missing service attribute: %s", out)
	}
	if !strings.Contains(out, `"stage":"classifier"`) {
		t.Errorf("structured output missing field: %s", out)
	}
}

func TestReplaceLevelNames(t *testing.T) {
	var structured, human bytes.Buffer
	SetOutput(&structured, &human)

	Trace("very detailed")
	if !strings.Contains(structured.String(), `"level":"TRACE"`) {
		t.Errorf("expected TRACE level name, got %s", structured.String())
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	logger, closer, err := NewFileLogger(path, "testsvc", slog.LevelInfo)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}

	logger.Info("hello")
	if err := closer(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"service":"testsvc"`) {
		t.Errorf("log file missing service attribute: %s", data)
	}
}
