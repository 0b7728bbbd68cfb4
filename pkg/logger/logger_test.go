package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInit_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookqa.log")
	if err := Init(path); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer Close()

	Info("opened %s", "https://www.litres.ru/")
	Warn("retrying stale %s", "logo")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), data)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
	if entry["message"] != "opened https://www.litres.ru/" {
		t.Errorf("message = %v", entry["message"])
	}
}

func TestSetLevel_FiltersDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookqa.log")
	if err := Init(path); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer func() {
		_ = SetLevel("debug")
		Close()
	}()

	if err := SetLevel("info"); err != nil {
		t.Fatalf("SetLevel() error = %v", err)
	}
	Debug("hidden")
	Error("shown")

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "hidden") {
		t.Error("debug message written at info level")
	}
	if !strings.Contains(string(data), "shown") {
		t.Error("error message missing")
	}
}

func TestSetLevel_Invalid(t *testing.T) {
	if err := SetLevel("loud"); err == nil {
		t.Error("SetLevel(loud) should fail")
	}
}

func TestEnableConsole(t *testing.T) {
	var buf bytes.Buffer
	EnableConsole(&buf)
	defer Close()

	Info("console %d", 1)
	if !strings.Contains(buf.String(), "console 1") {
		t.Errorf("console output = %q", buf.String())
	}
}

func TestGetWriter_DiscardWithoutFile(t *testing.T) {
	Close()
	if GetWriter() != io.Discard {
		t.Error("GetWriter() should be io.Discard when no file is open")
	}
}

func TestLogBeforeInit(t *testing.T) {
	Close()
	// Must not panic.
	Info("nothing")
	Debug("nothing")
}
