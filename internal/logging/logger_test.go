package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"villagework/internal/config"
	"villagework/internal/logging/adapters"
)

func TestMultiLoggerFieldsAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewMultiLogger()
	if err := logger.AddAdapter(adapters.NewStdoutAdapter("buf", adapters.StdoutConfig{Format: "json", Writer: &buf})); err != nil {
		t.Fatal(err)
	}

	logger.Debug("hidden")
	logger.WithField("job_id", "j1").WithError(errors.New("boom")).Warn("apply failed", map[string]interface{}{"worker_id": "w1"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatal(err)
	}
	for key, want := range map[string]string{"level": "warn", "message": "apply failed", "job_id": "j1", "worker_id": "w1", "error": "boom"} {
		if entry[key] != want {
			t.Errorf("%s = %v, want %v", key, entry[key], want)
		}
	}
}

func TestDerivedLoggerSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewMultiLogger()
	logger.AddAdapter(adapters.NewStdoutAdapter("buf", adapters.StdoutConfig{Format: "text", Writer: &buf}))

	child := logger.WithField("component", "test")
	logger.SetLevel(ErrorLevel)
	child.Info("dropped")
	child.Error("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") || !strings.Contains(out, "kept component=test") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestDuplicateAdapter(t *testing.T) {
	logger := NewMultiLogger()
	a := adapters.NewStdoutAdapter("same", adapters.StdoutConfig{})
	if err := logger.AddAdapter(a); err != nil {
		t.Fatal(err)
	}
	if err := logger.AddAdapter(a); err == nil {
		t.Fatal("expected duplicate adapter error")
	}
}

func TestManagerFileAdapter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	cfg := config.Default()
	cfg.Logging.Adapters = append(cfg.Logging.Adapters, struct {
		Name    string                 `yaml:"name"`
		Type    string                 `yaml:"type"`
		Enabled bool                   `yaml:"enabled"`
		Options map[string]interface{} `yaml:"options"`
	}{Name: "file", Type: "file", Enabled: true, Options: map[string]interface{}{"file_path": path}})

	manager := NewManager()
	if err := manager.Initialize(cfg); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	manager.GetLogger().Info("written to file")
	if health := manager.GetLogger().Health(); health["file"] != "ok" {
		t.Errorf("health = %v", health)
	}
	if err := manager.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Fatalf("file content %q", data)
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]Level{"DEBUG": DebugLevel, "warning": WarnLevel, "error": ErrorLevel, "nonsense": InfoLevel}
	for in, want := range cases {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
