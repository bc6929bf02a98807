package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tu "github.com/desertthunder/ivx/internal/testing"
)

func TestShared(t *testing.T) {
	t.Run("NewLogger Writes To Writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hello", "key", "value")

		if !strings.Contains(buf.String(), "hello") || !strings.Contains(buf.String(), "key=value") {
			t.Errorf("expected log line with message and key, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "ivx.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("failed to create file logger: %v", err)
		}
		logger.Warn("written to file")

		tu.AssertFileExists(t, path)
		if !strings.Contains(tu.MustReadFile(t, path), "written to file") {
			t.Error("expected log file to contain message")
		}
	})

	t.Run("GenerateID", func(t *testing.T) {
		a, b := GenerateID(), GenerateID()
		if a == b {
			t.Error("expected unique IDs")
		}
		if len(a) != 36 {
			t.Errorf("expected uuid string, got %q", a)
		}
	})

	t.Run("MarshalJSON", func(t *testing.T) {
		compact, err := MarshalJSON(map[string]int{"a": 1}, false)
		if err != nil || string(compact) != `{"a":1}` {
			t.Errorf("unexpected compact output %s (%v)", compact, err)
		}

		pretty, err := MarshalJSON(map[string]int{"a": 1}, true)
		if err != nil || !strings.Contains(string(pretty), "\n  \"a\": 1") {
			t.Errorf("unexpected pretty output %s (%v)", pretty, err)
		}
	})

	t.Run("ExpandHome", func(t *testing.T) {
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skip("no home directory")
		}
		if got := ExpandHome("~/.ivx/session.db"); got != filepath.Join(home, ".ivx/session.db") {
			t.Errorf("unexpected expansion %s", got)
		}
		if got := ExpandHome("/abs/path"); got != "/abs/path" {
			t.Errorf("absolute path should be unchanged, got %s", got)
		}
	})
}
