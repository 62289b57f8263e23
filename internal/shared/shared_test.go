package shared

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

func TestLogger(t *testing.T) {
	t.Run("NewLogger writes to the given writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hello", "segment", 7)

		if !strings.Contains(buf.String(), "hello") || !strings.Contains(buf.String(), "segment=7") {
			t.Errorf("unexpected log output: %q", buf.String())
		}
	})

	t.Run("WithLogger adds fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "video", "partsWatched7")
		logger.Warn("sync failed")

		if !strings.Contains(buf.String(), "video=partsWatched7") {
			t.Errorf("expected child field in output: %q", buf.String())
		}
	})

	t.Run("NewFileLogger creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "watch.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("failed to create file logger: %v", err)
		}
		logger.Info("started")
	})

	t.Run("ParseLogLevel", func(t *testing.T) {
		tt := []struct {
			in   string
			want log.Level
		}{
			{"", log.InfoLevel},
			{"debug", log.DebugLevel},
			{"warn", log.WarnLevel},
			{"nonsense", log.InfoLevel},
		}
		for _, tc := range tt {
			if got := ParseLogLevel(tc.in); got != tc.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tc.in, got, tc.want)
			}
		}
	})
}

func TestGenerateID(t *testing.T) {
	id := GenerateID()
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("GenerateID() = %q is not a UUID: %v", id, err)
	}
	if GenerateID() == id {
		t.Error("GenerateID() should not repeat")
	}
}
