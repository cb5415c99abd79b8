package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevels(t *testing.T) {
	tests := []struct {
		name      string
		level     Level
		wantInfo  bool
		wantDebug bool
		wantWarn  bool
	}{
		{"default warn", LevelWarn, false, false, true},
		{"verbose", LevelInfo, true, false, true},
		{"debug", LevelDebug, true, true, true},
		{"error only", LevelError, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			lg := New(tt.level)
			lg.SetOutput(&buf)

			lg.Debug("debug-marker")
			lg.Info("info-marker")
			lg.Warn("warn-marker")
			lg.Error("error-marker")

			out := buf.String()
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug-marker")), out)
			assert.Equal(t, tt.wantInfo, bytes.Contains(buf.Bytes(), []byte("info-marker")), out)
			assert.Equal(t, tt.wantWarn, bytes.Contains(buf.Bytes(), []byte("warn-marker")), out)
			assert.Contains(t, out, "error-marker")
		})
	}
}

func TestCriticalAlwaysEmitted(t *testing.T) {
	var buf bytes.Buffer
	lg := New(LevelError)
	lg.SetOutput(&buf)

	lg.Critical("cannot continue: %s", "boom")
	assert.Contains(t, buf.String(), "cannot continue: boom")
	assert.Contains(t, buf.String(), "fatal")
}
