package logger

import (
	"academic_backend/internal/config"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		mode, level string
		want        zapcore.Level
	}{
		{"debug", "", zap.DebugLevel},
		{"release", "", zap.InfoLevel},
		{"release", "WARN", zap.WarnLevel},
		{"debug", "error", zap.ErrorLevel},
		{"debug", "loud", zap.DebugLevel},
	}
	for _, tt := range tests {
		cfg := &config.Config{}
		cfg.Server.Mode = tt.mode
		cfg.Log.Level = tt.level
		assert.Equal(t, tt.want, LevelFor(cfg), "%s/%s", tt.mode, tt.level)
	}
}

func TestSetLevelChangesRunningLogger(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	cfg := &config.Config{}
	cfg.Server.Mode = "release"
	cfg.Log.Path = filepath.Join(t.TempDir(), "app.log")
	InitLogger(cfg)
	assert.False(t, Log.Core().Enabled(zap.DebugLevel))

	cfg.Log.Level = "debug"
	SetLevel(cfg)
	assert.True(t, Log.Core().Enabled(zap.DebugLevel))

	cfg.Log.Level = "error"
	SetLevel(cfg)
	assert.False(t, Log.Core().Enabled(zap.WarnLevel))
}
