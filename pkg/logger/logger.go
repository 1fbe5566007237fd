package logger

import (
	"academic_backend/internal/config"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is usable before InitLogger runs; it discards everything until then.
var Log = zap.NewNop()

// level is shared by every core so a config reload can change verbosity
// without rebuilding the logger.
var level = zap.NewAtomicLevelAt(zap.InfoLevel)

// LevelFor resolves log.level, falling back to debug for server.mode=debug
// and info otherwise. Unknown names are treated as unset.
func LevelFor(cfg *config.Config) zapcore.Level {
	if name := strings.TrimSpace(cfg.Log.Level); name != "" {
		var l zapcore.Level
		if err := l.UnmarshalText([]byte(strings.ToLower(name))); err == nil {
			return l
		}
	}
	if cfg.Server.Mode == "debug" {
		return zap.DebugLevel
	}
	return zap.InfoLevel
}

// SetLevel applies the configured level to the running logger.
func SetLevel(cfg *config.Config) {
	next := LevelFor(cfg)
	if prev := level.Level(); prev != next {
		level.SetLevel(next)
		Log.Info("Log level changed", zap.Stringer("from", prev), zap.Stringer("to", next))
	}
}

func InitLogger(cfg *config.Config) {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	fileWriter := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Log.Path,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   true,
	})

	level.SetLevel(LevelFor(cfg))

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), fileWriter, level),
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stdout), level),
	)

	Log = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)).
		With(zap.String("service", "academic_backend"))
}
