package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Dir    string
	Level  string // debug|info|warn|error, default info
	Stdout bool   // also write to stderr
}

// NewLogger writes JSON lines to <Dir>/uptime.log with rotation.
func NewLogger(opts Options) (*zap.Logger, error) {
	if opts.Dir == "" {
		opts.Dir = "logs"
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, err
	}
	level := zapcore.InfoLevel
	if opts.Level != "" {
		l, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		level = l
	}

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, "uptime.log"),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewJSONEncoder(cfg)

	core := zapcore.NewCore(enc, w, level)
	if opts.Stdout {
		core = zapcore.NewTee(core, zapcore.NewCore(enc.Clone(), zapcore.Lock(os.Stderr), level))
	}
	return zap.New(core, zap.AddCaller()), nil
}
