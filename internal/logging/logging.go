// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package logging builds the process-wide slog.Logger. Records are written
// by a zap core: JSON to stdout, plus an optional rolling file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	Level string // debug, info, warn, error
	File  string // rolling log file; empty disables it
	Dev   bool   // console encoding on stdout
}

// New returns a logger and a flush function to call before exit.
func New(opts Options) (*slog.Logger, func()) {
	return newWithStdout(opts, os.Stdout)
}

func newWithStdout(opts Options, stdout io.Writer) (*slog.Logger, func()) {
	level := ParseLevel(opts.Level)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeDuration = zapcore.StringDurationEncoder

	stdoutEnc := zapcore.NewJSONEncoder(encCfg)
	if opts.Dev {
		stdoutEnc = zapcore.NewConsoleEncoder(encCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(stdoutEnc, zapcore.AddSync(stdout), level),
	}

	var file *lumberjack.Logger
	if opts.File != "" {
		_ = os.MkdirAll(filepath.Dir(opts.File), 0o755)
		file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    100, // megabytes
			MaxBackups: 3,
			MaxAge:     7, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), level))
	}

	core := zapcore.NewTee(cores...)
	logger := slog.New(zapslog.NewHandler(core, zapslog.WithCaller(true)))

	flush := func() {
		_ = core.Sync()
		if file != nil {
			_ = file.Close()
		}
	}
	return logger, flush
}

// ParseLevel maps a level name to a zap level. Unknown names mean info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
