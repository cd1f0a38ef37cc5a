// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"DEBUG":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_WritesJSONAndFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, flush := newWithStdout(Options{Level: "warn"}, &buf)

	logger.Info("hidden")
	logger.Warn("translation failed", "locale", "en")
	flush()

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %s", out)
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("output is not one JSON record: %v\n%s", err, out)
	}
	if rec["msg"] != "translation failed" {
		t.Errorf("msg = %v", rec["msg"])
	}
	if rec["locale"] != "en" {
		t.Errorf("locale attr = %v", rec["locale"])
	}
}

func TestNew_RollingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "postflow.log")
	var buf bytes.Buffer
	logger, flush := newWithStdout(Options{Level: "info", File: path}, &buf)

	logger.Info("post published", "slug", "fe-e-recomeco")
	flush()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "fe-e-recomeco") {
		t.Errorf("log file missing record: %s", data)
	}
}
