/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestFromEnv(t *testing.T) {
	t.Setenv("GSW_LOG_LEVEL", "warn")
	t.Setenv("GSW_LOG_FORMAT", "json")
	t.Setenv("GSW_LOG_SOURCE", "TRUE")
	t.Setenv("GSW_LOG_FILE", "")
	t.Setenv("GSW_LOG_MAX_SIZE_MB", "5")
	t.Setenv("GSW_LOG_MAX_BACKUPS", "many")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}
	if opts.Rotate.MaxSizeMB != 5 || opts.Rotate.MaxBackups != 0 {
		t.Fatalf("rotate options: %+v", opts.Rotate)
	}
	if v := getenv("GSW_SOME_UNSET_VAR", "fallback"); v != "fallback" {
		t.Fatalf("getenv fallback failed: %q", v)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConsoleHandlerLine(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, slog.LevelWarn, false)

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info should not be enabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error should be enabled at warn level")
	}

	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "parser")}).WithGroup("scene")
	ts := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	r := slog.NewRecord(ts, slog.LevelError, "bad heading", 0)
	r.AddAttrs(
		slog.Int("n", 42),
		slog.Float64("ratio", 0.5),
		slog.Bool("forced", true),
		slog.String("text", "INT. HOUSE - DAY"),
		slog.Duration("took", 1500*time.Millisecond),
		slog.Any("err", errors.New("no dot")),
	)
	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle error: %v", err)
	}

	out := buf.String()
	want := ts.Format("15:04:05.000") + " ERR bad heading component=parser"
	if !strings.HasPrefix(out, want) {
		t.Fatalf("line prefix:\n got %q\nwant %q", out, want)
	}
	for _, frag := range []string{
		"scene.n=42",
		"scene.ratio=0.5",
		"scene.forced=true",
		`scene.text="INT. HOUSE - DAY"`,
		"scene.took=1.5s",
		`scene.err="no dot"`,
	} {
		if !strings.Contains(out, frag) {
			t.Fatalf("missing %q in %q", frag, out)
		}
	}
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected a single line: %q", out)
	}
}

func TestConsoleHandlerFlattensGroupsAndSource(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(newConsoleHandler(&buf, slog.LevelDebug, true))
	l.Debug("counts", slog.Group("doc", slog.Int("scenes", 3), slog.String("name", "")))

	out := buf.String()
	if !strings.Contains(out, "DBG counts") {
		t.Fatalf("level/message missing: %q", out)
	}
	if !strings.Contains(out, "doc.scenes=3") || !strings.Contains(out, `doc.name=""`) {
		t.Fatalf("group not flattened: %q", out)
	}
	if !strings.Contains(out, "src=log/logger_more_test.go:") {
		t.Fatalf("source missing: %q", out)
	}
}

func TestQuoteIfNeeded(t *testing.T) {
	cases := map[string]string{
		"plain":       "plain",
		"":            `""`,
		"two words":   `"two words"`,
		"a=b":         `"a=b"`,
		"line\nbreak": `"line\nbreak"`,
	}
	for in, want := range cases {
		if got := quoteIfNeeded(in); got != want {
			t.Fatalf("quoteIfNeeded(%q) = %q, want %q", in, got, want)
		}
	}
}
