/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a report file. In the CLI it also autosaves the
// open screenplay project and exits; in the backend it answers the request with 500.
package crash

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/storage"
	"goscreenwriter/internal/telemetry"
	"goscreenwriter/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Report is what a crash report file records.
type Report struct {
	Time     time.Time
	Where    string // "cli" or the request line
	Panic    string
	Stack    []byte
	Autosave string

	ProjectRoot string
	Manifest    string
	Source      string
	Scenes      int
	Paragraphs  int
	hasProject  bool
}

func newReport(ph *storage.ProjectHandle, where string, panicVal any, stack []byte) Report {
	r := Report{
		Time:  time.Now(),
		Where: where,
		Panic: fmt.Sprint(panicVal),
		Stack: stack,
	}
	if ph != nil {
		sp := ph.Project.Screenplay
		r.hasProject = true
		r.ProjectRoot = ph.Root
		r.Manifest = ph.ManifestPath
		if ph.Project.Source != "" {
			r.Source = fmt.Sprintf("%s (%s)", ph.Project.Source, ph.Project.Format)
		}
		r.Scenes = len(sp.Scenes)
		r.Paragraphs = sp.ParagraphCount()
	}
	return r
}

// Bytes renders the plain-text report.
func (r Report) Bytes() []byte {
	var b bytes.Buffer
	b.WriteString("GoScreenwriter Crash Report\n")
	fmt.Fprintf(&b, "Timestamp: %s\n", r.Time.Format(time.RFC3339))
	fmt.Fprintf(&b, "Version: %s\n", version.String())
	fmt.Fprintf(&b, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if r.Where != "" {
		fmt.Fprintf(&b, "Where: %s\n", r.Where)
	}
	if r.hasProject {
		fmt.Fprintf(&b, "ProjectRoot: %s\n", r.ProjectRoot)
		fmt.Fprintf(&b, "Manifest: %s\n", r.Manifest)
		if r.Source != "" {
			fmt.Fprintf(&b, "Source: %s\n", r.Source)
		}
		fmt.Fprintf(&b, "Screenplay: %d scenes, %d paragraphs\n", r.Scenes, r.Paragraphs)
	}
	if r.Autosave != "" {
		fmt.Fprintf(&b, "Autosave: %s\n", r.Autosave)
	}
	fmt.Fprintf(&b, "\nPanic: %s\n\n", r.Panic)
	fmt.Fprintf(&b, "Stack:\n%s\n", r.Stack)
	return b.Bytes()
}

// Recover captures a panic when deferred directly: defer crash.Recover(ph).
// When ph is assigned later, recover in a closure and call Handle instead.
func Recover(ph *storage.ProjectHandle) {
	if v := recover(); v != nil {
		Handle(ph, v)
	}
}

// Handle autosaves the in-memory screenplay when a project is open, writes a
// report next to the project backups (or into the temp dir) and exits with code 2.
func Handle(ph *storage.ProjectHandle, v any) {
	l := applog.WithComponent("crash")
	rep := newReport(ph, "cli", v, debug.Stack())
	l.Error("panic recovered", slog.String("panic", rep.Panic), slog.String("stack", string(rep.Stack)))

	if ph != nil {
		if path, err := storage.AutosaveCrashSnapshot(ph); err != nil {
			l.Error("autosave crash snapshot failed", slog.Any("err", err))
		} else {
			rep.Autosave = path
			l.Info("autosave crash snapshot written", slog.String("path", path))
		}
	}
	path, err := writeReport(reportDir(ph), rep)
	if err != nil {
		l.Error("crash report not written", slog.Any("err", err))
	}
	fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", path)
	fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	if rep.Autosave != "" {
		fmt.Fprintf(os.Stderr, "Unsaved work was written to: %s\n", rep.Autosave)
	}
	exitFn(2)
}

// Middleware recovers panics in HTTP handlers: it writes a report into the temp
// dir and answers 500 with a JSON error. http.ErrAbortHandler is passed through.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			rep := newReport(nil, r.Method+" "+r.URL.Path, v, debug.Stack())
			path, err := writeReport(reportDir(nil), rep)
			applog.WithComponent("crash").ErrorContext(r.Context(), "handler panic",
				slog.String("where", rep.Where),
				slog.String("panic", rep.Panic),
				slog.String("report", path),
				slog.Any("err", err),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "internal error"})
		}()
		next.ServeHTTP(w, r)
	})
}

func reportDir(ph *storage.ProjectHandle) string {
	if ph != nil && ph.Root != "" {
		return filepath.Join(ph.Root, storage.BackupsDirName)
	}
	return os.TempDir()
}

// writeReport stores rep as crash-<time>.log in dir and hands it to telemetry,
// which uploads it only when the user opted in.
func writeReport(dir string, rep Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", rep.Time.Format("20060102-150405.000")))
	data := rep.Bytes()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return path, err
	}
	telemetry.UploadCrash(data)
	return path, nil
}
