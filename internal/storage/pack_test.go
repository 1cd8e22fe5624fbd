/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"goscreenwriter/internal/script"
)

func TestPackAndUnpackProject(t *testing.T) {
	ctx := context.Background()
	ph, err := InitProject(t.TempDir(), sampleProject("Packed"))
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	src := "INT. ROOM - DAY\n\nMARY\nHello.\n"
	if err := Import(ctx, ph, "draft.fountain", []byte(src), script.DefaultParseOptions()); err != nil {
		t.Fatalf("import: %v", err)
	}

	zipPath := filepath.Join(t.TempDir(), "out", "project.zip")
	if err := PackProject(ph, zipPath); err != nil {
		t.Fatalf("pack: %v", err)
	}
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	names := map[string]bool{}
	for _, f := range r.File {
		names[f.Name] = true
	}
	_ = r.Close()
	for _, want := range []string{PackManifestName, ManifestFileName, "source/draft.fountain"} {
		if !names[want] {
			t.Fatalf("zip missing %s: %v", want, names)
		}
	}
	for n := range names {
		if strings.HasPrefix(n, BackupsDirName+"/") {
			t.Fatalf("backups must not be packed: %s", n)
		}
	}

	dest := filepath.Join(t.TempDir(), "restored")
	got, err := UnpackProject(ctx, zipPath, dest)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if got.Project.Name != "Packed" {
		t.Fatalf("name: got %q", got.Project.Name)
	}
	orig, err := Open(ph.Root)
	if err != nil {
		t.Fatalf("reopen original: %v", err)
	}
	if !reflect.DeepEqual(got.Project.Screenplay.Scenes, orig.Project.Screenplay.Scenes) {
		t.Fatalf("scenes differ after unpack")
	}
	if b, err := os.ReadFile(filepath.Join(dest, SourceDirName, "draft.fountain")); err != nil || string(b) != src {
		t.Fatalf("source not restored: %q %v", b, err)
	}
	if _, err := os.Stat(filepath.Join(dest, PackManifestName)); !os.IsNotExist(err) {
		t.Fatalf("pack note should not be extracted: %v", err)
	}
	for _, d := range standardSubDirs {
		if st, err := os.Stat(filepath.Join(dest, d)); err != nil || !st.IsDir() {
			t.Fatalf("missing subdir %s: %v", d, err)
		}
	}
	res, err := Search(ctx, dest, SearchQuery{Character: "mary"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) == 0 {
		t.Fatalf("expected index rows for MARY after unpack")
	}
	snaps, err := ListScriptSnapshots(ctx, got, 10)
	if err != nil {
		t.Fatalf("snapshots: %v", err)
	}
	if len(snaps) != 1 || snaps[0].Label != "unpack project.zip" {
		t.Fatalf("unexpected revisions: %+v", snaps)
	}
}

func TestUnpackProject_RefusesExistingProject(t *testing.T) {
	ph, err := InitProject(t.TempDir(), sampleProject("A"))
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	zipPath := filepath.Join(t.TempDir(), "a.zip")
	if err := PackProject(ph, zipPath); err != nil {
		t.Fatalf("pack: %v", err)
	}
	if _, err := UnpackProject(context.Background(), zipPath, ph.Root); err == nil {
		t.Fatalf("expected error unpacking over an existing project")
	}
}

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create entry: %v", err)
		}
		_, _ = w.Write([]byte(body))
	}
	_ = zw.Close()
	_ = f.Close()
}

func TestUnpackProject_RejectsZipSlip(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "evil.zip")
	writeZip(t, zipPath, map[string]string{"../escape.txt": "nope"})

	dest := filepath.Join(dir, "dest")
	if _, err := UnpackProject(context.Background(), zipPath, dest); err == nil {
		t.Fatalf("expected zip-slip error")
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.txt")); !os.IsNotExist(err) {
		t.Fatalf("file escaped the project root: %v", err)
	}
}

func TestUnpackProject_RequiresManifest(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "bare.zip")
	writeZip(t, zipPath, map[string]string{"source/a.fountain": "INT. A - DAY\n"})
	if _, err := UnpackProject(context.Background(), zipPath, filepath.Join(dir, "dest")); err == nil {
		t.Fatalf("expected error for a pack without manifest")
	}
}

func TestUnpackProject_KeepsExistingFiles(t *testing.T) {
	ph, err := InitProject(t.TempDir(), sampleProject("Keep"))
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := os.WriteFile(filepath.Join(ph.Root, SourceDirName, "notes.txt"), []byte("packed"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	zipPath := filepath.Join(t.TempDir(), "keep.zip")
	if err := PackProject(ph, zipPath); err != nil {
		t.Fatalf("pack: %v", err)
	}
	dest := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dest, SourceDirName), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dest, SourceDirName, "notes.txt"), []byte("local"), 0o644); err != nil {
		t.Fatalf("write local: %v", err)
	}
	if _, err := UnpackProject(context.Background(), zipPath, dest); err != nil {
		t.Fatalf("unpack: %v", err)
	}
	b, _ := os.ReadFile(filepath.Join(dest, SourceDirName, "notes.txt"))
	if string(b) != "local" {
		t.Fatalf("existing file overwritten: %q", b)
	}
}

func TestPackProject_NilHandle(t *testing.T) {
	if err := PackProject(nil, filepath.Join(t.TempDir(), "x.zip")); err == nil {
		t.Fatalf("expected error for nil handle")
	}
}
