/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "goscreenwriter/internal/log"
)

// PackManifestName is the human-readable note at the root of a project pack.
const PackManifestName = "pack.manifest.txt"

// PackProject zips the manifest and the source/ directory into destZip so the project
// can be moved to another machine. Backups, exports and the index are left out;
// they are rebuilt on unpack.
func PackProject(ph *ProjectHandle, destZip string) (err error) {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	if strings.TrimSpace(destZip) == "" {
		return errors.New("destination zip is required")
	}
	l := applog.WithOperation(applog.WithComponent("storage"), "pack").With(slog.String("root", ph.Root))
	if err := os.MkdirAll(filepath.Dir(destZip), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(destZip)
	zf, err := os.Create(destZip)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer func() {
		if cerr := zf.Close(); err == nil {
			err = cerr
		}
	}()
	zw := zip.NewWriter(zf)

	sp := ph.Project.Screenplay
	note := fmt.Sprintf("GoScreenwriter Project Pack\nCreated: %s\nProject: %s\nScenes: %d\nParagraphs: %d\n",
		time.Now().Format(time.RFC3339), ph.Project.Name, len(sp.Scenes), sp.ParagraphCount())
	if err := addPackFile(zw, PackManifestName, strings.NewReader(note)); err != nil {
		return err
	}
	mf, err := os.Open(ph.ManifestPath)
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	err = addPackFile(zw, ManifestFileName, mf)
	_ = mf.Close()
	if err != nil {
		return err
	}

	added := 0
	srcDir := filepath.Join(ph.Root, SourceDirName)
	err = filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == srcDir {
				return filepath.SkipDir
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(ph.Root, path)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		added++
		return addPackFile(zw, filepath.ToSlash(rel), f)
	})
	if err != nil {
		l.Error("zip build failed", slog.Any("err", err))
		return fmt.Errorf("build zip: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish zip: %w", err)
	}
	l.Info("project packed", slog.Int("sources", added), slog.String("zip", destZip))
	return nil
}

func addPackFile(zw *zip.Writer, name string, r io.Reader) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// UnpackProject extracts a pack into root, scaffolds the project folders, builds the
// index and records a revision. Existing files are not overwritten; entries that
// would land outside root are rejected.
func UnpackProject(ctx context.Context, packZip, root string) (*ProjectHandle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	l := applog.WithOperation(applog.WithComponent("storage"), "unpack").With(slog.String("root", root))
	if _, err := os.Stat(filepath.Join(root, ManifestFileName)); err == nil {
		return nil, fmt.Errorf("%s already contains a project", root)
	}
	r, err := zip.OpenReader(packZip)
	if err != nil {
		return nil, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	base, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	hasManifest := false
	installed := 0
	for _, f := range r.File {
		if f.Name == PackManifestName {
			continue
		}
		target := filepath.Join(base, filepath.FromSlash(f.Name))
		if target != base && !strings.HasPrefix(target, base+string(filepath.Separator)) {
			return nil, fmt.Errorf("pack entry %q escapes the project root", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, err
			}
			continue
		}
		if _, err := os.Stat(target); err == nil {
			l.Warn("skip existing file", slog.String("path", target))
			continue
		}
		if err := extractPackFile(f, target); err != nil {
			return nil, err
		}
		if f.Name == ManifestFileName {
			hasManifest = true
		}
		installed++
	}
	if !hasManifest {
		return nil, fmt.Errorf("pack has no %s", ManifestFileName)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(base, d), 0o755); err != nil {
			return nil, fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	ph, err := Open(base)
	if err != nil {
		return nil, err
	}
	if err := BuildIndexIfEmpty(ctx, ph.Root, ph.Project); err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	if _, err := SaveScriptSnapshot(ctx, ph, "unpack "+filepath.Base(packZip), time.Now()); err != nil {
		return nil, fmt.Errorf("record revision: %w", err)
	}
	l.Info("project unpacked", slog.Int("files", installed))
	return ph, nil
}

func extractPackFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
