/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"goscreenwriter/internal/interchange"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/script"
)

const (
	ManifestFileName = "screenplay.json"
	BackupsDirName   = "backups"
	SourceDirName    = "source"
	ExportsDirName   = "exports"
)

var standardSubDirs = []string{
	SourceDirName,
	ExportsDirName,
	BackupsDirName,
}

// Project is the manifest content of a screenplay project.
// Source and Format describe the last imported file.
type Project struct {
	Name       string
	Source     string
	Format     interchange.Format
	UpdatedAt  time.Time
	Screenplay script.Screenplay
}

// manifest is the on-disk shape. The screenplay uses the interchange JSON form;
// FDX header and metadata, which that form does not carry, sit next to it.
type manifest struct {
	Name        string          `json:"name"`
	Source      string          `json:"source,omitempty"`
	Format      string          `json:"format,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
	FDXHeader   []script.Attr   `json:"fdx_header,omitempty"`
	FDXMetadata []manifestMeta  `json:"fdx_metadata,omitempty"`
	Screenplay  json.RawMessage `json:"screenplay"`
}

type manifestMeta struct {
	Name string `json:"name"`
	Raw  string `json:"raw"`
}

// MarshalJSON writes the manifest form of p.
func (p Project) MarshalJSON() ([]byte, error) {
	sp, err := interchange.EncodeJSON(p.Screenplay)
	if err != nil {
		return nil, err
	}
	m := manifest{
		Name:       p.Name,
		Source:     p.Source,
		Format:     string(p.Format),
		UpdatedAt:  p.UpdatedAt,
		FDXHeader:  p.Screenplay.Header,
		Screenplay: json.RawMessage(sp),
	}
	for _, n := range p.Screenplay.Metadata {
		m.FDXMetadata = append(m.FDXMetadata, manifestMeta{Name: n.Name, Raw: string(n.Raw)})
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads the manifest form; the screenplay is schema-checked.
func (p *Project) UnmarshalJSON(b []byte) error {
	var m manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	var sp script.Screenplay
	if len(m.Screenplay) > 0 && string(m.Screenplay) != "null" {
		var err error
		if sp, err = interchange.DecodeJSON(m.Screenplay); err != nil {
			return fmt.Errorf("manifest screenplay: %w", err)
		}
	}
	sp.Header = m.FDXHeader
	for _, n := range m.FDXMetadata {
		sp.Metadata = append(sp.Metadata, script.MetaNode{Name: n.Name, Raw: []byte(n.Raw)})
	}
	*p = Project{
		Name:       m.Name,
		Source:     m.Source,
		Format:     interchange.Format(m.Format),
		UpdatedAt:  m.UpdatedAt,
		Screenplay: sp,
	}
	return nil
}

// ProjectHandle keeps track of the project state loaded/saved from disk.
// Root is the project directory containing screenplay.json and subfolders.
type ProjectHandle struct {
	Root         string
	ManifestPath string
	Project      Project
}

// InitProject creates a new project directory at root (creating it if it doesn't exist),
// scaffolds the standard subfolders, and writes the given manifest file transactionally.
func InitProject(root string, proj Project) (*ProjectHandle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create project root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, fmt.Errorf("create subdir %s: %w", d, err)
		}
	}

	ph := &ProjectHandle{
		Root:         root,
		ManifestPath: filepath.Join(root, ManifestFileName),
		Project:      proj,
	}
	if err := Save(ph); err != nil {
		return nil, err
	}
	// the index is derived data; a failure here only costs search
	if err := BuildIndexIfEmpty(context.Background(), root, ph.Project); err != nil {
		applog.WithComponent("storage").Warn("initial index build failed", slog.String("root", root), slog.Any("err", err))
	}
	return ph, nil
}

// Open loads an existing project from the given root directory.
// If the current manifest cannot be read or parsed, it will attempt last backup.
func Open(root string) (*ProjectHandle, error) {
	mpath := filepath.Join(root, ManifestFileName)
	b, err := os.ReadFile(mpath)
	if err != nil {
		proj, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("open manifest: %w; backup attempt: %v", err, berr)
		}
		return &ProjectHandle{Root: root, ManifestPath: mpath, Project: *proj}, nil
	}
	var p Project
	if uerr := json.Unmarshal(b, &p); uerr != nil {
		proj, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("parse manifest: %w; backup attempt: %v", uerr, berr)
		}
		return &ProjectHandle{Root: root, ManifestPath: mpath, Project: *proj}, nil
	}
	return &ProjectHandle{Root: root, ManifestPath: mpath, Project: p}, nil
}

// Save writes the current ProjectHandle.Project to disk with transactional semantics
// and a timestamped backup of the previous manifest (if present).
func Save(ph *ProjectHandle) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	if ph.Root == "" || ph.ManifestPath == "" {
		return errors.New("invalid ProjectHandle: missing paths")
	}
	ph.Project.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(ph.Project, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	data = append(data, '\n')

	bdir := filepath.Join(ph.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}

	if _, statErr := os.Stat(ph.ManifestPath); statErr == nil {
		stamp := time.Now().Format("20060102-150405.000")
		bname := fmt.Sprintf("%s.%s.bak", ManifestFileName, stamp)
		if cerr := copyFile(ph.ManifestPath, filepath.Join(bdir, bname)); cerr != nil {
			return fmt.Errorf("backup current manifest: %w", cerr)
		}
	}

	// temp file in the same directory, then rename over the target
	temp := filepath.Join(filepath.Dir(ph.ManifestPath), fmt.Sprintf(".%s.tmp-%d-%d", ManifestFileName, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp manifest: %w", werr)
	}
	// Windows cannot rename over an existing file
	if _, err := os.Stat(ph.ManifestPath); err == nil {
		_ = os.Remove(ph.ManifestPath)
	}
	if rerr := os.Rename(temp, ph.ManifestPath); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace manifest: %w", rerr)
	}
	return nil
}

// SaveAs writes the manifest to a new root folder, scaffolding structure if needed, and updates the handle.
func SaveAs(ph *ProjectHandle, newRoot string) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	if newRoot == "" {
		return errors.New("new root is empty")
	}
	for _, d := range append([]string{""}, standardSubDirs...) {
		if err := os.MkdirAll(filepath.Join(newRoot, d), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Join(newRoot, d), err)
		}
	}
	ph.Root = newRoot
	ph.ManifestPath = filepath.Join(newRoot, ManifestFileName)
	return Save(ph)
}

// AutosaveCrashSnapshot writes the in-memory project next to the backups without
// touching screenplay.json and returns the file path.
func AutosaveCrashSnapshot(ph *ProjectHandle) (string, error) {
	if ph == nil || ph.Root == "" {
		return "", errors.New("invalid ProjectHandle")
	}
	data, err := json.MarshalIndent(ph.Project, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal crash snapshot: %w", err)
	}
	bdir := filepath.Join(ph.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	path := filepath.Join(bdir, fmt.Sprintf("crash-%s.%s", time.Now().Format("20060102-150405"), ManifestFileName))
	if err := writeFileSync(path, append(data, '\n')); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return path, nil
}

func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// openFromLatestBackup tries to open the latest timestamped backup.
func openFromLatestBackup(root string) (*Project, error) {
	bdir := filepath.Join(root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, ManifestFileName+".") && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, name))
		}
	}
	if len(candidates) == 0 {
		return nil, errors.New("no backups found")
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	b, err := os.ReadFile(candidates[len(candidates)-1])
	if err != nil {
		return nil, fmt.Errorf("read latest backup: %w", err)
	}
	var p Project
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse latest backup: %w", err)
	}
	return &p, nil
}
