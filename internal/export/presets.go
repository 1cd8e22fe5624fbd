/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package export

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/storage"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetInterchange PresetName = "interchange"
	PresetReading     PresetName = "reading"
	PresetArchive     PresetName = "archive"
	PresetAll         PresetName = "all"
)

// BatchOptions controls a batch export of a project.
//
// Path semantics:
//   - If OutDir is empty or relative, it is created under <project>/exports/<preset>/.
//   - Files are named after the project (sanitized), one per type.
type BatchOptions struct {
	Preset PresetName
	Types  []Type // empty means preset defaults
	OutDir string
	Options
}

// BatchExport writes the project's screenplay in every type of the preset and
// returns the written paths.
func BatchExport(ph *storage.ProjectHandle, opt BatchOptions) ([]string, error) {
	if ph == nil {
		return nil, fmt.Errorf("project handle is nil")
	}
	sp := ph.Project.Screenplay
	if len(sp.Scenes) == 0 {
		return nil, fmt.Errorf("project has no scenes")
	}
	preset := opt.Preset
	if preset == "" {
		preset = PresetAll
	}
	types := opt.Types
	if len(types) == 0 {
		var err error
		if types, err = presetDefaultTypes(preset); err != nil {
			return nil, err
		}
	}

	baseOut := opt.OutDir
	if baseOut == "" {
		baseOut = string(preset)
	}
	if !filepath.IsAbs(baseOut) {
		baseOut = filepath.Join(ph.Root, storage.ExportsDirName, baseOut)
	}
	base := fileBase(ph.Project.Name)

	l := applog.WithOperation(applog.WithComponent("export"), "batch").With(
		slog.String("preset", string(preset)),
		slog.String("out", baseOut),
	)
	var written []string
	for _, t := range types {
		out := filepath.Join(baseOut, FileName(base, t))
		if err := WriteFile(sp, t, out, opt.Options); err != nil {
			l.Error("export failed", slog.String("type", string(t)), slog.Any("err", err))
			return written, fmt.Errorf("%s: %w", string(t), err)
		}
		written = append(written, out)
	}
	l.Info("batch export done", slog.Int("files", len(written)))
	return written, nil
}

func presetDefaultTypes(p PresetName) ([]Type, error) {
	switch p {
	case PresetInterchange:
		return []Type{TypeFDX, TypeJSON}, nil
	case PresetReading:
		return []Type{TypeTextLayout, TypeText}, nil
	case PresetArchive:
		return []Type{TypeBundle}, nil
	case PresetAll:
		return Types(), nil
	}
	return nil, fmt.Errorf("unknown preset %q", string(p))
}

var reUnsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func fileBase(name string) string {
	s := strings.Trim(reUnsafeName.ReplaceAllString(strings.TrimSpace(name), "-"), "-.")
	if s == "" {
		return "screenplay"
	}
	return strings.ToLower(s)
}
