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
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"goscreenwriter/internal/interchange"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/script"
)

// Import decodes data into the project's screenplay. The payload is kept under
// source/, the manifest saved, a revision recorded and the index refreshed.
// On a decode error the project is left untouched.
func Import(ctx context.Context, ph *ProjectHandle, name string, data []byte, opts script.ParseOptions) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return errors.New("import name is required")
	}
	l := applog.WithOperation(applog.WithComponent("storage"), "import").With(
		slog.String("root", ph.Root),
		slog.String("file", base),
	)
	format := interchange.DetectFormat(base, data)
	sp, err := interchange.Decode(format, data, opts)
	if err != nil {
		l.ErrorContext(ctx, "decode failed", slog.String("format", string(format)), slog.Any("err", err))
		return fmt.Errorf("import %s: %w", base, err)
	}

	if err := writeFileSync(filepath.Join(ph.Root, SourceDirName, base), data); err != nil {
		return fmt.Errorf("store source: %w", err)
	}
	ph.Project.Screenplay = sp
	ph.Project.Source = filepath.ToSlash(filepath.Join(SourceDirName, base))
	ph.Project.Format = format
	if err := Save(ph); err != nil {
		return err
	}
	if _, err := SaveScriptSnapshot(ctx, ph, "import "+base, time.Now()); err != nil {
		return fmt.Errorf("record revision: %w", err)
	}
	if err := UpdateIndex(ctx, ph.Root, ph.Project); err != nil {
		return fmt.Errorf("update index: %w", err)
	}
	l.InfoContext(ctx, "imported", slog.String("format", string(format)), slog.Int("scenes", len(sp.Scenes)), slog.Int("paragraphs", sp.ParagraphCount()))
	return nil
}
