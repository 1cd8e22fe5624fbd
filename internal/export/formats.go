/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes a screenplay out in its download formats and runs
// preset batch exports into a project's exports folder.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"goscreenwriter/internal/interchange"
	"goscreenwriter/internal/script"
)

// Type is an export payload type.
type Type string

const (
	TypeFDX        Type = "fdx"
	TypeText       Type = "txt"
	TypeTextLayout Type = "txt-layout"
	TypeJSON       Type = "json"
	TypeBundle     Type = "zip"
)

// Types lists the single-document payload types in a stable order.
func Types() []Type {
	return []Type{TypeFDX, TypeText, TypeTextLayout, TypeJSON}
}

// textPlain is flush-left text that keeps style delimiters.
var textPlain = script.RenderOptions{Spacing: false, Markup: true}

// ParseType accepts a type name case-insensitively.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TypeFDX, TypeText, TypeTextLayout, TypeJSON, TypeBundle:
		return t, nil
	}
	return "", fmt.Errorf("unknown export type %q", s)
}

// Options tunes payload generation.
type Options struct {
	FDX interchange.FDXOptions
}

// Payload renders sp as t.
func Payload(sp script.Screenplay, t Type, opt Options) ([]byte, error) {
	switch t {
	case TypeFDX:
		return interchange.EncodeFDX(sp, opt.FDX)
	case TypeJSON:
		return interchange.EncodeJSON(sp)
	case TypeText:
		return []byte(script.Render(sp, textPlain) + "\n"), nil
	case TypeTextLayout:
		return []byte(script.Render(sp, script.PresetDisplay) + "\n"), nil
	case TypeBundle:
		return Bundle(sp, "screenplay", opt)
	}
	return nil, fmt.Errorf("unknown export type %q", string(t))
}

// FileName is the download name for base exported as t.
func FileName(base string, t Type) string {
	if base == "" {
		base = "export"
	}
	switch t {
	case TypeTextLayout:
		return base + "_layout.txt"
	default:
		return base + "." + string(t)
	}
}

// ContentType is the media type served for t.
func ContentType(t Type) string {
	switch t {
	case TypeFDX:
		return "application/xml; charset=utf-8"
	case TypeJSON:
		return "application/json"
	case TypeText, TypeTextLayout:
		return "text/plain; charset=utf-8"
	case TypeBundle:
		return "application/zip"
	}
	return "application/octet-stream"
}

// TypeForPath picks the payload type from an output file name.
// "name.layout.txt" selects the display layout.
func TypeForPath(path string) (Type, error) {
	lower := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(lower, ".layout.txt") || strings.HasSuffix(lower, "_layout.txt") {
		return TypeTextLayout, nil
	}
	ext := strings.TrimPrefix(filepath.Ext(lower), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot infer export type of %q", path)
	}
	return ParseType(ext)
}

// WriteFile renders sp as t into outPath, creating parent directories.
func WriteFile(sp script.Screenplay, t Type, outPath string, opt Options) error {
	data, err := Payload(sp, t, opt)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", string(t), err)
	}
	return nil
}
