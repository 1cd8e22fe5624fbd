/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"goscreenwriter/internal/script"
	"goscreenwriter/internal/version"
)

// BundleManifestName is the summary file stored in every bundle.
const BundleManifestName = "manifest.json"

// BundleManifest describes the contents of a bundle archive.
type BundleManifest struct {
	Name       string    `json:"name"`
	Created    time.Time `json:"created"`
	Generator  string    `json:"generator"`
	Scenes     int       `json:"scenes"`
	Paragraphs int       `json:"paragraphs"`
	Files      []string  `json:"files"`
}

// Bundle packs every single-document payload of sp into one ZIP archive,
// plus a manifest.json summary.
func Bundle(sp script.Screenplay, name string, opt Options) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	m := BundleManifest{
		Name:       name,
		Created:    time.Now().UTC(),
		Generator:  "goscreenwriter " + version.String(),
		Scenes:     len(sp.Scenes),
		Paragraphs: sp.ParagraphCount(),
	}
	for _, t := range Types() {
		data, err := Payload(sp, t, opt)
		if err != nil {
			return nil, fmt.Errorf("bundle %s: %w", string(t), err)
		}
		fname := FileName(name, t)
		if err := addZipFile(zw, fname, data); err != nil {
			return nil, fmt.Errorf("zip add %s: %w", fname, err)
		}
		m.Files = append(m.Files, fname)
	}
	mb, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("build manifest: %w", err)
	}
	if err := addZipFile(zw, BundleManifestName, mb); err != nil {
		return nil, fmt.Errorf("zip add manifest: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

func addZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
