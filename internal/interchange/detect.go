/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */
package interchange

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"goscreenwriter/internal/script"
)

// Format names a screenplay file form.
type Format string

const (
	FormatText Format = "txt"
	FormatFDX  Format = "fdx"
	FormatJSON Format = "json"
)

// ParseFormat accepts "txt", "text", "fdx", "xml" and "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "txt", "text", "fountain":
		return FormatText, nil
	case "fdx", "xml":
		return FormatFDX, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// DetectFormat picks the format from the file extension and falls back to
// sniffing the first bytes. Anything unrecognised is plain text.
func DetectFormat(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".fdx":
		return FormatFDX
	case ".json":
		return FormatJSON
	}
	head := bytes.TrimLeft(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}), " \t\r\n")
	switch {
	case bytes.HasPrefix(head, []byte("<?xml")), bytes.HasPrefix(head, []byte("<FinalDraft")):
		return FormatFDX
	case bytes.HasPrefix(head, []byte("{")):
		return FormatJSON
	}
	return FormatText
}

// Decode reads data in the given format. opts only affects plain text.
func Decode(f Format, data []byte, opts script.ParseOptions) (script.Screenplay, error) {
	switch f {
	case FormatFDX:
		return DecodeFDX(data)
	case FormatJSON:
		return DecodeJSON(data)
	case FormatText:
		return script.ParseBytes(data, opts)
	}
	return script.Screenplay{}, fmt.Errorf("unknown format %q", string(f))
}
