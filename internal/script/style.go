/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import "strings"

// StyleSet is a combination of the four run decorations.
// The zero value means "no style".
type StyleSet uint8

const (
	Bold StyleSet = 1 << iota
	Italic
	Underline
	Strikeout
)

// NoStyle is the empty set.
const NoStyle StyleSet = 0

// allStyles is the number of distinct sets, including NoStyle.
const allStyles = 16

// flagNames is in canonical order: Bold, Italic, Underline, Strikeout.
var flagNames = [...]struct {
	flag StyleSet
	name string
}{
	{Bold, "Bold"},
	{Italic, "Italic"},
	{Underline, "Underline"},
	{Strikeout, "Strikeout"},
}

// comboNames maps every set to its canonical combo string, e.g. "Bold+Italic".
var comboNames = func() [allStyles]string {
	var out [allStyles]string
	for s := StyleSet(1); s < allStyles; s++ {
		parts := make([]string, 0, 4)
		for _, f := range flagNames {
			if s&f.flag != 0 {
				parts = append(parts, f.name)
			}
		}
		out[s] = strings.Join(parts, "+")
	}
	return out
}()

var comboLookup = func() map[string]StyleSet {
	m := make(map[string]StyleSet, allStyles)
	for s := StyleSet(1); s < allStyles; s++ {
		m[comboNames[s]] = s
	}
	return m
}()

// Has reports whether all flags of f are set in s.
func (s StyleSet) Has(f StyleSet) bool { return s&f == f }

// IsZero reports whether s carries no style.
func (s StyleSet) IsZero() bool { return s&(allStyles-1) == 0 }

// String returns the canonical combo string, or "" for NoStyle.
func (s StyleSet) String() string {
	return comboNames[s&(allStyles-1)]
}

// ParseStyle maps a canonical combo string to a StyleSet.
// Unrecognized or empty strings yield NoStyle and ok=false.
func ParseStyle(name string) (StyleSet, bool) {
	s, ok := comboLookup[strings.TrimSpace(name)]
	return s, ok
}

// Styles returns all fifteen non-empty style sets in ascending bit order.
func Styles() []StyleSet {
	out := make([]StyleSet, 0, allStyles-1)
	for s := StyleSet(1); s < allStyles; s++ {
		out = append(out, s)
	}
	return out
}
