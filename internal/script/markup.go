/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"regexp"
	"strings"
)

// Delimiters lists the characters the markup codec reserves.
// Run text containing any of them is not guaranteed to round-trip.
const Delimiters = "*_~"

type delimPair struct{ open, close string }

// markers is the encode table, indexed by StyleSet.
var markers = [allStyles]delimPair{
	Bold | Italic | Underline | Strikeout: {"***~~__", "__~~***"},
	Bold | Italic | Underline:             {"***__", "__***"},
	Bold | Italic | Strikeout:             {"***~~", "~~***"},
	Bold | Underline | Strikeout:          {"**~~__", "__~~**"},
	Italic | Underline | Strikeout:        {"*~~__", "__~~*"},
	Bold | Italic:                         {"***", "***"},
	Bold | Underline:                      {"**__", "__**"},
	Bold | Strikeout:                      {"**~~", "~~**"},
	Italic | Underline:                    {"*__", "__*"},
	Italic | Strikeout:                    {"*~~", "~~*"},
	Underline | Strikeout:                 {"__~~", "~~__"},
	Bold:                                  {"**", "**"},
	Italic:                                {"*", "*"},
	Underline:                             {"__", "__"},
	Strikeout:                             {"~~", "~~"},
}

type markupRule struct {
	re    *regexp.Regexp
	style StyleSet
}

// markupRules is tried in order. Compound patterns come first because the
// shorter ones are textual prefixes of them ("**x**" inside "***x***").
var markupRules = []markupRule{
	{regexp.MustCompile(`\*\*\*~~__([^_~*]+?)__~~\*\*\*`), Bold | Italic | Underline | Strikeout},
	{regexp.MustCompile(`\*\*\*__([^_]+?)__\*\*\*`), Bold | Italic | Underline},
	{regexp.MustCompile(`\*\*\*~~([^~]+?)~~\*\*\*`), Bold | Italic | Strikeout},
	{regexp.MustCompile(`\*\*~~__([^_~*]+?)__~~\*\*`), Bold | Underline | Strikeout},
	{regexp.MustCompile(`\*~~__([^_~*]+?)__~~\*`), Italic | Underline | Strikeout},
	{regexp.MustCompile(`\*\*\*([^*]+?)\*\*\*`), Bold | Italic},
	{regexp.MustCompile(`\*\*__([^_]+?)__\*\*`), Bold | Underline},
	{regexp.MustCompile(`\*\*~~([^~]+?)~~\*\*`), Bold | Strikeout},
	{regexp.MustCompile(`\*__([^_]+?)__\*`), Italic | Underline},
	{regexp.MustCompile(`\*~~([^~]+?)~~\*`), Italic | Strikeout},
	{regexp.MustCompile(`__~~([^~]+?)~~__`), Underline | Strikeout},
	{regexp.MustCompile(`\*\*([^*]+?)\*\*`), Bold},
	{regexp.MustCompile(`\*([^*]+?)\*`), Italic},
	{regexp.MustCompile(`__([^_]+?)__`), Underline},
	{regexp.MustCompile(`~~([^~]+?)~~`), Strikeout},
}

// EncodeRun returns the run text wrapped in the delimiters of its style.
func EncodeRun(r Run) string {
	if r.Style.IsZero() {
		return r.Text
	}
	m := markers[r.Style&(allStyles-1)]
	return m.open + r.Text + m.close
}

// EncodeRuns concatenates the encoded form of every run.
func EncodeRuns(runs []Run) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(EncodeRun(r))
	}
	return b.String()
}

// DecodeMarkup splits line into styled runs.
//
// At each step the leftmost match of any rule wins; rules matching at the same
// position are ranked by table order. Text before a match becomes an unstyled
// run. With enabled=false the whole line is one unstyled run, delimiters kept,
// even when it is empty. An empty line decodes to no runs otherwise.
func DecodeMarkup(line string, enabled bool) []Run {
	if !enabled {
		return []Run{{Text: line}}
	}
	if line == "" {
		return nil
	}
	var out []Run
	rest := line
	for rest != "" {
		best := -1
		var loc []int
		for i, rule := range markupRules {
			m := rule.re.FindStringSubmatchIndex(rest)
			if m == nil {
				continue
			}
			if best < 0 || m[0] < loc[0] {
				best, loc = i, m
			}
			if loc[0] == 0 {
				break
			}
		}
		if best < 0 {
			out = append(out, Run{Text: rest})
			break
		}
		if loc[0] > 0 {
			out = append(out, Run{Text: rest[:loc[0]]})
		}
		out = append(out, Run{Text: rest[loc[2]:loc[3]], Style: markupRules[best].style})
		rest = rest[loc[1]:]
	}
	return out
}

// StripMarkup returns line with all recognised style delimiters removed.
func StripMarkup(line string) string {
	var b strings.Builder
	for _, r := range DecodeMarkup(line, true) {
		b.WriteString(r.Text)
	}
	return b.String()
}
