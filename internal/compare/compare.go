/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package compare produces line diffs between screenplays by comparing their
// rendered text.
package compare

import (
	"fmt"
	"strings"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"

	"goscreenwriter/internal/script"
)

// Op is the kind of a diff line.
type Op int8

const (
	Equal Op = iota
	Insert
	Delete
)

func (o Op) prefix() string {
	switch o {
	case Insert:
		return "+"
	case Delete:
		return "-"
	}
	return " "
}

// Change is one line of a diff.
type Change struct {
	Op   Op
	Line string
}

// Lines diffs two texts line by line.
func Lines(a, b string) []Change {
	dmp := diffpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(terminate(a), terminate(b))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	var out []Change
	for _, d := range diffs {
		op := Equal
		switch d.Type {
		case diffpatch.DiffInsert:
			op = Insert
		case diffpatch.DiffDelete:
			op = Delete
		}
		for _, l := range strings.SplitAfter(d.Text, "\n") {
			if l == "" {
				continue
			}
			out = append(out, Change{Op: op, Line: strings.TrimSuffix(l, "\n")})
		}
	}
	return out
}

func terminate(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// Screenplays renders both documents with opt and diffs the result.
func Screenplays(a, b script.Screenplay, opt script.RenderOptions) []Change {
	return Lines(script.Render(a, opt), script.Render(b, opt))
}

// Stats counts inserted and deleted lines.
func Stats(changes []Change) (added, removed int) {
	for _, c := range changes {
		switch c.Op {
		case Insert:
			added++
		case Delete:
			removed++
		}
	}
	return added, removed
}

// Unified formats changes with +/-/space prefixes. With context >= 0 only
// that many unchanged lines are kept around each change and skipped stretches
// are marked with an "@@ line N @@" header; a negative context prints every line.
func Unified(changes []Change, context int) string {
	var b strings.Builder
	if context < 0 {
		for _, c := range changes {
			b.WriteString(c.Op.prefix() + c.Line + "\n")
		}
		return b.String()
	}

	keep := make([]bool, len(changes))
	for i, c := range changes {
		if c.Op == Equal {
			continue
		}
		lo, hi := max(0, i-context), min(len(changes)-1, i+context)
		for j := lo; j <= hi; j++ {
			keep[j] = true
		}
	}
	line := 1 // position in the old text
	gap := true
	for i, c := range changes {
		if !keep[i] {
			gap = true
		} else {
			if gap {
				fmt.Fprintf(&b, "@@ line %d @@\n", line)
				gap = false
			}
			b.WriteString(c.Op.prefix() + c.Line + "\n")
		}
		if c.Op != Insert {
			line++
		}
	}
	return b.String()
}
