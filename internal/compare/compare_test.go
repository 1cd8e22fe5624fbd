/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package compare

import (
	"reflect"
	"strings"
	"testing"

	"github.com/fatih/color"

	"goscreenwriter/internal/script"
)

func TestLines(t *testing.T) {
	got := Lines("A\nB\nC", "A\nX\nC\n")
	want := []Change{{Equal, "A"}, {Delete, "B"}, {Insert, "X"}, {Equal, "C"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
	if a, r := Stats(got); a != 1 || r != 1 {
		t.Fatalf("stats = +%d -%d", a, r)
	}
}

func TestLinesIdentical(t *testing.T) {
	got := Lines("same\ntext", "same\ntext")
	if a, r := Stats(got); a != 0 || r != 0 || len(got) != 2 {
		t.Fatalf("unexpected changes: %#v", got)
	}
	if Lines("", "") != nil {
		t.Fatalf("empty texts should produce no changes")
	}
}

func TestUnified(t *testing.T) {
	changes := Lines("A\nB\nC", "A\nX\nC")
	if got := Unified(changes, -1); got != " A\n-B\n+X\n C\n" {
		t.Fatalf("full = %q", got)
	}
	if got := Unified(changes, 0); got != "@@ line 2 @@\n-B\n+X\n" {
		t.Fatalf("no context = %q", got)
	}
}

func TestScreenplays(t *testing.T) {
	opts := script.DefaultParseOptions()
	a := script.Parse("INT. HALL - DAY\n\nRain falls.", opts)
	b := script.Parse("INT. HALL - DAY\n\nSnow falls.", opts)
	changes := Screenplays(a, b, script.PresetPlain)
	want := []Change{{Equal, "INT. HALL - DAY"}, {Delete, "Rain falls."}, {Insert, "Snow falls."}}
	if !reflect.DeepEqual(changes, want) {
		t.Fatalf("got %#v", changes)
	}
}

func TestColorize(t *testing.T) {
	old := color.NoColor
	t.Cleanup(func() { color.NoColor = old })

	in := Unified(Lines("A\nB", "A\nC"), 0)
	color.NoColor = true
	if got := Colorize(in); got != in {
		t.Fatalf("NoColor should leave text as is: %q", got)
	}

	color.NoColor = false
	got := Colorize(in)
	if !strings.Contains(got, "\x1b[32m+C\x1b[0m\n") || !strings.Contains(got, "\x1b[31m-B\x1b[0m\n") {
		t.Fatalf("missing colors: %q", got)
	}
	if !strings.Contains(got, "\x1b[36m@@ line 2 @@\x1b[0m\n") {
		t.Fatalf("hunk header not colored: %q", got)
	}
}
