/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestSearchFiltersAndSnippets(t *testing.T) {
	root := t.TempDir()
	if _, err := InitProject(root, sampleProject("Search Test")); err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := Search(ctx, root, SearchQuery{Text: "tide"})
	if err != nil {
		t.Fatalf("search text: %v", err)
	}
	if len(res) != 1 {
		t.Fatalf("expected 1 hit for tide, got %+v", res)
	}
	if r := res[0]; r.Scene != 2 || r.Character != "MARY" || r.Type != "Dialogue" || !strings.Contains(r.Snippet, "[tide]") {
		t.Fatalf("unexpected hit %+v", r)
	}

	res, err = Search(ctx, root, SearchQuery{Character: "mary", Types: []string{"Dialogue"}})
	if err != nil {
		t.Fatalf("search character: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("expected 2 lines for MARY, got %+v", res)
	}
	if res[0].Scene != 1 || res[1].Scene != 2 {
		t.Fatalf("results not in scene order: %+v", res)
	}

	res, err = Search(ctx, root, SearchQuery{SceneFrom: 2})
	if err != nil {
		t.Fatalf("search scenes: %v", err)
	}
	if len(res) != 4 {
		t.Fatalf("expected 4 rows in scene 2, got %d", len(res))
	}
	if res[0].Snippet != "EXT. BEACH - NIGHT" {
		t.Fatalf("scan without text should return full text, got %q", res[0].Snippet)
	}

	res, err = Search(ctx, root, SearchQuery{SceneTo: 1, Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("search page: %v", err)
	}
	if len(res) != 2 || res[0].Type != "Action" || res[1].Type != "Character" {
		t.Fatalf("pagination returned %+v", res)
	}
}

func TestCharactersCountsDialogue(t *testing.T) {
	root := t.TempDir()
	if _, err := InitProject(root, sampleProject("Cast")); err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	got, err := Characters(context.Background(), root)
	if err != nil {
		t.Fatalf("Characters: %v", err)
	}
	if len(got) != 2 || got["MARY"] != 2 || got["JOHN"] != 1 {
		t.Fatalf("Characters = %v", got)
	}
}

func TestSearchRequiresRoot(t *testing.T) {
	if _, err := Search(context.Background(), " ", SearchQuery{}); err == nil {
		t.Fatalf("expected error for empty root")
	}
}
