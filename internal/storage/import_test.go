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
	"os"
	"path/filepath"
	"testing"

	"goscreenwriter/internal/interchange"
	"goscreenwriter/internal/script"
)

func TestImportTextAndFDX(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, Project{Name: "Imports"})
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	ctx := context.Background()

	text := []byte("INT. LIGHTHOUSE - NIGHT\n\nThe lamp turns.")
	if err := Import(ctx, ph, "draft.txt", text, script.DefaultParseOptions()); err != nil {
		t.Fatalf("Import text: %v", err)
	}
	if ph.Project.Format != interchange.FormatText || ph.Project.Source != "source/draft.txt" {
		t.Fatalf("project source = %q %q", ph.Project.Source, ph.Project.Format)
	}
	if b, err := os.ReadFile(filepath.Join(root, SourceDirName, "draft.txt")); err != nil || string(b) != string(text) {
		t.Fatalf("source copy = %q %v", b, err)
	}
	res, err := Search(ctx, root, SearchQuery{Text: "lamp"})
	if err != nil || len(res) != 1 {
		t.Fatalf("search after import: %+v %v", res, err)
	}

	fdx := []byte(`<FinalDraft Version="3"><Content>
		<Paragraph Type="Scene Heading"><Text>EXT. CLIFF - DAY</Text></Paragraph>
		<Paragraph Type="Action"><Text>Gulls circle.</Text></Paragraph>
	</Content></FinalDraft>`)
	if err := Import(ctx, ph, "/tmp/elsewhere/rewrite.fdx", fdx, script.DefaultParseOptions()); err != nil {
		t.Fatalf("Import fdx: %v", err)
	}
	opened, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if opened.Project.Format != interchange.FormatFDX || opened.Project.Screenplay.ParagraphCount() != 2 {
		t.Fatalf("opened = %+v", opened.Project)
	}
	if len(opened.Project.Screenplay.Header) != 1 {
		t.Fatalf("FDX header not kept: %#v", opened.Project.Screenplay.Header)
	}
	history, err := ListScriptSnapshots(ctx, ph, 10)
	if err != nil || len(history) != 2 || history[0].Label != "import rewrite.fdx" {
		t.Fatalf("history = %+v %v", history, err)
	}
	res, err = Search(ctx, root, SearchQuery{Text: "lamp"})
	if err != nil || len(res) != 0 {
		t.Fatalf("old text still indexed: %+v %v", res, err)
	}
}

func TestImportMalformedLeavesProject(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, sampleProject("Keep"))
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	err = Import(context.Background(), ph, "broken.json", []byte(`{"scenes": [`), script.DefaultParseOptions())
	if !errors.Is(err, interchange.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if ph.Project.Screenplay.ParagraphCount() != 11 {
		t.Fatalf("project changed after failed import")
	}
	if _, err := os.Stat(filepath.Join(root, SourceDirName, "broken.json")); !os.IsNotExist(err) {
		t.Fatalf("failed import should not store the source")
	}
}
