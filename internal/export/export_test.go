/*
 * Copyright (c) 2025
 */
package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"goscreenwriter/internal/interchange"
	"goscreenwriter/internal/script"
	"goscreenwriter/internal/storage"
)

func sampleProject() storage.Project {
	var sp script.Screenplay
	sp.AddScene(script.Scene{Elements: []script.Element{
		script.ParagraphElement(script.NewParagraph(script.KindSceneHeading, "INT. ATTIC - NIGHT")),
		script.ParagraphElement(script.Paragraph{Kind: script.KindAction, Runs: []script.Run{
			{Text: "Dust "}, {Text: "everywhere", Style: script.Bold}, {Text: "."},
		}}),
		script.ParagraphElement(script.NewParagraph(script.KindCharacter, "NORA")),
		script.ParagraphElement(script.NewParagraph(script.KindDialogue, "Who's there?")),
	}})
	return storage.Project{Name: "Attic Draft #2", Screenplay: sp}
}

func TestPayloadTypes(t *testing.T) {
	sp := sampleProject().Screenplay
	fdx, err := Payload(sp, TypeFDX, Options{})
	if err != nil || !bytes.HasPrefix(fdx, []byte("<?xml")) {
		t.Fatalf("fdx payload: %v %q", err, fdx)
	}
	js, err := Payload(sp, TypeJSON, Options{})
	if err != nil {
		t.Fatalf("json payload: %v", err)
	}
	if _, err := interchange.DecodeJSON(js); err != nil {
		t.Fatalf("json payload does not decode: %v", err)
	}
	txt, err := Payload(sp, TypeText, Options{})
	if err != nil {
		t.Fatalf("txt payload: %v", err)
	}
	if !strings.Contains(string(txt), "**everywhere**") || strings.HasPrefix(strings.Split(string(txt), "\n")[2], " ") {
		t.Fatalf("txt should be flush left with markup:\n%s", txt)
	}
	layout, err := Payload(sp, TypeTextLayout, Options{})
	if err != nil {
		t.Fatalf("layout payload: %v", err)
	}
	if strings.Contains(string(layout), "**") || !strings.Contains(string(layout), strings.Repeat(" ", script.CharacterIndent)+"NORA") {
		t.Fatalf("layout should be indented without markup:\n%s", layout)
	}
	if _, err := Payload(sp, Type("pdf"), Options{}); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestTypeHelpers(t *testing.T) {
	for path, want := range map[string]Type{
		"out/draft.fdx":     TypeFDX,
		"draft.JSON":        TypeJSON,
		"draft.txt":         TypeText,
		"draft.layout.txt":  TypeTextLayout,
		"export_layout.txt": TypeTextLayout,
		"bundle.zip":        TypeBundle,
	} {
		got, err := TypeForPath(path)
		if err != nil || got != want {
			t.Fatalf("TypeForPath(%q) = %s, %v", path, got, err)
		}
	}
	if _, err := TypeForPath("draft"); err == nil {
		t.Fatalf("expected error without extension")
	}
	if FileName("export", TypeTextLayout) != "export_layout.txt" || FileName("", TypeFDX) != "export.fdx" {
		t.Fatalf("unexpected file names")
	}
	if ContentType(TypeJSON) != "application/json" {
		t.Fatalf("json content type = %q", ContentType(TypeJSON))
	}
}

func TestBundleContents(t *testing.T) {
	data, err := Bundle(sampleProject().Screenplay, "attic", Options{})
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	names := map[string]*zip.File{}
	for _, f := range zr.File {
		names[f.Name] = f
	}
	for _, want := range []string{"attic.fdx", "attic.txt", "attic_layout.txt", "attic.json", BundleManifestName} {
		if names[want] == nil {
			t.Fatalf("bundle lacks %s", want)
		}
	}
	rc, err := names[BundleManifestName].Open()
	if err != nil {
		t.Fatalf("open manifest: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	var m BundleManifest
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("manifest json: %v", err)
	}
	if m.Scenes != 1 || m.Paragraphs != 4 || len(m.Files) != 4 {
		t.Fatalf("manifest = %+v", m)
	}
}

func TestBatchExport_ReadingPreset(t *testing.T) {
	root := t.TempDir()
	ph, err := storage.InitProject(root, sampleProject())
	if err != nil {
		t.Fatalf("init project: %v", err)
	}
	written, err := BatchExport(ph, BatchOptions{Preset: PresetReading})
	if err != nil {
		t.Fatalf("batch export reading: %v", err)
	}
	checks := []string{
		filepath.Join(root, "exports", "reading", "attic-draft-2_layout.txt"),
		filepath.Join(root, "exports", "reading", "attic-draft-2.txt"),
	}
	if len(written) != len(checks) {
		t.Fatalf("written = %v", written)
	}
	for _, p := range checks {
		st, err := os.Stat(p)
		if err != nil {
			t.Fatalf("missing %s: %v", p, err)
		}
		if st.Size() <= 0 {
			t.Fatalf("empty file: %s", p)
		}
	}
}

func TestBatchExport_AllPresetAndAbsoluteOut(t *testing.T) {
	root := t.TempDir()
	ph, err := storage.InitProject(root, sampleProject())
	if err != nil {
		t.Fatalf("init project: %v", err)
	}
	out := t.TempDir()
	written, err := BatchExport(ph, BatchOptions{OutDir: out})
	if err != nil {
		t.Fatalf("batch export: %v", err)
	}
	if len(written) != 4 {
		t.Fatalf("written = %v", written)
	}
	back, err := interchange.DecodeFDX(mustRead(t, filepath.Join(out, "attic-draft-2.fdx")))
	if err != nil || back.ParagraphCount() != 4 {
		t.Fatalf("exported fdx: %v", err)
	}
}

func TestBatchExport_Errors(t *testing.T) {
	ph, err := storage.InitProject(t.TempDir(), storage.Project{Name: "Empty"})
	if err != nil {
		t.Fatalf("init project: %v", err)
	}
	if _, err := BatchExport(ph, BatchOptions{}); err == nil {
		t.Fatalf("expected error for empty screenplay")
	}
	ph.Project = sampleProject()
	if _, err := BatchExport(ph, BatchOptions{Preset: "web"}); err == nil {
		t.Fatalf("expected error for unknown preset")
	}
	if _, err := BatchExport(nil, BatchOptions{}); err == nil {
		t.Fatalf("expected error for nil handle")
	}
}

func mustRead(t *testing.T, p string) []byte {
	t.Helper()
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read %s: %v", p, err)
	}
	return b
}
