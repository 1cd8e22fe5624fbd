/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"goscreenwriter/internal/backend"
	"goscreenwriter/internal/compare"
	"goscreenwriter/internal/config"
	"goscreenwriter/internal/crash"
	"goscreenwriter/internal/export"
	"goscreenwriter/internal/interchange"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/script"
	"goscreenwriter/internal/storage"
	"goscreenwriter/internal/telemetry"
	"goscreenwriter/internal/version"
)

func usage() {
	fmt.Println("GoScreenwriter - screenplay converter")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  goscreenwriter version|-v|--version           Show version")
	fmt.Println("  goscreenwriter convert <in> <out>              Convert between .txt, .fdx and .json (.layout.txt, .zip)")
	fmt.Println("  goscreenwriter render <in> [display|export|plain]  Print the screenplay as text")
	fmt.Println("  goscreenwriter diff <a> <b>                    Show differences between two screenplays")
	fmt.Println("  goscreenwriter init <dir> <name>               Create a new project at <dir> with name <name>")
	fmt.Println("  goscreenwriter import <dir> <file>             Import a screenplay file into the project")
	fmt.Println("  goscreenwriter search <dir> <query> [character]  Search the project")
	fmt.Println("  goscreenwriter history <dir> [limit]           List stored revisions")
	fmt.Println("  goscreenwriter export <dir> [preset]           Export the project (interchange|reading|archive|all)")
	fmt.Println("  goscreenwriter pack <dir> <zip>                Bundle the project for transfer")
	fmt.Println("  goscreenwriter unpack <zip> <dir>              Restore a packed project into <dir>")
	fmt.Println("  goscreenwriter push <file>                     Upload a screenplay to the backend")
}

func main() {
	cfg, token, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
	}
	applog.Init(cfg.LogOptions())
	telemetry.NewDefault(telemetry.Config{
		OptIn:     cfg.General.TelemetryOptIn,
		EventsURL: cfg.General.TelemetryURL,
		CrashURL:  telemetry.FromEnv().CrashURL,
		Timeout:   1500 * time.Millisecond,
	})
	defer func() { _ = applog.Close() }()
	l := applog.WithComponent("cli")
	var ph *storage.ProjectHandle
	defer func() {
		if v := recover(); v != nil {
			crash.Handle(ph, v)
		}
	}()
	defer telemetry.Flush(context.Background())

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}
	ctx := context.Background()
	fail := func(op string, err error) {
		l.Error(op+" failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		telemetry.Flush(ctx)
		os.Exit(1)
	}
	need := func(n int, msg string) {
		if len(args) < n {
			fmt.Println(msg)
			usage()
			os.Exit(2)
		}
	}

	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("GoScreenwriter")
		fmt.Println(version.String())
	case "convert":
		need(4, "convert requires <in> and <out>")
		in, out := args[2], args[3]
		sp, from, err := readScreenplay(in, cfg.ParseOptions())
		if err != nil {
			if from != "" {
				telemetry.DecodeFailure(string(from), err)
			}
			fail("convert", err)
		}
		t, err := export.TypeForPath(out)
		if err != nil {
			fail("convert", err)
		}
		if err := export.WriteFile(sp, t, out, export.Options{FDX: cfg.FDXOptions()}); err != nil {
			fail("convert", err)
		}
		telemetry.Conversion(string(from), string(t), len(sp.Scenes), sp.ParagraphCount())
		l.InfoContext(applog.ContextWithDocument(ctx, in, string(from)), "converted", slog.String("out", out), slog.String("to", string(t)))
		fmt.Printf("Converted %s (%s) to %s (%s): %d scenes\n", in, from, out, t, len(sp.Scenes))
	case "render":
		need(3, "render requires <in>")
		preset := "display"
		if len(args) >= 4 {
			preset = args[3]
		}
		opt, ok := script.PresetByName(preset)
		if !ok {
			fmt.Printf("unknown preset %q\n", preset)
			usage()
			os.Exit(2)
		}
		sp, _, err := readScreenplay(args[2], cfg.ParseOptions())
		if err != nil {
			fail("render", err)
		}
		fmt.Println(script.Render(sp, opt))
	case "diff":
		need(4, "diff requires <a> and <b>")
		a, _, err := readScreenplay(args[2], cfg.ParseOptions())
		if err != nil {
			fail("diff", err)
		}
		b, _, err := readScreenplay(args[3], cfg.ParseOptions())
		if err != nil {
			fail("diff", err)
		}
		changes := compare.Screenplays(a, b, script.PresetDisplay)
		added, removed := compare.Stats(changes)
		if added == 0 && removed == 0 {
			fmt.Println("No differences.")
			return
		}
		fmt.Printf("--- %s\n+++ %s\n", args[2], args[3])
		fmt.Print(compare.Colorize(compare.Unified(changes, 3)))
		fmt.Printf("%d lines added, %d removed\n", added, removed)
	case "init":
		need(4, "init requires <dir> and <name>")
		abs, _ := filepath.Abs(args[2])
		l.Info("init project", slog.String("root", abs), slog.String("name", args[3]))
		h, err := storage.InitProject(abs, storage.Project{Name: args[3]})
		if err != nil {
			fail("init", err)
		}
		ph = h
		fmt.Println("Created project at", abs)
	case "import":
		need(4, "import requires <dir> and <file>")
		h := openProject(args[2], fail)
		ph = h
		data, err := os.ReadFile(args[3])
		if err != nil {
			fail("import", err)
		}
		pctx := applog.ContextWithProject(ctx, h.Root)
		if err := storage.Import(pctx, h, args[3], data, cfg.ParseOptions()); err != nil {
			telemetry.DecodeFailure(string(interchange.DetectFormat(args[3], data)), err)
			fail("import", err)
		}
		sp := h.Project.Screenplay
		telemetry.Conversion(string(h.Project.Format), "project", len(sp.Scenes), sp.ParagraphCount())
		fmt.Printf("Imported %s (%s): %d scenes, %d paragraphs\n", filepath.Base(args[3]), h.Project.Format, len(sp.Scenes), sp.ParagraphCount())
	case "search":
		need(4, "search requires <dir> and <query>")
		h := openProject(args[2], fail)
		ph = h
		q := storage.SearchQuery{Text: args[3]}
		if len(args) >= 5 {
			q.Character = args[4]
		}
		if _, err := storage.DetectAndRebuildIndex(ctx, h.Root, h.Project); err != nil {
			fail("search", err)
		}
		res, err := storage.Search(ctx, h.Root, q)
		if err != nil {
			fail("search", err)
		}
		if len(res) == 0 {
			fmt.Println("No matches.")
			return
		}
		for _, r := range res {
			who := ""
			if r.Character != "" {
				who = " " + r.Character + ":"
			}
			fmt.Printf("%-28s %-14s%s %s\n", r.Path, r.Type, who, r.Snippet)
		}
	case "history":
		need(3, "history requires <dir>")
		h := openProject(args[2], fail)
		ph = h
		limit := 20
		if len(args) >= 4 {
			n, err := strconv.Atoi(args[3])
			if err != nil || n <= 0 {
				fmt.Printf("invalid limit %q\n", args[3])
				os.Exit(2)
			}
			limit = n
		}
		snaps, err := storage.ListScriptSnapshots(ctx, h, limit)
		if err != nil {
			fail("history", err)
		}
		if len(snaps) == 0 {
			fmt.Println("No revisions.")
			return
		}
		for _, s := range snaps {
			summary := ""
			if sp, err := s.Screenplay(); err == nil {
				summary = fmt.Sprintf("%d scenes, %d paragraphs", len(sp.Scenes), sp.ParagraphCount())
			}
			fmt.Printf("#%-4d %s  %-30s %s\n", s.ID, s.TS.Local().Format("2006-01-02 15:04:05"), s.Label, summary)
		}
	case "export":
		need(3, "export requires <dir>")
		h := openProject(args[2], fail)
		ph = h
		preset := export.PresetAll
		if len(args) >= 4 {
			preset = export.PresetName(strings.ToLower(args[3]))
		}
		paths, err := export.BatchExport(h, export.BatchOptions{Preset: preset, Options: export.Options{FDX: cfg.FDXOptions()}})
		if err != nil {
			fail("export", err)
		}
		for _, p := range paths {
			fmt.Println(p)
		}
	case "pack":
		need(4, "pack requires <dir> and <zip>")
		h := openProject(args[2], fail)
		ph = h
		if err := storage.PackProject(h, args[3]); err != nil {
			fail("pack", err)
		}
		fmt.Println("Packed project to", args[3])
	case "unpack":
		need(4, "unpack requires <zip> and <dir>")
		abs, _ := filepath.Abs(args[3])
		h, err := storage.UnpackProject(applog.ContextWithProject(ctx, abs), args[2], abs)
		if err != nil {
			fail("unpack", err)
		}
		ph = h
		fmt.Printf("Restored %q at %s\n", h.Project.Name, abs)
	case "push":
		need(3, "push requires <file>")
		data, err := os.ReadFile(args[2])
		if err != nil {
			fail("push", err)
		}
		cli := backend.NewClient(cfg.Backend.BaseURL, token, cfg.Backend.Timeout())
		if token == "" {
			tok, err := cli.RequestToken(ctx, os.Getenv("USER"), 24*time.Hour)
			if err != nil {
				fail("push", fmt.Errorf("request token: %w", err))
			}
			if err := config.Save(cfg, tok); err != nil {
				l.Warn("token not persisted", slog.Any("err", err))
			}
		}
		up, err := cli.Upload(ctx, args[2], data)
		if err != nil {
			fail("push", err)
		}
		fmt.Printf("Uploaded %s as #%d (%s): %d scenes\n", up.Summary.Name, up.Summary.ID, up.Summary.Format, up.Summary.Scenes)
	default:
		usage()
		os.Exit(2)
	}
}

// readScreenplay decodes a file in the format its name or content indicates.
func readScreenplay(path string, opts script.ParseOptions) (script.Screenplay, interchange.Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return script.Screenplay{}, "", err
	}
	f := interchange.DetectFormat(path, data)
	sp, err := interchange.Decode(f, data, opts)
	if err != nil {
		return script.Screenplay{}, f, fmt.Errorf("%s: %w", path, err)
	}
	return sp, f, nil
}

func openProject(dir string, fail func(string, error)) *storage.ProjectHandle {
	abs, _ := filepath.Abs(dir)
	h, err := storage.Open(abs)
	if err != nil {
		fail("open", err)
	}
	return h
}
