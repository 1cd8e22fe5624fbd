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
	"os/signal"
	"syscall"

	"goscreenwriter/internal/backend"
	"goscreenwriter/internal/config"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/version"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			fmt.Println(version.String())
			return
		}
	}
	cfg, _, _ := config.Load()
	applog.Init(cfg.LogOptions())
	defer func() { _ = applog.Close() }()
	l := applog.WithComponent("gswserver")

	sc := backend.LoadConfig()
	sc.Parse = cfg.ParseOptions()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := backend.Start(ctx, sc); err != nil {
		l.Error("server stopped", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
