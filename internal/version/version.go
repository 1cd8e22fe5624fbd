/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package version holds build information set through -ldflags, e.g.
//
//	go build -ldflags "-X goscreenwriter/internal/version.Version=1.2.0 -X goscreenwriter/internal/version.Commit=abc123"
package version

import "runtime/debug"

var (
	Version = "dev"
	Commit  = ""
)

// String returns the version, followed by the commit when one is known.
// Without a linker-provided commit the VCS revision from the build info is used.
func String() string {
	c := Commit
	if c == "" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				if s.Key == "vcs.revision" {
					c = s.Value
					break
				}
			}
		}
	}
	if len(c) > 7 {
		c = c[:7]
	}
	if c == "" {
		return Version
	}
	return Version + " (" + c + ")"
}
