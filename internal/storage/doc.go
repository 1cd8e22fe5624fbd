/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements screenplay project persistence and indexing.
// A project directory holds the canonical JSON manifest (screenplay.json), written transactionally with
// timestamped backups, the imported source files under source/, and batch exports under exports/.
// It also manages the per-project embedded SQLite index at <project>/.gsw/index.sqlite used for search and
// revision history. The index is derived from screenplay.json and can be rebuilt at any time.
// PackProject and UnpackProject move a project between machines as a zip.
package storage
