/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package script holds the screenplay document model and its plain-text side:
// the inline style markup codec, the line-classifying parser with its
// normalization and repair passes, and the layout formatter.
//
// A Screenplay is a tree of Scenes; each Scene is a list of Elements, where an
// Element is either a Paragraph or a four-paragraph DualDialogue block.
// Trees are values: the parser and the repair passes always build new slices.
package script
