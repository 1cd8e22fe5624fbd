/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"goscreenwriter/internal/interchange"
	"goscreenwriter/internal/script"
	"goscreenwriter/internal/storage"
)

// ErrNotFound is returned when a screenplay id does not exist.
var ErrNotFound = errors.New("screenplay not found")

// Summary is the listing projection of a stored screenplay.
type Summary struct {
	ID         int64              `json:"id"`
	Name       string             `json:"name"`
	Format     interchange.Format `json:"format"`
	Scenes     int                `json:"scenes"`
	Paragraphs int                `json:"paragraphs"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// Record is a stored screenplay with its scene tree.
type Record struct {
	Summary
	Screenplay script.Screenplay `json:"-"`
}

// Store persists uploaded screenplays.
type Store interface {
	Create(ctx context.Context, name string, format interchange.Format, sp script.Screenplay) (Summary, error)
	Get(ctx context.Context, id int64) (Record, error)
	List(ctx context.Context) ([]Summary, error)
	Search(ctx context.Context, id int64, q storage.SearchQuery) ([]storage.SearchResult, error)
	Ping(ctx context.Context) error
	Close() error
}

// MemStore keeps screenplays in memory. It is used when no database is configured.
type MemStore struct {
	mu     sync.RWMutex
	nextID int64
	recs   map[int64]Record
}

func NewMemStore() *MemStore {
	return &MemStore{recs: map[int64]Record{}}
}

func (m *MemStore) Create(_ context.Context, name string, format interchange.Format, sp script.Screenplay) (Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	now := time.Now().UTC()
	s := Summary{
		ID:         m.nextID,
		Name:       name,
		Format:     format,
		Scenes:     len(sp.Scenes),
		Paragraphs: sp.ParagraphCount(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.recs[s.ID] = Record{Summary: s, Screenplay: sp}
	return s, nil
}

func (m *MemStore) Get(_ context.Context, id int64) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.recs[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r, nil
}

// List returns summaries, most recently updated first.
func (m *MemStore) List(_ context.Context) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Summary, 0, len(m.recs))
	for _, r := range m.recs {
		out = append(out, r.Summary)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Search matches every whitespace-separated term of q.Text as a case-insensitive
// substring. Snippets are the full paragraph text.
func (m *MemStore) Search(ctx context.Context, id int64, q storage.SearchQuery) ([]storage.SearchResult, error) {
	rec, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	terms := strings.Fields(strings.ToLower(q.Text))
	types := map[string]bool{}
	for _, t := range q.Types {
		types[t] = true
	}
	want := strings.ToLower(strings.TrimSpace(q.Character))
	var out []storage.SearchResult
	rows := storage.DocumentRows(storage.Project{Name: rec.Name, Screenplay: rec.Screenplay})
	for i, d := range rows {
		if len(types) > 0 && !types[d.Type] {
			continue
		}
		if q.SceneFrom > 0 && d.Scene < q.SceneFrom {
			continue
		}
		if q.SceneTo > 0 && d.Scene > q.SceneTo {
			continue
		}
		if want != "" && strings.ToLower(d.Character) != want {
			continue
		}
		if !containsAll(strings.ToLower(d.Text), terms) {
			continue
		}
		out = append(out, storage.SearchResult{
			DocID:     int64(i + 1),
			Type:      d.Type,
			Path:      d.Path,
			Scene:     d.Scene,
			Character: d.Character,
			Snippet:   d.Text,
		})
	}
	return paginate(out, q.Limit, q.Offset), nil
}

func (m *MemStore) Ping(context.Context) error { return nil }

func (m *MemStore) Close() error { return nil }

func containsAll(s string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(s, t) {
			return false
		}
	}
	return true
}

func paginate(rs []storage.SearchResult, limit, offset int) []storage.SearchResult {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rs) {
		return nil
	}
	rs = rs[offset:]
	if len(rs) > limit {
		rs = rs[:limit]
	}
	return rs
}
