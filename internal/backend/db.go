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
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"goscreenwriter/internal/interchange"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/script"
	"goscreenwriter/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PGStore keeps screenplays in Postgres, with one documents row per paragraph for search.
type PGStore struct {
	db *sql.DB
}

// OpenPG connects with the pgx driver and applies embedded migrations.
func OpenPG(ctx context.Context, dsn string) (*PGStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := applyMigrations(pctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &PGStore{db: db}, nil
}

type attrJSON struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type metaJSON struct {
	Name string `json:"name"`
	Raw  string `json:"raw"`
}

func (s *PGStore) Create(ctx context.Context, name string, format interchange.Format, sp script.Screenplay) (Summary, error) {
	body, err := interchange.EncodeJSON(sp)
	if err != nil {
		return Summary{}, err
	}
	hdr := make([]attrJSON, 0, len(sp.Header))
	for _, a := range sp.Header {
		hdr = append(hdr, attrJSON{Name: a.Name, Value: a.Value})
	}
	meta := make([]metaJSON, 0, len(sp.Metadata))
	for _, m := range sp.Metadata {
		meta = append(meta, metaJSON{Name: m.Name, Raw: string(m.Raw)})
	}
	hdrB, _ := json.Marshal(hdr)
	metaB, _ := json.Marshal(meta)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	sum := Summary{Name: name, Format: format, Scenes: len(sp.Scenes), Paragraphs: sp.ParagraphCount()}
	// dialect=PostgreSQL
	err = tx.QueryRowContext(ctx, `INSERT INTO screenplays(name, source_format, body, fdx_header, fdx_metadata, scenes, paragraphs)
		VALUES ($1, $2, $3::jsonb, $4::jsonb, $5::jsonb, $6, $7)
		RETURNING id, created_at, updated_at`,
		name, string(format), string(body), string(hdrB), string(metaB), sum.Scenes, sum.Paragraphs,
	).Scan(&sum.ID, &sum.CreatedAt, &sum.UpdatedAt)
	if err != nil {
		return Summary{}, fmt.Errorf("insert screenplay: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO documents(screenplay_id, doc_type, external_ref, scene_num, speaker, raw_text)
		VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return Summary{}, fmt.Errorf("prepare documents: %w", err)
	}
	defer func() { _ = stmt.Close() }()
	for _, d := range storage.DocumentRows(storage.Project{Name: name, Screenplay: sp}) {
		scene := sql.NullInt64{Int64: int64(d.Scene), Valid: d.Scene > 0}
		speaker := sql.NullString{String: d.Character, Valid: d.Character != ""}
		if _, err := stmt.ExecContext(ctx, sum.ID, d.Type, d.Path, scene, speaker, d.Text); err != nil {
			return Summary{}, fmt.Errorf("insert document %s: %w", d.Path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Summary{}, fmt.Errorf("commit: %w", err)
	}
	return sum, nil
}

func (s *PGStore) Get(ctx context.Context, id int64) (Record, error) {
	var (
		rec              Record
		format           string
		body, hdrB, metB []byte
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, name, source_format, scenes, paragraphs, created_at, updated_at, body, fdx_header, fdx_metadata
		FROM screenplays WHERE id = $1`, id).
		Scan(&rec.ID, &rec.Name, &format, &rec.Scenes, &rec.Paragraphs, &rec.CreatedAt, &rec.UpdatedAt, &body, &hdrB, &metB)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("select screenplay: %w", err)
	}
	rec.Format = interchange.Format(format)
	sp, err := interchange.DecodeJSON(body)
	if err != nil {
		return Record{}, fmt.Errorf("stored screenplay %d: %w", id, err)
	}
	var hdr []attrJSON
	if err := json.Unmarshal(hdrB, &hdr); err != nil {
		return Record{}, fmt.Errorf("stored header %d: %w", id, err)
	}
	for _, a := range hdr {
		sp.Header = append(sp.Header, script.Attr{Name: a.Name, Value: a.Value})
	}
	var meta []metaJSON
	if err := json.Unmarshal(metB, &meta); err != nil {
		return Record{}, fmt.Errorf("stored metadata %d: %w", id, err)
	}
	for _, m := range meta {
		sp.Metadata = append(sp.Metadata, script.MetaNode{Name: m.Name, Raw: []byte(m.Raw)})
	}
	rec.Screenplay = sp
	return rec, nil
}

func (s *PGStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, source_format, scenes, paragraphs, created_at, updated_at
		FROM screenplays ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list screenplays: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Summary
	for rows.Next() {
		var (
			sum    Summary
			format string
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &format, &sum.Scenes, &sum.Paragraphs, &sum.CreatedAt, &sum.UpdatedAt); err != nil {
			return nil, err
		}
		sum.Format = interchange.Format(format)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *PGStore) Search(ctx context.Context, id int64, q storage.SearchQuery) ([]storage.SearchResult, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM screenplays WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	return SearchPG(ctx, s.db, id, q)
}

func (s *PGStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *PGStore) Close() error { return s.db.Close() }

// applyMigrations applies embedded SQL migrations in filename order and records
// each one in schema_migrations.
func applyMigrations(ctx context.Context, db *sql.DB) error {
	l := applog.WithComponent("backend")
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(strings.ToLower(name), ".sql") {
			files = append(files, name)
		}
	}
	sort.Strings(files)

	// dialect=PostgreSQL
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	for _, fname := range files {
		version, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		l.Info("applying migration", slog.String("file", fname))
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(b)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, name) VALUES ($1, $2)`, version, fname); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", fname, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", fname, err)
		}
	}
	return nil
}

func parseVersion(name string) (int64, error) {
	base := path.Base(name)
	prefix, _, ok := strings.Cut(base, "_")
	if !ok {
		return 0, errors.New("invalid migration filename: " + name)
	}
	v, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}
