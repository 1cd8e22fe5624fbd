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
	"database/sql"
	"errors"
	"fmt"
	"time"

	"goscreenwriter/internal/interchange"
	"goscreenwriter/internal/script"
)

// language=SQL
// dialect=SQLite
const insertScriptSnapshotSQL = `INSERT INTO script_snapshots(ts, label, text) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestScriptSnapshotSQL = `SELECT id, ts, label, text FROM script_snapshots ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const selectScriptSnapshotSQL = `SELECT id, ts, label, text FROM script_snapshots WHERE id = ?`

// language=SQL
// dialect=SQLite
const listScriptSnapshotsSQL = `SELECT id, ts, label, text FROM script_snapshots ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldScriptSnapshotsSQL = `DELETE FROM script_snapshots WHERE id NOT IN (
	SELECT id FROM script_snapshots ORDER BY ts DESC, id DESC LIMIT ?
)`

// tsLayout keeps a fixed fraction width so ts sorts lexicographically.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Snapshot is one stored revision. Text is the screenplay in interchange JSON.
type Snapshot struct {
	ID    int64
	TS    time.Time
	Label string
	Text  string
}

// Screenplay decodes the stored revision.
func (s Snapshot) Screenplay() (script.Screenplay, error) {
	return interchange.DecodeJSON([]byte(s.Text))
}

// SaveScriptSnapshot stores the handle's current screenplay as a revision.
// The index is derived data; revisions are for change tracking, not canonical storage.
func SaveScriptSnapshot(ctx context.Context, ph *ProjectHandle, label string, ts time.Time) (int64, error) {
	if ph == nil {
		return 0, errors.New("nil ProjectHandle")
	}
	data, err := interchange.EncodeJSON(ph.Project.Screenplay)
	if err != nil {
		return 0, fmt.Errorf("encode snapshot: %w", err)
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, insertScriptSnapshotSQL, ts.UTC().Format(tsLayout), label, string(data))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetLatestScriptSnapshot returns the most recent revision; ok is false when there is none.
func GetLatestScriptSnapshot(ctx context.Context, ph *ProjectHandle) (snap Snapshot, ok bool, err error) {
	if ph == nil {
		return Snapshot{}, false, errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return Snapshot{}, false, err
	}
	defer func() { _ = db.Close() }()
	snap, err = scanSnapshot(db.QueryRowContext(ctx, selectLatestScriptSnapshotSQL))
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

// GetScriptSnapshot loads a revision by id.
func GetScriptSnapshot(ctx context.Context, ph *ProjectHandle, id int64) (Snapshot, error) {
	if ph == nil {
		return Snapshot{}, errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return Snapshot{}, err
	}
	defer func() { _ = db.Close() }()
	snap, err := scanSnapshot(db.QueryRowContext(ctx, selectScriptSnapshotSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("snapshot %d not found", id)
	}
	return snap, err
}

// ListScriptSnapshots returns up to limit most recent revisions, newest first.
func ListScriptSnapshots(ctx context.Context, ph *ProjectHandle, limit int) ([]Snapshot, error) {
	if ph == nil {
		return nil, errors.New("nil ProjectHandle")
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listScriptSnapshotsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// PruneOldScriptSnapshots keeps at most keepLast revisions and deletes older ones.
func PruneOldScriptSnapshots(ctx context.Context, ph *ProjectHandle, keepLast int) (int64, error) {
	if ph == nil {
		return 0, errors.New("nil ProjectHandle")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, pruneOldScriptSnapshotsSQL, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(r rowScanner) (Snapshot, error) {
	var s Snapshot
	var tsStr string
	if err := r.Scan(&s.ID, &tsStr, &s.Label, &s.Text); err != nil {
		return Snapshot{}, err
	}
	s.TS, _ = time.Parse(time.RFC3339Nano, tsStr)
	return s, nil
}
