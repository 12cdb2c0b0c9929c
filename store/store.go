// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store 以 SQLite（modernc，純 Go）保存檢驗報表。
//
// 報表以 zstd 壓縮的 JSON 存成 BLOB，另外攤出幾個欄位供列表查詢。
package store

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/zintix-labs/petlab/corefmt"
	"github.com/zintix-labs/petlab/dto"
	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/spec"
	"github.com/zintix-labs/petlab/stats"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS check_reports (
	run_id      TEXT PRIMARY KEY,
	model_id    INTEGER NOT NULL,
	model_name  TEXT NOT NULL,
	solved      INTEGER NOT NULL,
	lower       REAL NOT NULL,
	upper       REAL NOT NULL,
	report      BLOB NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_check_reports_created ON check_reports(created_at);
`

// DefaultListLimit List 未指定 limit 時的筆數。
const DefaultListLimit = 50

// maxFrame Import 單一報表上限。
const maxFrame = 16 << 20

var ErrNotFound = errs.NewWarn("result not found")

// Store 併發安全（database/sql 連線池）。
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open 開啟資料庫並建立 schema；":memory:" 限制為單一連線，避免每條連線各有一份資料庫。
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errs.NewFatal("store: empty path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errs.Wrap(err, "store: open db")
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errs.Wrap(err, "store: pragma")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errs.Wrap(err, "store: migrate")
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save 寫入報表；RunID 為空時補一個 uuid。同一個 RunID 重複寫入會覆蓋。
func (s *Store) Save(ctx context.Context, rep *stats.CheckReport) error {
	if rep == nil {
		return errs.NewWarn("store: nil report")
	}
	if rep.RunID == "" {
		rep.RunID = uuid.NewString()
	}
	blob, err := corefmt.PackJSON(rep)
	if err != nil {
		return err
	}
	var lo, hi float64
	if len(rep.Results) > 0 {
		lo, hi = rep.Results[0].Bounds.Lower, rep.Results[0].Bounds.Upper
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO check_reports (run_id, model_id, model_name, solved, lower, upper, report, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET
		   model_id = excluded.model_id, model_name = excluded.model_name, solved = excluded.solved,
		   lower = excluded.lower, upper = excluded.upper, report = excluded.report`,
		rep.RunID, int64(rep.ModelID), rep.ModelName, boolInt(rep.Solved()), lo, hi, blob,
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return errs.Wrap(err, "store: insert report")
	}
	return nil
}

// Get 取回完整報表；不存在回傳 ErrNotFound（Warn）。
func (s *Store) Get(ctx context.Context, runID string) (*stats.CheckReport, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return nil, errs.Warnf("store: invalid run id %q", runID)
	}
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT report FROM check_reports WHERE run_id = ?`, runID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errs.Wrap(err, "store: query report")
	}
	rep := new(stats.CheckReport)
	if err := corefmt.UnpackJSON(blob, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// List 依建立時間新到舊；modelID 為 0 代表全部。
func (s *Store) List(ctx context.Context, modelID spec.MID, limit int) ([]dto.ResultItem, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	q := `SELECT run_id, model_id, model_name, solved, lower, upper, created_at FROM check_reports`
	args := []any{}
	if modelID != 0 {
		q += ` WHERE model_id = ?`
		args = append(args, int64(modelID))
	}
	q += ` ORDER BY created_at DESC, run_id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errs.Wrap(err, "store: list reports")
	}
	defer rows.Close()
	out := []dto.ResultItem{}
	for rows.Next() {
		var (
			it      dto.ResultItem
			mid     int64
			solved  int
			created string
		)
		if err := rows.Scan(&it.RunID, &mid, &it.ModelName, &solved, &it.Lower, &it.Upper, &created); err != nil {
			return nil, errs.Wrap(err, "store: scan report")
		}
		it.ModelID = spec.MID(mid)
		it.Solved = solved != 0
		it.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, "store: iterate reports")
	}
	return out, nil
}

// Count 已儲存的報表數。
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM check_reports`).Scan(&n); err != nil {
		return 0, errs.Wrap(err, "store: count reports")
	}
	return n, nil
}

// Export 把所有報表以 blob frame 串接寫出（依 run_id 排序），回傳筆數。
func (s *Store) Export(ctx context.Context, w io.Writer) (int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT report FROM check_reports ORDER BY run_id`)
	if err != nil {
		return 0, errs.Wrap(err, "store: export query")
	}
	defer rows.Close()
	n := 0
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return n, errs.Wrap(err, "store: export scan")
		}
		if err := corefmt.WriteBlobFrame(w, blob); err != nil {
			return n, err
		}
		n++
	}
	return n, rows.Err()
}

// Import 讀回 Export 的輸出；既有的 run_id 會被覆蓋。
func (s *Store) Import(ctx context.Context, r io.Reader) (int, error) {
	fr := corefmt.NewFrameReader(r, maxFrame)
	n := 0
	for {
		blob, err := fr.Next()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		rep := new(stats.CheckReport)
		if err := corefmt.UnpackJSON(blob, rep); err != nil {
			return n, err
		}
		if err := s.Save(ctx, rep); err != nil {
			return n, err
		}
		n++
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
