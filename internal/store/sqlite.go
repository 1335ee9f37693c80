package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/stratevo/intel-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It is the default
// backend for local CLI use.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	tenant_id  TEXT NOT NULL,
	kind       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	params     TEXT,
	summary    TEXT,
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS run_events (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	level      TEXT NOT NULL,
	message    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS run_steps (
	id          TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL REFERENCES runs(id),
	key         TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	result      TEXT,
	error       TEXT NOT NULL DEFAULT '',
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS competitors (
	tenant_id  TEXT NOT NULL,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	identity   TEXT NOT NULL,
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (tenant_id, run_id, identity)
);

CREATE TABLE IF NOT EXISTS competitor_products (
	id        TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	run_id    TEXT NOT NULL REFERENCES runs(id),
	data      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS search_cache (
	query_hash TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	cached_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_tenant ON runs(tenant_id, created_at);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_run_events_run ON run_events(run_id, created_at);
CREATE INDEX IF NOT EXISTS idx_run_steps_run ON run_steps(run_id);
CREATE INDEX IF NOT EXISTS idx_products_run ON competitor_products(tenant_id, run_id);
CREATE INDEX IF NOT EXISTS idx_search_cache_expires ON search_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, tenantID string, kind model.RunKind, params []byte) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, tenant_id, kind, status, params, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, tenantID, string(kind), string(model.RunStatusQueued), nullableBlob(params), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		TenantID:  tenantID,
		Kind:      kind,
		Status:    model.RunStatusQueued,
		Params:    params,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, summary []byte) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, summary = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusComplete), nullableBlob(summary), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), reason, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, tenantID, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, kind, status, params, summary, error, created_at, updated_at
		 FROM runs WHERE id = ? AND tenant_id = ?`,
		runID, tenantID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, tenantID string, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, tenant_id, kind, status, params, summary, error, created_at, updated_at
	          FROM runs WHERE tenant_id = ?`
	args := []any{tenantID}

	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(filter.Kind))
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) AppendEvent(ctx context.Context, runID, level, message string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_events (id, run_id, level, message, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), runID, level, message, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: append event for run %s", runID)
}

func (s *SQLiteStore) ListEvents(ctx context.Context, runID string) ([]model.RunEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, level, message, created_at FROM run_events
		 WHERE run_id = ? ORDER BY created_at`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list events")
	}
	defer rows.Close()

	var events []model.RunEvent
	for rows.Next() {
		var e model.RunEvent
		if err := rows.Scan(&e.ID, &e.RunID, &e.Level, &e.Message, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan event")
		}
		events = append(events, e)
	}
	return events, eris.Wrap(rows.Err(), "sqlite: list events iterate")
}

// StartStep inserts a running step for key, or restarts the existing one:
// re-running a key resets its status, result, and error so a retried pass can
// record a fresh outcome instead of wedging on the old failure.
func (s *SQLiteStore) StartStep(ctx context.Context, runID, key, name string) (*model.RunStep, error) {
	now := time.Now().UTC()

	var id string
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO run_steps (id, run_id, key, name, status, started_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET status = excluded.status, result = NULL, error = '', finished_at = NULL, started_at = excluded.started_at
		 RETURNING id`,
		uuid.New().String(), runID, key, name, string(model.StepRunning), now,
	).Scan(&id)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: start step %s", key)
	}

	return &model.RunStep{
		ID:        id,
		RunID:     runID,
		Key:       key,
		Name:      name,
		Status:    model.StepRunning,
		StartedAt: now,
	}, nil
}

func (s *SQLiteStore) FinishStep(ctx context.Context, stepID string, status model.StepStatus, result []byte, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE run_steps SET status = ?, result = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(status), nullableBlob(result), reason, time.Now().UTC(), stepID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish step %s", stepID)
	}
	return checkRowsAffected(res, stepID)
}

func (s *SQLiteStore) StepCompleted(ctx context.Context, key string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM run_steps WHERE key = ? AND status = ?`,
		key, string(model.StepComplete),
	).Scan(&n)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: step completed %s", key)
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListSteps(ctx context.Context, runID string) ([]model.RunStep, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, key, name, status, result, error, started_at, finished_at
		 FROM run_steps WHERE run_id = ? ORDER BY started_at`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list steps")
	}
	defer rows.Close()

	var steps []model.RunStep
	for rows.Next() {
		var st model.RunStep
		var result sql.NullString
		var finished sql.NullTime
		if err := rows.Scan(&st.ID, &st.RunID, &st.Key, &st.Name, &st.Status, &result, &st.Error, &st.StartedAt, &finished); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan step")
		}
		if result.Valid {
			st.Result = []byte(result.String)
		}
		if finished.Valid {
			t := finished.Time
			st.FinishedAt = &t
		}
		steps = append(steps, st)
	}
	return steps, eris.Wrap(rows.Err(), "sqlite: list steps iterate")
}

func (s *SQLiteStore) UpsertCompetitor(ctx context.Context, tenantID, runID string, c model.EnrichedCompetitor) error {
	data, err := json.Marshal(c)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal competitor")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO competitors (tenant_id, run_id, identity, data, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (tenant_id, run_id, identity) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		tenantID, runID, c.Identity(), string(data), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert competitor %s", c.Identity())
}

func (s *SQLiteStore) ListCompetitors(ctx context.Context, tenantID, runID string) ([]model.EnrichedCompetitor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM competitors WHERE tenant_id = ? AND run_id = ? ORDER BY identity`,
		tenantID, runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list competitors")
	}
	defer rows.Close()

	var out []model.EnrichedCompetitor
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan competitor")
		}
		var c model.EnrichedCompetitor
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal competitor")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list competitors iterate")
}

func (s *SQLiteStore) SaveProducts(ctx context.Context, tenantID, runID string, products []model.CompetitorProduct) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin products tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM competitor_products WHERE tenant_id = ? AND run_id = ?`,
		tenantID, runID,
	); err != nil {
		return eris.Wrap(err, "sqlite: clear products")
	}

	for _, p := range products {
		data, err := json.Marshal(p)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal product")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO competitor_products (id, tenant_id, run_id, data) VALUES (?, ?, ?, ?)`,
			uuid.New().String(), tenantID, runID, string(data),
		); err != nil {
			return eris.Wrap(err, "sqlite: insert product")
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit products")
}

func (s *SQLiteStore) ListProducts(ctx context.Context, tenantID, runID string) ([]model.CompetitorProduct, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM competitor_products WHERE tenant_id = ? AND run_id = ?`,
		tenantID, runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list products")
	}
	defer rows.Close()

	var out []model.CompetitorProduct
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan product")
		}
		var p model.CompetitorProduct
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal product")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list products iterate")
}

func (s *SQLiteStore) GetCachedSearch(ctx context.Context, queryHash string) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM search_cache WHERE query_hash = ? AND expires_at > datetime('now')`,
		queryHash,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached search")
	}
	return []byte(payload), nil
}

func (s *SQLiteStore) SetCachedSearch(ctx context.Context, queryHash string, payload []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_cache (query_hash, payload, cached_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (query_hash) DO UPDATE SET payload = excluded.payload, cached_at = excluded.cached_at, expires_at = excluded.expires_at`,
		queryHash, string(payload), now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: set cached search")
}

func (s *SQLiteStore) DeleteExpiredSearches(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM search_cache WHERE expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired searches")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// helpers

func nullableBlob(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s", id)
	}
	return nil
}

