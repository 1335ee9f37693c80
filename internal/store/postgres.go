package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/stratevo/intel-cli/internal/model"
)

// PostgresStore implements Store on a pgx connection pool. It is the backend
// for the shared server deployment; pgx prepares and caches statements per
// connection on its own.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres connects a pool and pings it.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			pgxCfg.MaxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			pgxCfg.MinConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Tests pass a pgxmock pool here.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	tenant_id  TEXT NOT NULL,
	kind       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	params     JSONB,
	summary    JSONB,
	error      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS run_events (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	level      TEXT NOT NULL,
	message    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS run_steps (
	id          TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL REFERENCES runs(id),
	key         TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	result      JSONB,
	error       TEXT NOT NULL DEFAULT '',
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS competitors (
	tenant_id  TEXT NOT NULL,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	identity   TEXT NOT NULL,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (tenant_id, run_id, identity)
);

CREATE TABLE IF NOT EXISTS competitor_products (
	id        TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	run_id    TEXT NOT NULL REFERENCES runs(id),
	data      JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS search_cache (
	query_hash TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_tenant ON runs(tenant_id, created_at);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_run_events_run ON run_events(run_id, created_at);
CREATE INDEX IF NOT EXISTS idx_run_steps_run ON run_steps(run_id);
CREATE INDEX IF NOT EXISTS idx_products_run ON competitor_products(tenant_id, run_id);
CREATE INDEX IF NOT EXISTS idx_search_cache_expires ON search_cache(expires_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, tenantID string, kind model.RunKind, params []byte) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, tenant_id, kind, status, params, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, tenantID, string(kind), string(model.RunStatusQueued), nullableBlob(params), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
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

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	return checkTag(tag, runID)
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, summary []byte) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, summary = $2, updated_at = $3 WHERE id = $4`,
		string(model.RunStatusComplete), nullableBlob(summary), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	return checkTag(tag, runID)
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, reason string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(model.RunStatusFailed), reason, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	return checkTag(tag, runID)
}

func (s *PostgresStore) GetRun(ctx context.Context, tenantID, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, kind, status, params, summary, error, created_at, updated_at
		 FROM runs WHERE id = $1 AND tenant_id = $2`,
		runID, tenantID,
	)
	return scanRun(row)
}

func (s *PostgresStore) ListRuns(ctx context.Context, tenantID string, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, tenant_id, kind, status, params, summary, error, created_at, updated_at
	          FROM runs WHERE tenant_id = $1`
	args := []any{tenantID}

	if filter.Kind != "" {
		args = append(args, string(filter.Kind))
		query += ` AND kind = $` + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
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
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) AppendEvent(ctx context.Context, runID, level, message string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO run_events (id, run_id, level, message, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), runID, level, message, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: append event for run %s", runID)
}

func (s *PostgresStore) ListEvents(ctx context.Context, runID string) ([]model.RunEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, run_id, level, message, created_at FROM run_events
		 WHERE run_id = $1 ORDER BY created_at`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list events")
	}
	defer rows.Close()

	var events []model.RunEvent
	for rows.Next() {
		var e model.RunEvent
		if err := rows.Scan(&e.ID, &e.RunID, &e.Level, &e.Message, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan event")
		}
		events = append(events, e)
	}
	return events, eris.Wrap(rows.Err(), "postgres: list events iterate")
}

// StartStep inserts a running step for key, or restarts the existing one so a
// retried pass can record a fresh outcome over a previous failure.
func (s *PostgresStore) StartStep(ctx context.Context, runID, key, name string) (*model.RunStep, error) {
	now := time.Now().UTC()

	var id string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO run_steps (id, run_id, key, name, status, started_at) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (key) DO UPDATE SET status = EXCLUDED.status, result = NULL, error = '', finished_at = NULL, started_at = EXCLUDED.started_at
		 RETURNING id`,
		uuid.New().String(), runID, key, name, string(model.StepRunning), now,
	).Scan(&id)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: start step %s", key)
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

func (s *PostgresStore) FinishStep(ctx context.Context, stepID string, status model.StepStatus, result []byte, reason string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE run_steps SET status = $1, result = $2, error = $3, finished_at = $4 WHERE id = $5`,
		string(status), nullableBlob(result), reason, time.Now().UTC(), stepID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish step %s", stepID)
	}
	return checkTag(tag, stepID)
}

func (s *PostgresStore) StepCompleted(ctx context.Context, key string) (bool, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM run_steps WHERE key = $1 AND status = $2`,
		key, string(model.StepComplete),
	).Scan(&n)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: step completed %s", key)
	}
	return n > 0, nil
}

func (s *PostgresStore) ListSteps(ctx context.Context, runID string) ([]model.RunStep, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, run_id, key, name, status, result, error, started_at, finished_at
		 FROM run_steps WHERE run_id = $1 ORDER BY started_at`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list steps")
	}
	defer rows.Close()

	var steps []model.RunStep
	for rows.Next() {
		var st model.RunStep
		var result []byte
		var finished *time.Time
		if err := rows.Scan(&st.ID, &st.RunID, &st.Key, &st.Name, &st.Status, &result, &st.Error, &st.StartedAt, &finished); err != nil {
			return nil, eris.Wrap(err, "postgres: scan step")
		}
		st.Result = result
		st.FinishedAt = finished
		steps = append(steps, st)
	}
	return steps, eris.Wrap(rows.Err(), "postgres: list steps iterate")
}

func (s *PostgresStore) UpsertCompetitor(ctx context.Context, tenantID, runID string, c model.EnrichedCompetitor) error {
	data, err := json.Marshal(c)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal competitor")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO competitors (tenant_id, run_id, identity, data, updated_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (tenant_id, run_id, identity) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		tenantID, runID, c.Identity(), data, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert competitor %s", c.Identity())
}

func (s *PostgresStore) ListCompetitors(ctx context.Context, tenantID, runID string) ([]model.EnrichedCompetitor, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM competitors WHERE tenant_id = $1 AND run_id = $2 ORDER BY identity`,
		tenantID, runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list competitors")
	}
	defer rows.Close()

	var out []model.EnrichedCompetitor
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan competitor")
		}
		var c model.EnrichedCompetitor
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal competitor")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list competitors iterate")
}

func (s *PostgresStore) SaveProducts(ctx context.Context, tenantID, runID string, products []model.CompetitorProduct) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM competitor_products WHERE tenant_id = $1 AND run_id = $2`,
		tenantID, runID,
	); err != nil {
		return eris.Wrap(err, "postgres: clear products")
	}

	for _, p := range products {
		data, err := json.Marshal(p)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal product")
		}
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO competitor_products (id, tenant_id, run_id, data) VALUES ($1, $2, $3, $4)`,
			uuid.New().String(), tenantID, runID, data,
		); err != nil {
			return eris.Wrap(err, "postgres: insert product")
		}
	}
	return nil
}

func (s *PostgresStore) ListProducts(ctx context.Context, tenantID, runID string) ([]model.CompetitorProduct, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM competitor_products WHERE tenant_id = $1 AND run_id = $2`,
		tenantID, runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list products")
	}
	defer rows.Close()

	var out []model.CompetitorProduct
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan product")
		}
		var p model.CompetitorProduct
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal product")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list products iterate")
}

func (s *PostgresStore) GetCachedSearch(ctx context.Context, queryHash string) ([]byte, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM search_cache WHERE query_hash = $1 AND expires_at > now()`,
		queryHash,
	).Scan(&payload)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get cached search")
	}
	return payload, nil
}

func (s *PostgresStore) SetCachedSearch(ctx context.Context, queryHash string, payload []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO search_cache (query_hash, payload, cached_at, expires_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (query_hash) DO UPDATE SET payload = EXCLUDED.payload, cached_at = EXCLUDED.cached_at, expires_at = EXCLUDED.expires_at`,
		queryHash, payload, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set cached search")
}

func (s *PostgresStore) DeleteExpiredSearches(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM search_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired searches")
	}
	return int(tag.RowsAffected()), nil
}

func checkTag(tag pgconn.CommandTag, id string) error {
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "%s", id)
	}
	return nil
}
