// Package store persists analysis runs, their event timelines, idempotent
// enrichment steps, discovered competitors, and cached provider responses.
// Every method that touches tenant data is scoped by tenant ID.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/stratevo/intel-cli/internal/model"
)

// ErrNotFound is returned when a requested row does not exist for the tenant.
var ErrNotFound = eris.New("store: not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Kind   model.RunKind   `json:"kind,omitempty"`
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store is the persistence interface shared by the SQLite and Postgres
// backends.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, tenantID string, kind model.RunKind, params []byte) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteRun(ctx context.Context, runID string, summary []byte) error
	FailRun(ctx context.Context, runID string, reason string) error
	GetRun(ctx context.Context, tenantID, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, tenantID string, filter RunFilter) ([]model.Run, error)

	// Events
	AppendEvent(ctx context.Context, runID, level, message string) error
	ListEvents(ctx context.Context, runID string) ([]model.RunEvent, error)

	// Steps
	StartStep(ctx context.Context, runID, key, name string) (*model.RunStep, error)
	FinishStep(ctx context.Context, stepID string, status model.StepStatus, result []byte, reason string) error
	StepCompleted(ctx context.Context, key string) (bool, error)
	ListSteps(ctx context.Context, runID string) ([]model.RunStep, error)

	// Competitors
	UpsertCompetitor(ctx context.Context, tenantID, runID string, c model.EnrichedCompetitor) error
	ListCompetitors(ctx context.Context, tenantID, runID string) ([]model.EnrichedCompetitor, error)

	// Products
	SaveProducts(ctx context.Context, tenantID, runID string, products []model.CompetitorProduct) error
	ListProducts(ctx context.Context, tenantID, runID string) ([]model.CompetitorProduct, error)

	// Search cache
	GetCachedSearch(ctx context.Context, queryHash string) ([]byte, error)
	SetCachedSearch(ctx context.Context, queryHash string, payload []byte, ttl time.Duration) error
	DeleteExpiredSearches(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
