package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratevo/intel-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// --- Runs ---

func TestSQLite_RunLifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "tenant-1", model.RunKindAnalyze, []byte(`{"sector":"EPIs"}`))
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusQueued, run.Status)

	require.NoError(t, st.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning))
	require.NoError(t, st.CompleteRun(ctx, run.ID, []byte(`{"total_competitors":3}`)))

	got, err := st.GetRun(ctx, "tenant-1", run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	assert.JSONEq(t, `{"sector":"EPIs"}`, string(got.Params))
	assert.JSONEq(t, `{"total_competitors":3}`, string(got.Summary))
}

func TestSQLite_GetRun_WrongTenant(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "tenant-1", model.RunKindDiscover, nil)
	require.NoError(t, err)

	_, err = st.GetRun(ctx, "tenant-2", run.ID)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLite_FailRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "tenant-1", model.RunKindAnalyze, nil)
	require.NoError(t, err)
	require.NoError(t, st.FailRun(ctx, run.ID, "registry unavailable"))

	got, err := st.GetRun(ctx, "tenant-1", run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, "registry unavailable", got.Error)
}

func TestSQLite_FailRun_Unknown(t *testing.T) {
	st := newTestSQLiteStore(t)
	err := st.FailRun(context.Background(), "no-such-run", "boom")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLite_ListRuns_FilterAndOrder(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a, err := st.CreateRun(ctx, "tenant-1", model.RunKindAnalyze, nil)
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, "tenant-1", model.RunKindDiscover, nil)
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, "tenant-2", model.RunKindAnalyze, nil)
	require.NoError(t, err)

	runs, err := st.ListRuns(ctx, "tenant-1", RunFilter{})
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	runs, err = st.ListRuns(ctx, "tenant-1", RunFilter{Kind: model.RunKindAnalyze})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, a.ID, runs[0].ID)
}

// --- Events ---

func TestSQLite_Events(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "tenant-1", model.RunKindAnalyze, nil)
	require.NoError(t, err)

	require.NoError(t, st.AppendEvent(ctx, run.ID, "info", "discovery started"))
	require.NoError(t, st.AppendEvent(ctx, run.ID, "warn", "registry lookup failed for 11222333000181"))

	events, err := st.ListEvents(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "discovery started", events[0].Message)
	assert.Equal(t, "warn", events[1].Level)
}

// --- Steps ---

func TestSQLite_StepIdempotency(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "tenant-1", model.RunKindAnalyze, nil)
	require.NoError(t, err)

	key := model.StepKey(run.ID, "11222333000181")
	step, err := st.StartStep(ctx, run.ID, key, "enrich")
	require.NoError(t, err)

	done, err := st.StepCompleted(ctx, key)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, st.FinishStep(ctx, step.ID, model.StepComplete, []byte(`{"presence":70}`), ""))

	done, err = st.StepCompleted(ctx, key)
	require.NoError(t, err)
	assert.True(t, done)

	// Restarting the same key resets it to running and keeps the row ID.
	again, err := st.StartStep(ctx, run.ID, key, "enrich")
	require.NoError(t, err)
	assert.Equal(t, step.ID, again.ID)

	done, err = st.StepCompleted(ctx, key)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestSQLite_StartStep_RestartsFailedStep(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "tenant-1", model.RunKindAnalyze, nil)
	require.NoError(t, err)

	key := model.StepKey(run.ID, "11222333000181")
	step, err := st.StartStep(ctx, run.ID, key, "enrich")
	require.NoError(t, err)
	require.NoError(t, st.FinishStep(ctx, step.ID, model.StepFailed, nil, "search timed out"))

	retried, err := st.StartStep(ctx, run.ID, key, "enrich")
	require.NoError(t, err)
	require.NoError(t, st.FinishStep(ctx, retried.ID, model.StepComplete, []byte(`{"presence":70}`), ""))

	steps, err := st.ListSteps(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, model.StepComplete, steps[0].Status)
	assert.Empty(t, steps[0].Error)

	done, err := st.StepCompleted(ctx, key)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestSQLite_ListSteps(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "tenant-1", model.RunKindAnalyze, nil)
	require.NoError(t, err)

	step, err := st.StartStep(ctx, run.ID, model.StepKey(run.ID, "11222333000181"), "enrich")
	require.NoError(t, err)
	require.NoError(t, st.FinishStep(ctx, step.ID, model.StepFailed, nil, "search timed out"))

	steps, err := st.ListSteps(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, model.StepFailed, steps[0].Status)
	assert.Equal(t, "search timed out", steps[0].Error)
	assert.NotNil(t, steps[0].FinishedAt)
}

// --- Competitors ---

func TestSQLite_UpsertAndListCompetitors(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "tenant-1", model.RunKindAnalyze, nil)
	require.NoError(t, err)

	c := model.EnrichedCompetitor{
		Competitor:  model.Competitor{TaxID: "11222333000181", LegalName: "Rival Ltda"},
		ThreatLevel: model.ThreatHigh,
	}
	require.NoError(t, st.UpsertCompetitor(ctx, "tenant-1", run.ID, c))

	c.DigitalPresenceScore = 85
	require.NoError(t, st.UpsertCompetitor(ctx, "tenant-1", run.ID, c))

	got, err := st.ListCompetitors(ctx, "tenant-1", run.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Rival Ltda", got[0].LegalName)
	assert.Equal(t, 85, got[0].DigitalPresenceScore)

	other, err := st.ListCompetitors(ctx, "tenant-2", run.ID)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSQLite_NameOnlyCompetitorsKeptSeparate(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "tenant-1", model.RunKindAnalyze, nil)
	require.NoError(t, err)

	first := model.EnrichedCompetitor{
		Competitor: model.Competitor{LegalName: "Acme SA"},
	}
	second := model.EnrichedCompetitor{
		Competitor: model.Competitor{LegalName: "Bravo Ltda"},
	}
	require.NoError(t, st.UpsertCompetitor(ctx, "tenant-1", run.ID, first))
	require.NoError(t, st.UpsertCompetitor(ctx, "tenant-1", run.ID, second))

	got, err := st.ListCompetitors(ctx, "tenant-1", run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Acme SA", got[0].LegalName)
	assert.Equal(t, "Bravo Ltda", got[1].LegalName)

	// Re-enriching the same name-only competitor still updates in place.
	second.DigitalPresenceScore = 55
	require.NoError(t, st.UpsertCompetitor(ctx, "tenant-1", run.ID, second))

	got, err = st.ListCompetitors(ctx, "tenant-1", run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 55, got[1].DigitalPresenceScore)
}

// --- Products ---

func TestSQLite_SaveProducts_ReplacesPrevious(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "tenant-1", model.RunKindCompare, nil)
	require.NoError(t, err)

	first := []model.CompetitorProduct{
		{Product: model.Product{Name: "Capacete A"}, CompetitorTaxID: "11222333000181"},
		{Product: model.Product{Name: "Luva B"}, CompetitorTaxID: "11222333000181"},
	}
	require.NoError(t, st.SaveProducts(ctx, "tenant-1", run.ID, first))

	second := []model.CompetitorProduct{
		{Product: model.Product{Name: "Capacete A v2"}, CompetitorTaxID: "11222333000181"},
	}
	require.NoError(t, st.SaveProducts(ctx, "tenant-1", run.ID, second))

	got, err := st.ListProducts(ctx, "tenant-1", run.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Capacete A v2", got[0].Name)
}

// --- Search cache ---

func TestSQLite_SearchCache_SetAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetCachedSearch(ctx, "hash123", []byte(`{"organic":[]}`), time.Hour))

	data, err := st.GetCachedSearch(ctx, "hash123")
	require.NoError(t, err)
	assert.JSONEq(t, `{"organic":[]}`, string(data))
}

func TestSQLite_SearchCache_MissAndExpiry(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	data, err := st.GetCachedSearch(ctx, "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, st.SetCachedSearch(ctx, "expired", []byte(`{}`), -time.Hour))
	data, err = st.GetCachedSearch(ctx, "expired")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestSQLite_DeleteExpiredSearches(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetCachedSearch(ctx, "fresh", []byte(`{}`), time.Hour))
	require.NoError(t, st.SetCachedSearch(ctx, "stale", []byte(`{}`), -time.Hour))

	n, err := st.DeleteExpiredSearches(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
