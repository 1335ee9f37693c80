package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stratevo/intel-cli/internal/model"
)

func TestComputeRunStats(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	runs := []model.Run{
		{Kind: model.RunKindAnalyze, Status: model.RunStatusComplete, CreatedAt: base, UpdatedAt: base.Add(10 * time.Second)},
		{Kind: model.RunKindAnalyze, Status: model.RunStatusComplete, CreatedAt: base, UpdatedAt: base.Add(20 * time.Second)},
		{Kind: model.RunKindDiscover, Status: model.RunStatusFailed, CreatedAt: base, UpdatedAt: base.Add(time.Second)},
		{Kind: model.RunKindCompare, Status: model.RunStatusRunning, CreatedAt: base, UpdatedAt: base},
	}

	s := computeRunStats(runs)

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Complete)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 2, s.ByKind[model.RunKindAnalyze])
	assert.Equal(t, 1, s.ByKind[model.RunKindDiscover])
	assert.InDelta(t, 15.0, s.AvgDurSecs, 0.001)
}

func TestComputeRunStatsEmpty(t *testing.T) {
	s := computeRunStats(nil)
	assert.Equal(t, 0, s.Total)
	assert.Zero(t, s.AvgDurSecs)
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "12345678", truncateID("123456789abcdef"))
	assert.Equal(t, "short", truncateID("short"))
}

func TestFormatRunsList(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	runs := []model.Run{
		{ID: "aaaaaaaa-1111", Kind: model.RunKindAnalyze, Status: model.RunStatusComplete, CreatedAt: base, UpdatedAt: base.Add(12 * time.Second)},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	out := buf.String()
	assert.Contains(t, out, "aaaaaaaa")
	assert.Contains(t, out, "analyze")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "12s")
}
