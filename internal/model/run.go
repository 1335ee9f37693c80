package model

import "time"

// RunStatus is the lifecycle state of an analysis run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunKind names the operation a run performs.
type RunKind string

const (
	RunKindAnalyze  RunKind = "analyze"
	RunKindDiscover RunKind = "discover"
	RunKindCompare  RunKind = "compare"
)

// Run records one logical operation for a tenant: a full competitive
// analysis, a discovery pass, or a product comparison.
type Run struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Kind      RunKind   `json:"kind"`
	Status    RunStatus `json:"status"`
	Params    []byte    `json:"params,omitempty"`
	Summary   []byte    `json:"summary,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RunEvent is a timeline entry emitted while a run executes.
type RunEvent struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// StepStatus is the lifecycle state of a single run step.
type StepStatus string

const (
	StepRunning  StepStatus = "running"
	StepComplete StepStatus = "complete"
	StepFailed   StepStatus = "failed"
	StepSkipped  StepStatus = "skipped"
)

// RunStep is one unit of work inside a run, keyed for idempotency: retrying
// a run skips steps whose key is already complete instead of repeating the
// provider calls and risking duplicate writes.
type RunStep struct {
	ID         string     `json:"id"`
	RunID      string     `json:"run_id"`
	Key        string     `json:"key"`
	Name       string     `json:"name"`
	Status     StepStatus `json:"status"`
	Result     []byte     `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// StepKey builds the idempotency key for enriching one competitor within a
// run. The run ID is part of the key so a fresh run re-enriches everything.
func StepKey(runID, taxID string) string {
	return runID + ":" + taxID
}
