package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/stratevo/intel-cli/internal/enrich"
	"github.com/stratevo/intel-cli/internal/model"
	"github.com/stratevo/intel-cli/internal/store"
)

// api serves the run-inspection and analysis endpoints. Analysis runs are
// launched in the background against baseCtx so they outlive the request but
// stop on server shutdown.
type api struct {
	st            store.Store
	defaultTenant string
	buildEnricher func(ownCapital float64) *enrich.Enricher
	baseCtx       context.Context

	// inflight tracks tenants with an analysis currently running. At most one
	// analysis per tenant at a time.
	inflight sync.Map
}

func newAPI(baseCtx context.Context, st store.Store, defaultTenant string, buildEnricher func(float64) *enrich.Enricher) *api {
	return &api{
		st:            st,
		defaultTenant: defaultTenant,
		buildEnricher: buildEnricher,
		baseCtx:       baseCtx,
	}
}

func (a *api) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Tenant-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", a.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/runs/{runID}", a.handleGetRun)
		r.Post("/analyze", a.handleAnalyze)
	})
	return r
}

func (a *api) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "status": "healthy"})
}

func (a *api) handleGetRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := a.tenantFrom(r)
	runID := chi.URLParam(r, "runID")

	run, err := a.st.GetRun(ctx, tenantID, runID)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "code": "NOT_FOUND"})
			return
		}
		zap.L().Error("api: get run", zap.String("run_id", runID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"ok": false, "code": "DB_ERROR", "message": err.Error(),
		})
		return
	}

	events, err := a.st.ListEvents(ctx, run.ID)
	if err != nil {
		zap.L().Error("api: list events", zap.String("run_id", runID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"ok": false, "code": "DB_ERROR", "message": err.Error(),
		})
		return
	}
	steps, err := a.st.ListSteps(ctx, run.ID)
	if err != nil {
		zap.L().Error("api: list steps", zap.String("run_id", runID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"ok": false, "code": "DB_ERROR", "message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"run":    run,
		"events": events,
		"steps":  steps,
	})
}

type analyzeRequest struct {
	Competitors []model.Competitor `json:"competitors"`
	OwnCapital  float64            `json:"own_capital"`
}

func (a *api) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	tenantID := a.tenantFrom(r)

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"ok": false, "code": "BAD_REQUEST", "message": "invalid JSON body",
		})
		return
	}
	if len(req.Competitors) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"ok": false, "code": "BAD_REQUEST", "message": "competitors list is empty",
		})
		return
	}
	normalizeTaxIDs(req.Competitors)

	if _, loaded := a.inflight.LoadOrStore(tenantID, struct{}{}); loaded {
		writeJSON(w, http.StatusConflict, map[string]any{
			"ok": false, "code": "ALREADY_RUNNING", "message": "an analysis is already running for this tenant",
		})
		return
	}

	params, _ := json.Marshal(map[string]any{
		"competitors": len(req.Competitors),
		"own_capital": req.OwnCapital,
	})
	run, err := a.st.CreateRun(r.Context(), tenantID, model.RunKindAnalyze, params)
	if err != nil {
		a.inflight.Delete(tenantID)
		zap.L().Error("api: create run", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"ok": false, "code": "DB_ERROR", "message": err.Error(),
		})
		return
	}

	enricher := a.buildEnricher(req.OwnCapital)
	go func() {
		defer a.inflight.Delete(tenantID)
		if _, _, err := runAnalysis(a.baseCtx, a.st, enricher, tenantID, run.ID, req.Competitors); err != nil {
			zap.L().Error("api: analysis run failed",
				zap.String("run_id", run.ID),
				zap.String("tenant_id", tenantID),
				zap.Error(err),
			)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true, "run_id": run.ID})
}

// tenantFrom resolves the tenant for a request from the X-Tenant-ID header,
// falling back to the configured default.
func (a *api) tenantFrom(r *http.Request) string {
	if t := r.Header.Get("X-Tenant-ID"); t != "" {
		return t
	}
	return a.defaultTenant
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("api: write response", zap.Error(err))
	}
}
