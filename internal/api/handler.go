package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/opensource-finance/kestrel/internal/bus"
	"github.com/opensource-finance/kestrel/internal/decision"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/orchestrator"
	"github.com/opensource-finance/kestrel/internal/policy"
	"github.com/opensource-finance/kestrel/internal/repository"
	"github.com/opensource-finance/kestrel/internal/risk"
	"github.com/opensource-finance/kestrel/internal/scoring"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	repo     domain.Repository
	cache    domain.Cache
	events   *bus.Publisher
	scorer   *scoring.Engine
	analyzer *risk.Analyzer
	decider  *decision.Engine
	orch     *orchestrator.Orchestrator
	policies *policy.Engine
	version  string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, eventBus domain.EventBus, scorer *scoring.Engine, analyzer *risk.Analyzer, decider *decision.Engine, orch *orchestrator.Orchestrator, policies *policy.Engine, version string) *Handler {
	return &Handler{
		repo:     repo,
		cache:    cache,
		events:   bus.NewPublisher(eventBus),
		scorer:   scorer,
		analyzer: analyzer,
		decider:  decider,
		orch:     orch,
		policies: policies,
		version:  version,
	}
}

// scoreCacheTTL bounds staleness of the applicant score summary.
const scoreCacheTTL = 15 * time.Minute

// Score handles POST /score requests.
func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	app, ok := h.decodeApplication(w, r)
	if !ok {
		return
	}
	app.TenantID = tenantID

	h.countRequest(r, tenantID, "score")

	result := h.scorer.Score(app)
	result.TenantID = tenantID

	if h.repo != nil {
		if err := h.repo.SaveApplication(ctx, tenantID, app); err != nil {
			slog.Error("failed to save application", "applicant_id", app.ApplicantID, "error", err)
		}
		if err := h.repo.SaveScoreResult(ctx, tenantID, result); err != nil {
			slog.Error("failed to save score result", "result_id", result.ID, "error", err)
		}
	}

	if h.cache != nil {
		summary := &domain.ScoreCache{
			ResultID:           result.ID,
			ApplicantID:        result.ApplicantID,
			OverallScore:       result.OverallScore,
			Rating:             string(result.Rating),
			DefaultProbability: result.DefaultProbability,
			RiskCategory:       string(result.RiskCategory),
			ScoredAt:           result.ScoredAt.Format(time.RFC3339),
		}
		if err := h.cache.SetScore(ctx, tenantID, app.ApplicantID, summary, scoreCacheTTL); err != nil {
			slog.Warn("failed to cache score summary", "applicant_id", app.ApplicantID, "error", err)
		}
	}

	if h.events != nil {
		if err := h.events.ApplicationScored(ctx, tenantID, result); err != nil {
			slog.Error("failed to publish score event", "result_id", result.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// GetScoreResult retrieves a persisted score result by ID.
func (h *Handler) GetScoreResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	resultID := chi.URLParam(r, "id")

	if resultID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "score result id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	result, err := h.repo.GetScoreResult(ctx, tenantID, resultID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.Error("failed to get score result", "id", resultID, "error", err)
		}
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "score result not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetApplicantScore returns the latest score summary for an applicant,
// served from cache when possible.
func (h *Handler) GetApplicantScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	applicantID := chi.URLParam(r, "id")

	if applicantID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "applicant id is required",
		})
		return
	}

	if h.cache != nil {
		summary, err := h.cache.GetScore(ctx, tenantID, applicantID)
		if err != nil {
			slog.Warn("score cache read failed", "applicant_id", applicantID, "error", err)
		}
		if summary != nil {
			writeJSON(w, http.StatusOK, summary)
			return
		}
	}

	if h.repo == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "no score found for applicant",
		})
		return
	}

	results, err := h.repo.ListScoreResultsByApplicant(ctx, tenantID, applicantID, time.Time{})
	if err != nil || len(results) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "no score found for applicant",
		})
		return
	}

	latest := results[0]
	for _, res := range results[1:] {
		if res.ScoredAt.After(latest.ScoredAt) {
			latest = res
		}
	}

	summary := &domain.ScoreCache{
		ResultID:           latest.ID,
		ApplicantID:        latest.ApplicantID,
		OverallScore:       latest.OverallScore,
		Rating:             string(latest.Rating),
		DefaultProbability: latest.DefaultProbability,
		RiskCategory:       string(latest.RiskCategory),
		ScoredAt:           latest.ScoredAt.Format(time.RFC3339),
	}
	if h.cache != nil {
		_ = h.cache.SetScore(ctx, tenantID, applicantID, summary, scoreCacheTTL)
	}

	writeJSON(w, http.StatusOK, summary)
}

// AnalyzeFraud handles POST /fraud requests.
func (h *Handler) AnalyzeFraud(w http.ResponseWriter, r *http.Request) {
	app, ok := h.decodeApplication(w, r)
	if !ok {
		return
	}

	assessment := h.analyzer.DetectFraud(app)
	writeJSON(w, http.StatusOK, assessment)
}

// InstantDecision handles POST /decisions/instant requests.
func (h *Handler) InstantDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	app, ok := h.decodeApplication(w, r)
	if !ok {
		return
	}
	app.TenantID = tenantID

	h.countRequest(r, tenantID, "decisions")

	result, err := h.decider.InstantDecision(ctx, app)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedApplication) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
			return
		}
		slog.Error("instant decision failed", "applicant_id", app.ApplicantID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "decision failed",
		})
		return
	}
	result.TenantID = tenantID

	if h.repo != nil {
		if err := h.repo.SaveApplication(ctx, tenantID, app); err != nil {
			slog.Error("failed to save application", "applicant_id", app.ApplicantID, "error", err)
		}
		if result.Score != nil {
			if err := h.repo.SaveScoreResult(ctx, tenantID, result.Score); err != nil {
				slog.Error("failed to save score result", "applicant_id", app.ApplicantID, "error", err)
			}
		}
		if err := h.repo.SaveDecision(ctx, tenantID, result); err != nil {
			slog.Error("failed to save decision", "decision_id", result.ID, "error", err)
		}
	}

	if h.events != nil {
		if err := h.events.DecisionMade(ctx, tenantID, result); err != nil {
			slog.Error("failed to publish decision", "decision_id", result.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// BatchDecisionsRequest is the request body for POST /decisions/batch.
type BatchDecisionsRequest struct {
	Applications []*domain.CreditApplication `json:"applications"`
}

// BatchDecisions handles POST /decisions/batch requests.
func (h *Handler) BatchDecisions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	var req BatchDecisionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if len(req.Applications) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "applications must not be empty",
		})
		return
	}

	for _, app := range req.Applications {
		app.TenantID = tenantID
	}

	result := h.decider.BatchInstantDecisions(ctx, req.Applications)

	if h.repo != nil {
		for _, d := range result.Decisions {
			d.TenantID = tenantID
			if err := h.repo.SaveDecision(ctx, tenantID, d); err != nil {
				slog.Error("failed to save batch decision", "decision_id", d.ID, "error", err)
			}
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// GetDecision retrieves a decision by ID.
func (h *Handler) GetDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	decisionID := chi.URLParam(r, "id")

	if decisionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "decision id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	result, err := h.repo.GetDecision(ctx, tenantID, decisionID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.Error("failed to get decision", "id", decisionID, "error", err)
		}
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "decision not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// PortfolioRequest is the request body for POST /portfolio/analyze.
type PortfolioRequest struct {
	Loans []*domain.Loan `json:"loans"`
}

// AnalyzePortfolio handles POST /portfolio/analyze requests.
func (h *Handler) AnalyzePortfolio(w http.ResponseWriter, r *http.Request) {
	var req PortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	analysis := h.analyzer.AnalyzePortfolioRisk(req.Loans)
	writeJSON(w, http.StatusOK, analysis)
}

// StressTestRequest is the request body for POST /portfolio/stress.
type StressTestRequest struct {
	Loans          []*domain.Loan        `json:"loans"`
	Scenario       domain.StressScenario `json:"scenario"`
	TargetIndustry string                `json:"targetIndustry,omitempty"`
}

// StressTest handles POST /portfolio/stress requests.
func (h *Handler) StressTest(w http.ResponseWriter, r *http.Request) {
	var req StressTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	switch req.Scenario {
	case domain.ScenarioEconomicDownturn, domain.ScenarioRateShock, domain.ScenarioIndustryCollapse:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "unknown stress scenario: " + string(req.Scenario),
		})
		return
	}
	if req.Scenario == domain.ScenarioIndustryCollapse && req.TargetIndustry == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "targetIndustry is required for industry_collapse",
		})
		return
	}

	result := h.analyzer.PerformStressTest(req.Loans, req.Scenario, req.TargetIndustry)
	writeJSON(w, http.StatusOK, result)
}

// ScorePortfolioRequest is the request body for POST /portfolio/score.
type ScorePortfolioRequest struct {
	Applications []*domain.CreditApplication `json:"applications"`
}

// ScorePortfolio handles POST /portfolio/score requests.
func (h *Handler) ScorePortfolio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	var req ScorePortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if len(req.Applications) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "applications must not be empty",
		})
		return
	}

	for _, app := range req.Applications {
		app.TenantID = tenantID
	}

	report := h.orch.ScorePortfolio(ctx, req.Applications)
	writeJSON(w, http.StatusOK, report)
}

// ThresholdRequest is the request body for POST /portfolio/thresholds.
type ThresholdRequest struct {
	Exposures         []risk.ScoredExposure `json:"exposures"`
	ProposedThreshold float64               `json:"proposedThreshold"`
}

// SimulateThreshold handles POST /portfolio/thresholds requests.
func (h *Handler) SimulateThreshold(w http.ResponseWriter, r *http.Request) {
	var req ThresholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if req.ProposedThreshold < domain.ScoreFloor || req.ProposedThreshold > domain.ScoreCeiling {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "proposedThreshold must be within the score range",
		})
		return
	}

	impact := h.analyzer.SimulateThresholdImpact(req.Exposures, req.ProposedThreshold)
	writeJSON(w, http.StatusOK, impact)
}

// FullReport handles POST /reports requests.
func (h *Handler) FullReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	app, ok := h.decodeApplication(w, r)
	if !ok {
		return
	}
	app.TenantID = tenantID

	report, err := h.orch.FullReport(ctx, app)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedApplication) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
			return
		}
		slog.Error("report generation failed", "applicant_id", app.ApplicantID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "report generation failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// MonitorLoanRequest is the request body for POST /loans/monitor.
type MonitorLoanRequest struct {
	Loan        *domain.Loan              `json:"loan"`
	Application *domain.CreditApplication `json:"application"`
}

// MonitorLoan handles POST /loans/monitor requests.
func (h *Handler) MonitorLoan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	var req MonitorLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if req.Loan == nil || req.Application == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "loan and application are required",
		})
		return
	}
	req.Loan.TenantID = tenantID
	req.Application.TenantID = tenantID

	report, err := h.orch.MonitorExistingLoan(ctx, req.Loan, req.Application)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedApplication) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
			return
		}
		slog.Error("loan monitoring failed", "loan_id", req.Loan.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "loan monitoring failed",
		})
		return
	}

	if h.repo != nil {
		if err := h.repo.SaveLoan(ctx, tenantID, req.Loan); err != nil {
			slog.Error("failed to save monitored loan", "loan_id", req.Loan.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, report)
}

// CompareRequest is the request body for POST /applications/compare.
type CompareRequest struct {
	Applications []*domain.CreditApplication `json:"applications"`
}

// CompareApplications handles POST /applications/compare requests.
func (h *Handler) CompareApplications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if len(req.Applications) < 2 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "at least two applications are required",
		})
		return
	}

	for _, app := range req.Applications {
		app.TenantID = tenantID
	}

	report := h.orch.CompareApplications(ctx, req.Applications)
	writeJSON(w, http.StatusOK, report)
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// ListPolicies returns all loaded policy rules from the engine.
// Rules are loaded from the database at startup and can be reloaded
// via POST /policies/reload.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	if h.policies == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "policy engine not available",
		})
		return
	}

	loaded := h.policies.GetLoadedRules()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"policies": loaded,
		"count":    len(loaded),
		"source":   "database",
	})
}

// GetPolicy retrieves a policy rule by ID from the loaded engine rules.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "id")

	if ruleID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "policy id is required",
		})
		return
	}

	if h.policies == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "policy engine not available",
		})
		return
	}

	for _, rule := range h.policies.GetLoadedRules() {
		if rule.ID == ruleID {
			writeJSON(w, http.StatusOK, rule)
			return
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "policy not found",
	})
}

// CreatePolicyRequest is the request body for creating a policy rule.
type CreatePolicyRequest struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Expression  string              `json:"expression"`
	Effect      domain.PolicyEffect `json:"effect"`
	Reason      string              `json:"reason"`
	Enabled     bool                `json:"enabled"`
}

// CreatePolicy creates a new policy rule and saves it to the database.
// Rules are saved globally (tenant_id = "*") so they apply to all tenants.
// After saving, call POST /policies/reload to hot-reload into the engine.
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if req.ID == "" || req.Name == "" || req.Expression == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "id, name, and expression are required",
		})
		return
	}

	switch req.Effect {
	case domain.EffectKnockout, domain.EffectReview, domain.EffectFlag:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "effect must be knockout, review, or flag",
		})
		return
	}

	rule := &domain.PolicyRule{
		ID:          req.ID,
		TenantID:    GlobalTenantID,
		Name:        req.Name,
		Description: req.Description,
		Version:     "1.0.0",
		Expression:  req.Expression,
		Effect:      req.Effect,
		Reason:      req.Reason,
		Enabled:     req.Enabled,
	}

	// Validate CEL expression by attempting to load
	if err := h.policies.LoadRule(rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid CEL expression: " + err.Error(),
		})
		return
	}

	if h.repo != nil {
		if err := h.repo.SavePolicyRule(ctx, GlobalTenantID, rule); err != nil {
			slog.Error("failed to save policy rule", "id", rule.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to save policy",
			})
			return
		}
	}

	slog.Info("policy created", "id", rule.ID, "name", rule.Name)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"policy":  rule,
		"message": "Policy created. Call POST /policies/reload to apply changes.",
	})
}

// DeletePolicy deletes a policy rule and auto-reloads the engine.
func (h *Handler) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ruleID := chi.URLParam(r, "id")

	if ruleID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "policy id is required",
		})
		return
	}

	if h.repo != nil {
		if err := h.repo.DeletePolicyRule(ctx, GlobalTenantID, ruleID); err != nil {
			slog.Error("failed to delete policy rule", "id", ruleID, "error", err)
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "policy not found",
			})
			return
		}

		// Auto-reload after delete
		if h.policies != nil {
			dbRules, err := h.repo.ListPolicyRules(ctx, GlobalTenantID)
			if err != nil {
				slog.Error("failed to reload policies after delete", "error", err)
			} else if err := h.policies.ReloadRules(dbRules); err != nil {
				slog.Error("failed to reload policies into engine", "error", err)
			} else {
				slog.Info("policies auto-reloaded after delete", "count", len(dbRules))
			}
		}
	}

	slog.Info("policy deleted", "id", ruleID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Policy deleted and engine reloaded.",
	})
}

// GlobalTenantID is used for policy rules that apply to all tenants.
const GlobalTenantID = "*"

// ReloadPolicies reloads all policy rules from the database into the engine.
// This enables hot-reloading without server restart.
func (h *Handler) ReloadPolicies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	dbRules, err := h.repo.ListPolicyRules(ctx, GlobalTenantID)
	if err != nil {
		slog.Error("failed to list policies from database", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load policies from database",
		})
		return
	}

	if err := h.policies.ReloadRules(dbRules); err != nil {
		slog.Error("failed to reload policies into engine", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to reload policies: " + err.Error(),
		})
		return
	}

	slog.Info("policies reloaded from database", "count", len(dbRules))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "policies reloaded successfully",
		"count":   len(dbRules),
	})
}

// decodeApplication parses and validates a credit application body.
func (h *Handler) decodeApplication(w http.ResponseWriter, r *http.Request) (*domain.CreditApplication, bool) {
	var app domain.CreditApplication
	if err := json.NewDecoder(r.Body).Decode(&app); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return nil, false
	}

	if err := app.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return nil, false
	}

	return &app, true
}

// countRequest tracks per-tenant request volume in a rolling window.
func (h *Handler) countRequest(r *http.Request, tenantID, kind string) {
	if h.cache == nil {
		return
	}
	count, err := h.cache.IncrementCounter(r.Context(), tenantID, kind, time.Minute)
	if err != nil {
		return
	}
	slog.Debug("request counted", "tenant_id", tenantID, "kind", kind, "count", count)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
