// Package decision implements the real-time instant-decision workflow:
// pre-qualification knockouts, concurrent scoring and fraud detection,
// and the approve/decline/review threshold table.
package decision

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/policy"
	"github.com/opensource-finance/kestrel/internal/risk"
	"github.com/opensource-finance/kestrel/internal/scoring"
)

// Engine drives the instant-decision state machine. The policy engine
// is optional; without it only the built-in checks run.
type Engine struct {
	cfg      domain.ScoringConfig
	scorer   *scoring.Engine
	analyzer *risk.Analyzer
	policies *policy.Engine
	maxBatch int
}

// NewEngine creates a decision engine.
func NewEngine(cfg domain.ScoringConfig, scorer *scoring.Engine, analyzer *risk.Analyzer, policies *policy.Engine) *Engine {
	return &Engine{
		cfg:      cfg,
		scorer:   scorer,
		analyzer: analyzer,
		policies: policies,
		maxBatch: 16,
	}
}

// PreQualify runs the fast-fail knockout checks, in order, without
// scoring. The first failing check wins; its reason names the specific
// shortfall, not a generic threshold.
func (e *Engine) PreQualify(app *domain.CreditApplication) (string, bool) {
	tc := app.TraditionalCredit
	fin := app.FinancialData

	if tc.PersonalCreditScore < 550 {
		return fmt.Sprintf("personal credit score %d is below the 550 minimum", tc.PersonalCreditScore), false
	}
	if app.BusinessInfo.YearsInBusiness < 1 {
		return fmt.Sprintf("%.1f years in business is below the one-year minimum", app.BusinessInfo.YearsInBusiness), false
	}
	if tc.Bankruptcies > 0 {
		return fmt.Sprintf("%d bankruptcy filings on record", tc.Bankruptcies), false
	}
	if fin.AnnualRevenue < 100_000 {
		return fmt.Sprintf("annual revenue $%.0f is below the $100,000 minimum", fin.AnnualRevenue), false
	}
	if fin.NetIncome < 0 {
		return "negative net income", false
	}
	if fin.AnnualRevenue > 0 && tc.TotalDebt/fin.AnnualRevenue > 2 {
		return fmt.Sprintf("total debt is %.1fx annual revenue, above the 2x maximum", tc.TotalDebt/fin.AnnualRevenue), false
	}
	if tc.Collections > 2 {
		return fmt.Sprintf("%d accounts in collections, above the maximum of 2", tc.Collections), false
	}

	return "", true
}

// InstantDecision runs one application through the full state machine.
// Scoring and fraud detection run concurrently once pre-qualification
// passes; a fraud hit overrides the score path entirely.
func (e *Engine) InstantDecision(ctx context.Context, app *domain.CreditApplication) (*domain.InstantDecisionResult, error) {
	start := time.Now()

	if err := app.Validate(); err != nil {
		return nil, err
	}

	result := &domain.InstantDecisionResult{
		ID:          uuid.New().String(),
		ApplicantID: app.ApplicantID,
		TenantID:    app.TenantID,
		DecidedAt:   time.Now().UTC(),
	}

	// Stage 1: pre-qualification. Fails fast with no scoring.
	if reason, ok := e.PreQualify(app); !ok {
		result.Decision = domain.InstantDecline
		result.Reason = reason
		result.ProcessingTimeMs = time.Since(start).Milliseconds()
		return result, nil
	}

	// Tenant policy overlays. Knockouts decline before scoring, the
	// other effects are applied after the threshold decision.
	var findings []domain.PolicyFinding
	if e.policies != nil {
		findings = e.policies.EvaluateAll(ctx, app)
		result.PolicyFindings = findings
		for _, f := range findings {
			if f.Effect == domain.EffectKnockout {
				result.Decision = domain.InstantDecline
				result.Reason = f.Reason
				result.ProcessingTimeMs = time.Since(start).Milliseconds()
				return result, nil
			}
		}
	}

	// Stage 2: scoring and fraud detection in parallel. Neither depends
	// on the other.
	var (
		score *domain.CreditScoreResult
		fraud *domain.FraudAssessment
		wg    sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		score = e.scorer.Score(app)
	}()
	go func() {
		defer wg.Done()
		fraud = e.analyzer.DetectFraud(app)
	}()
	wg.Wait()

	result.Score = score

	// Stage 3: decide. Fraud overrides the score path.
	if fraud.IsFraudulent {
		result.Decision = domain.InstantDecline
		result.Reason = fmt.Sprintf("fraud risk score %.0f exceeds the rejection threshold", fraud.RiskScore)
		result.RequiresManualReview = true
		result.ProcessingTimeMs = time.Since(start).Milliseconds()
		return result, nil
	}

	amount := app.LoanRequest.Amount
	pd := score.DefaultProbability

	switch {
	case score.OverallScore >= e.cfg.AutoApproveScore &&
		pd < e.cfg.AutoApproveMaxPD &&
		amount <= e.cfg.MaxAutoApproveAmount &&
		!hasReviewFinding(findings):

		rate := score.Recommendation.SuggestedInterestRate
		result.Decision = domain.InstantApprove
		result.Reason = fmt.Sprintf("score %.0f and default probability %.1f%% clear auto-approve thresholds",
			score.OverallScore, pd*100)
		result.ApprovedAmount = amount
		result.InterestRate = rate
		result.Terms = &domain.LoanTerms{
			Amount:         amount,
			Term:           app.LoanRequest.Term,
			Rate:           rate,
			MonthlyPayment: MonthlyPayment(amount, rate, app.LoanRequest.Term),
		}

	case score.OverallScore < e.cfg.AutoDeclineScore || pd > e.cfg.AutoDeclineMinPD:
		result.Decision = domain.InstantDecline
		result.Reason = fmt.Sprintf("score %.0f or default probability %.1f%% breaches auto-decline thresholds",
			score.OverallScore, pd*100)
		for _, s := range score.Explainability.WhatIfScenarios {
			result.ImprovementSuggestions = append(result.ImprovementSuggestions, s.Change)
		}

	default:
		result.Decision = domain.InstantReview
		result.RequiresManualReview = true
		result.Reason = fmt.Sprintf("score %.0f and default probability %.1f%% fall in the manual review band",
			score.OverallScore, pd*100)
		result.ReviewPriority = reviewPriority(score.OverallScore, amount)
	}

	result.ProcessingTimeMs = time.Since(start).Milliseconds()
	return result, nil
}

func hasReviewFinding(findings []domain.PolicyFinding) bool {
	for _, f := range findings {
		if f.Effect == domain.EffectReview {
			return true
		}
	}
	return false
}

// reviewPriority orders the manual queue: strong profiles and large
// requests are worth an underwriter's time first.
func reviewPriority(score, amount float64) domain.ReviewPriority {
	switch {
	case score >= 700 || amount > 500_000:
		return domain.PriorityHigh
	case score >= 600:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

// MonthlyPayment computes the standard annuity payment for a principal
// at an annual percentage rate over a term in months.
func MonthlyPayment(principal, annualRatePct float64, termMonths int) float64 {
	if termMonths <= 0 {
		return 0
	}
	if annualRatePct == 0 {
		return principal / float64(termMonths)
	}

	monthly := annualRatePct / 100 / 12
	n := float64(termMonths)
	payment := principal * monthly / (1 - math.Pow(1+monthly, -n))

	return math.Round(payment*100) / 100
}

// BatchInstantDecisions fans out one decision per application and joins
// the results into a map keyed by applicant ID. Items are isolated: one
// application's failure or panic never aborts its siblings, and the map
// carries no ordering guarantee.
func (e *Engine) BatchInstantDecisions(ctx context.Context, apps []*domain.CreditApplication) *domain.BatchDecisionResult {
	batch := &domain.BatchDecisionResult{
		Decisions: make(map[string]*domain.InstantDecisionResult, len(apps)),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	sem := make(chan struct{}, e.maxBatch)

	for _, app := range apps {
		wg.Add(1)
		go func(app *domain.CreditApplication) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					batch.Errors = append(batch.Errors, domain.BatchItemError{
						ApplicantID: app.ApplicantID,
						Error:       fmt.Sprintf("panic: %v", r),
					})
					mu.Unlock()
				}
			}()

			decision, err := e.InstantDecision(ctx, app)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				batch.Errors = append(batch.Errors, domain.BatchItemError{
					ApplicantID: app.ApplicantID,
					Error:       err.Error(),
				})
				return
			}
			batch.Decisions[app.ApplicantID] = decision
		}(app)
	}

	wg.Wait()
	return batch
}
