// Package scoring implements the multi-factor credit scoring engine.
package scoring

import (
	"time"

	"github.com/google/uuid"
	"github.com/opensource-finance/kestrel/internal/domain"
)

// Engine turns a credit application into a complete score result.
// It is pure and stateless: no caching, no I/O, identical output for
// identical input. Construction validates the component weights.
type Engine struct {
	cfg   domain.ScoringConfig
	model RiskModel
}

// NewEngine creates a scoring engine. A nil model selects the standard
// logistic PD model.
func NewEngine(cfg domain.ScoringConfig, model RiskModel) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if model == nil {
		model = NewLogisticModel()
	}
	return &Engine{cfg: cfg, model: model}, nil
}

// Config returns the engine's scoring configuration.
func (e *Engine) Config() domain.ScoringConfig {
	return e.cfg
}

// core holds the intermediate scoring state shared between the full
// result and what-if re-scoring.
type core struct {
	overall    float64
	components []domain.ComponentScore
	pd         float64
}

// computeCore runs the component scorers, the weighted combination and
// the PD model, without the explainability layer. What-if scenarios
// re-enter here to measure marginal score deltas.
func (e *Engine) computeCore(app *domain.CreditApplication) core {
	traditional, tradFactors := scoreTraditionalCredit(app.TraditionalCredit)
	financial, finFactors := scoreFinancialHealth(app.FinancialData)
	stability, stabFactors := scoreBusinessStability(app.BusinessInfo)
	alternative, altFactors := scoreAlternativeData(app.AlternativeData)
	industry, indFactors := scoreIndustryRisk(app.BusinessInfo.Industry)

	components := []domain.ComponentScore{
		{Name: domain.ComponentTraditionalCredit, Score: traditional, Weight: e.cfg.TraditionalCreditWeight, Factors: tradFactors},
		{Name: domain.ComponentFinancialHealth, Score: financial, Weight: e.cfg.FinancialHealthWeight, Factors: finFactors},
		{Name: domain.ComponentBusinessStability, Score: stability, Weight: e.cfg.BusinessStabilityWeight, Factors: stabFactors},
		{Name: domain.ComponentAlternativeData, Score: alternative, Weight: e.cfg.AlternativeDataWeight, Factors: altFactors},
		{Name: domain.ComponentIndustryRisk, Score: industry, Weight: e.cfg.IndustryRiskWeight, Factors: indFactors},
	}

	overall := domain.ScoreFloor
	for i := range components {
		c := &components[i]
		c.Contribution = c.Score / domain.ScoreCeiling * c.Weight * domain.ScoreRange
		overall += c.Contribution
	}
	overall = clamp(overall, domain.ScoreFloor, domain.ScoreCeiling)

	pd := e.model.DefaultProbability(ExtractFeatures(app))

	return core{overall: overall, components: components, pd: pd}
}

// Score produces a fresh CreditScoreResult. It never fails for
// well-formed input: out-of-range values are clamped, division guards
// substitute fallbacks and unknown industries hit the default bucket.
func (e *Engine) Score(app *domain.CreditApplication) *domain.CreditScoreResult {
	c := e.computeCore(app)

	result := &domain.CreditScoreResult{
		ID:                 uuid.New().String(),
		ApplicantID:        app.ApplicantID,
		TenantID:           app.TenantID,
		ScoredAt:           time.Now().UTC(),
		OverallScore:       c.overall,
		Rating:             RatingFor(c.overall),
		DefaultProbability: c.pd,
		RiskCategory:       RiskCategoryFor(c.pd),
		ConfidenceLevel:    confidenceLevel(app),
		ComponentScores:    c.components,
		KeyFactors:         keyFactors(app),
		Recommendation:     e.recommend(app, c.overall, c.pd),
	}

	result.Explainability = e.explain(app, c)

	return result
}

// RatingFor maps an overall score to its letter grade.
func RatingFor(score float64) domain.Rating {
	switch {
	case score >= 800:
		return domain.RatingAPlus
	case score >= 750:
		return domain.RatingA
	case score >= 700:
		return domain.RatingBPlus
	case score >= 650:
		return domain.RatingB
	case score >= 600:
		return domain.RatingCPlus
	case score >= 550:
		return domain.RatingC
	case score >= 500:
		return domain.RatingD
	default:
		return domain.RatingF
	}
}

// RiskCategoryFor maps a default probability to its bucket.
func RiskCategoryFor(pd float64) domain.RiskCategory {
	switch {
	case pd < 0.05:
		return domain.RiskVeryLow
	case pd < 0.15:
		return domain.RiskLow
	case pd < 0.30:
		return domain.RiskMedium
	case pd < 0.50:
		return domain.RiskHigh
	default:
		return domain.RiskVeryHigh
	}
}

// confidenceLevel starts at 1.0 and is decremented for thin or noisy
// data, floored at 0.5.
func confidenceLevel(app *domain.CreditApplication) float64 {
	confidence := 1.0

	if app.TraditionalCredit.BusinessCreditScore == 0 {
		confidence -= 0.10
	}
	if app.BusinessInfo.YearsInBusiness < 2 {
		confidence -= 0.10
	}
	if len(app.TraditionalCredit.PaymentHistory) < 3 {
		confidence -= 0.10
	}
	if app.AlternativeData.BankingBehavior.CashFlowVolatility > 0.5 {
		confidence -= 0.10
	}
	if app.FinancialData.RevenueGrowthRate < 0 {
		confidence -= 0.05
	}
	if IsHighRiskIndustry(app.BusinessInfo.Industry) {
		confidence -= 0.05
	}

	return clamp(confidence, 0.5, 1.0)
}
