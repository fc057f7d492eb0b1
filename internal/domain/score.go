package domain

import (
	"time"
)

// Score bounds shared across the engine.
const (
	ScoreFloor   = 300.0
	ScoreCeiling = 850.0
	ScoreRange   = ScoreCeiling - ScoreFloor
)

// ComponentScore is one of the five weighted scoring components.
type ComponentScore struct {
	Name         string   `json:"name"`
	Score        float64  `json:"score"`        // 300-850
	Weight       float64  `json:"weight"`       // 0-1, five weights sum to 1.0
	Contribution float64  `json:"contribution"` // score/850 * weight * 550
	Factors      []string `json:"factors,omitempty"`
}

// Component names. The five weights are fixed in ScoringConfig.
const (
	ComponentTraditionalCredit = "traditional_credit"
	ComponentFinancialHealth   = "financial_health"
	ComponentBusinessStability = "business_stability"
	ComponentAlternativeData   = "alternative_data"
	ComponentIndustryRisk      = "industry_risk"
)

// Rating grades, monotone in overall score.
type Rating string

const (
	RatingAPlus Rating = "A+"
	RatingA     Rating = "A"
	RatingBPlus Rating = "B+"
	RatingB     Rating = "B"
	RatingCPlus Rating = "C+"
	RatingC     Rating = "C"
	RatingD     Rating = "D"
	RatingF     Rating = "F"
)

// RiskCategory buckets, monotone in default probability.
type RiskCategory string

const (
	RiskVeryLow  RiskCategory = "very_low"
	RiskLow      RiskCategory = "low"
	RiskMedium   RiskCategory = "medium"
	RiskHigh     RiskCategory = "high"
	RiskVeryHigh RiskCategory = "very_high"
)

// CreditScoreResult is the complete output of a scoring run.
// Recomputed fresh on every call; the engine never caches.
type CreditScoreResult struct {
	ID          string    `json:"id"`
	ApplicantID string    `json:"applicantId"`
	TenantID    string    `json:"tenantId,omitempty"`
	ScoredAt    time.Time `json:"scoredAt"`

	OverallScore       float64      `json:"overallScore"` // 300-850
	Rating             Rating       `json:"rating"`
	DefaultProbability float64      `json:"defaultProbability"` // 0.01-0.99
	RiskCategory       RiskCategory `json:"riskCategory"`
	ConfidenceLevel    float64      `json:"confidenceLevel"` // 0.5-1.0

	ComponentScores []ComponentScore `json:"componentScores"`
	KeyFactors      KeyFactors       `json:"keyFactors"`
	Recommendation  Recommendation   `json:"recommendation"`
	Explainability  Explainability   `json:"explainability"`
}

// KeyFactors lists the strongest positive and negative drivers,
// at most five each, sorted by impact.
type KeyFactors struct {
	Positive []KeyFactor `json:"positive"`
	Negative []KeyFactor `json:"negative"`
}

// KeyFactor is a single ranked driver of the score.
type KeyFactor struct {
	Factor string  `json:"factor"`
	Detail string  `json:"detail"`
	Impact float64 `json:"impact"` // magnitude used for ranking
}

// Decision values for recommendations.
type Decision string

const (
	DecisionApprove               Decision = "approve"
	DecisionApproveWithConditions Decision = "approve_with_conditions"
	DecisionReview                Decision = "review"
	DecisionDecline               Decision = "decline"
)

// Recommendation is the lending recommendation derived from score and PD.
type Recommendation struct {
	Decision              Decision `json:"decision"`
	MaxLoanAmount         float64  `json:"maxLoanAmount"`
	SuggestedInterestRate float64  `json:"suggestedInterestRate"` // annual percent
	SuggestedTerm         int      `json:"suggestedTerm"`         // months
	RequiredCollateral    bool     `json:"requiredCollateral"`
	Conditions            []string `json:"conditions,omitempty"`
	Reasoning             string   `json:"reasoning"`
}

// Explainability carries the feature-attribution breakdown.
type Explainability struct {
	// ShapValues maps feature name to its signed contribution.
	ShapValues map[string]float64 `json:"shapValues"`

	// FeatureImportance maps feature name to its normalized share of
	// total absolute attribution. Shares sum to 1.
	FeatureImportance map[string]float64 `json:"featureImportance"`

	// DecisionPath is the ordered narrative of scoring stages.
	DecisionPath []string `json:"decisionPath"`

	// WhatIfScenarios lists the top five highest-impact improvements.
	WhatIfScenarios []WhatIfScenario `json:"whatIfScenarios"`
}

// WhatIfScenario describes the marginal effect of improving one input.
type WhatIfScenario struct {
	Change         string  `json:"change"`
	CurrentValue   float64 `json:"currentValue"`
	SuggestedValue float64 `json:"suggestedValue"`
	ScoreImpact    float64 `json:"scoreImpact"`
}
