package domain

import "time"

// FraudAssessment is the output of the fraud heuristics.
type FraudAssessment struct {
	ApplicantID    string              `json:"applicantId"`
	IsFraudulent   bool                `json:"isFraudulent"` // riskScore > 50
	RiskScore      float64             `json:"riskScore"`    // 0-100
	Flags          []string            `json:"flags,omitempty"`
	Recommendation FraudRecommendation `json:"recommendation"`
}

// FraudRecommendation is the action suggested by the fraud check.
type FraudRecommendation string

const (
	FraudProceed     FraudRecommendation = "proceed"     // riskScore <= 30
	FraudInvestigate FraudRecommendation = "investigate" // 30 < riskScore <= 50
	FraudReject      FraudRecommendation = "reject"      // riskScore > 50
)

// InstantDecision values for the real-time workflow.
type InstantDecision string

const (
	InstantApprove InstantDecision = "approve"
	InstantDecline InstantDecision = "decline"
	InstantReview  InstantDecision = "review"
)

// ReviewPriority orders manual-review queues.
type ReviewPriority string

const (
	PriorityLow    ReviewPriority = "low"
	PriorityMedium ReviewPriority = "medium"
	PriorityHigh   ReviewPriority = "high"
)

// LoanTerms describes an approved facility.
type LoanTerms struct {
	Amount         float64 `json:"amount"`
	Term           int     `json:"term"` // months
	Rate           float64 `json:"rate"` // annual percent
	MonthlyPayment float64 `json:"monthlyPayment"`
}

// InstantDecisionResult is the output of the real-time decision workflow.
type InstantDecisionResult struct {
	ID          string    `json:"id"`
	ApplicantID string    `json:"applicantId"`
	TenantID    string    `json:"tenantId,omitempty"`
	DecidedAt   time.Time `json:"decidedAt"`

	Decision             InstantDecision `json:"decision"`
	Reason               string          `json:"reason"`
	ProcessingTimeMs     int64           `json:"processingTimeMs"`
	RequiresManualReview bool            `json:"requiresManualReview"`

	// Populated only when full scoring ran (pre-qualification passed).
	Score *CreditScoreResult `json:"score,omitempty"`

	// Populated on approve.
	ApprovedAmount float64    `json:"approvedAmount,omitempty"`
	InterestRate   float64    `json:"interestRate,omitempty"`
	Terms          *LoanTerms `json:"terms,omitempty"`

	// Populated on decline after scoring.
	ImprovementSuggestions []string `json:"improvementSuggestions,omitempty"`

	// Populated on review.
	ReviewPriority ReviewPriority `json:"reviewPriority,omitempty"`

	// Tenant policy overlay outcomes, if any rules matched.
	PolicyFindings []PolicyFinding `json:"policyFindings,omitempty"`
}

// BatchItemError records one application's failure inside a batch.
// Sibling applications are unaffected.
type BatchItemError struct {
	ApplicantID string `json:"applicantId"`
	Error       string `json:"error"`
}

// BatchDecisionResult joins a fan-out of independent instant decisions.
// Map iteration order carries no meaning.
type BatchDecisionResult struct {
	Decisions map[string]*InstantDecisionResult `json:"decisions"`
	Errors    []BatchItemError                  `json:"errors,omitempty"`
}
