package domain

import "time"

// Loan is an originated loan tracked for portfolio analytics.
type Loan struct {
	ID                 string  `json:"id"`
	ApplicantID        string  `json:"applicantId"`
	TenantID           string  `json:"tenantId,omitempty"`
	Amount             float64 `json:"amount"`
	Term               int     `json:"term"` // months
	Rate               float64 `json:"rate"` // annual percent
	Industry           string  `json:"industry"`
	DefaultProbability float64 `json:"defaultProbability"`

	// Original score at origination, used by loan monitoring.
	OriginalScore float64   `json:"originalScore,omitempty"`
	OriginatedAt  time.Time `json:"originatedAt,omitempty"`
}

// PortfolioRating grades aggregate portfolio health.
type PortfolioRating string

const (
	PortfolioHealthy  PortfolioRating = "healthy"
	PortfolioStable   PortfolioRating = "stable"
	PortfolioElevated PortfolioRating = "elevated"
	PortfolioCritical PortfolioRating = "critical"
)

// PortfolioRisk aggregates default risk across a loan book.
type PortfolioRisk struct {
	TotalExposure     float64            `json:"totalExposure"`
	LoanCount         int                `json:"loanCount"`
	WeightedAvgPD     float64            `json:"weightedAvgPd"`     // exposure-weighted
	ConcentrationRisk float64            `json:"concentrationRisk"` // largest industry share
	TopIndustry       string             `json:"topIndustry"`
	ExpectedLoss      float64            `json:"expectedLoss"` // sum(amount * pd * LGD)
	IndustryExposure  map[string]float64 `json:"industryExposure"`
	Rating            PortfolioRating    `json:"rating"`
	Recommendations   []string           `json:"recommendations,omitempty"`
}

// StressScenario identifies a stress-test scenario.
type StressScenario string

const (
	ScenarioEconomicDownturn StressScenario = "economic_downturn"
	ScenarioRateShock        StressScenario = "interest_rate_shock"
	ScenarioIndustryCollapse StressScenario = "industry_collapse"
)

// StressTestResult compares baseline and stressed portfolio risk.
type StressTestResult struct {
	Scenario        StressScenario `json:"scenario"`
	TargetIndustry  string         `json:"targetIndustry,omitempty"` // industry_collapse only
	BaselineAvgPD   float64        `json:"baselineAvgPd"`
	StressedAvgPD   float64        `json:"stressedAvgPd"`
	BaselineLoss    float64        `json:"baselineLoss"`
	StressedLoss    float64        `json:"stressedLoss"`
	LossIncrease    float64        `json:"lossIncrease"`
	LossIncreasePct float64        `json:"lossIncreasePct"`
}

// WarningSeverity buckets early-warning urgency.
type WarningSeverity string

const (
	SeverityLow      WarningSeverity = "low"
	SeverityMedium   WarningSeverity = "medium"
	SeverityHigh     WarningSeverity = "high"
	SeverityCritical WarningSeverity = "critical"
)

// EarlyWarning is the output of borrower deterioration detection.
type EarlyWarning struct {
	ApplicantID       string          `json:"applicantId"`
	Severity          WarningSeverity `json:"severity"`
	SeverityScore     int             `json:"severityScore"`
	Triggers          []string        `json:"triggers,omitempty"`
	RecommendedAction string          `json:"recommendedAction"`
}

// CreditLimitRecommendation is the output of credit-limit optimization.
type CreditLimitRecommendation struct {
	ApplicantID        string   `json:"applicantId"`
	RecommendedLimit   float64  `json:"recommendedLimit"`
	BaseLimit          float64  `json:"baseLimit"`
	ReviewPeriodMonths int      `json:"reviewPeriodMonths"`
	Adjustments        []string `json:"adjustments,omitempty"`
}

// LoanPricing is the output of loan-pricing optimization.
type LoanPricing struct {
	ApplicantID      string  `json:"applicantId"`
	BaseRate         float64 `json:"baseRate"`
	RiskPremium      float64 `json:"riskPremium"`
	CreditAdjustment float64 `json:"creditAdjustment"`
	DemandAdjustment float64 `json:"demandAdjustment"`
	FinalRate        float64 `json:"finalRate"`
	CompetitorMean   float64 `json:"competitorMean,omitempty"`
	Competitiveness  string  `json:"competitiveness"` // "below_market", "at_market", "above_market"
}

// ThresholdImpact reports the effect of moving the auto-approve threshold.
type ThresholdImpact struct {
	CurrentThreshold  float64 `json:"currentThreshold"`
	ProposedThreshold float64 `json:"proposedThreshold"`
	CurrentApprovals  int     `json:"currentApprovals"`
	ProposedApprovals int     `json:"proposedApprovals"`
	ApprovalRateDelta float64 `json:"approvalRateDelta"`
	ExpectedLossDelta float64 `json:"expectedLossDelta"`
}
