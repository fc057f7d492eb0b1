// Package risk implements fraud heuristics, credit-limit and pricing
// optimization, portfolio aggregation, stress testing and early-warning
// detection on top of scored applications.
package risk

import (
	"math"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// Analyzer bundles the risk features. Like the scoring engine it is
// pure and stateless; the LGD and thresholds come from config.
type Analyzer struct {
	cfg domain.ScoringConfig
}

// NewAnalyzer creates a risk analyzer.
func NewAnalyzer(cfg domain.ScoringConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Fraud heuristic point values and decision thresholds.
const (
	fraudPointsRevenuePerEmployee = 25
	fraudPointsDepositFrequency   = 15
	fraudPointsInquiries          = 15
	fraudPointsBusinessAge        = 20
	fraudPointsRoundNumbers       = 10
	fraudPointsVolatileMargin     = 15

	fraudRejectThreshold      = 50.0
	fraudInvestigateThreshold = 30.0
)

// DetectFraud runs six independent heuristics, each adding fixed points
// to the risk score. The heuristics are deliberately coarse: they exist
// to route applications to investigation, not to prove fraud.
func (a *Analyzer) DetectFraud(app *domain.CreditApplication) *domain.FraudAssessment {
	assessment := &domain.FraudAssessment{
		ApplicantID: app.ApplicantID,
	}

	fin := app.FinancialData
	info := app.BusinessInfo
	tc := app.TraditionalCredit
	banking := app.AlternativeData.BankingBehavior

	score := 0.0
	addFlag := func(points float64, flag string) {
		score += points
		assessment.Flags = append(assessment.Flags, flag)
	}

	// Revenue per employee beyond plausible for a small business.
	if info.NumberOfEmployees > 0 &&
		fin.AnnualRevenue/float64(info.NumberOfEmployees) > 2_000_000 {
		addFlag(fraudPointsRevenuePerEmployee, "implausible revenue per employee")
	}

	if banking.DepositFrequency > 50 {
		addFlag(fraudPointsDepositFrequency, "abnormally high deposit frequency")
	}

	if tc.Inquiries > 10 {
		addFlag(fraudPointsInquiries, "excessive recent credit inquiries")
	}

	// A business credibly older than its founder's oldest credit account
	// suggests fabricated tenure.
	if tc.OldestAccountAge > 0 &&
		info.YearsInBusiness*12 > float64(tc.OldestAccountAge) {
		addFlag(fraudPointsBusinessAge, "claimed business age exceeds oldest credit account")
	}

	if fin.AnnualRevenue > 0 && fin.NetIncome > 0 &&
		math.Mod(fin.AnnualRevenue, 100_000) == 0 &&
		math.Mod(fin.NetIncome, 10_000) == 0 {
		addFlag(fraudPointsRoundNumbers, "suspiciously round revenue and income figures")
	}

	// High volatility with high margin rarely coexist in honest books.
	if banking.CashFlowVolatility > 0.7 && fin.ProfitMargin > 0.25 {
		addFlag(fraudPointsVolatileMargin, "high cash flow volatility with unusually high margin")
	}

	assessment.RiskScore = clamp(score, 0, 100)
	assessment.IsFraudulent = assessment.RiskScore > fraudRejectThreshold

	switch {
	case assessment.RiskScore > fraudRejectThreshold:
		assessment.Recommendation = domain.FraudReject
	case assessment.RiskScore > fraudInvestigateThreshold:
		assessment.Recommendation = domain.FraudInvestigate
	default:
		assessment.Recommendation = domain.FraudProceed
	}

	return assessment
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
