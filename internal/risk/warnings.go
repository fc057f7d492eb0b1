package risk

import (
	"github.com/opensource-finance/kestrel/internal/domain"
)

// Early-warning trigger points and severity buckets.
const (
	warnPointsRevenueDecline = 25
	warnPointsThinMargin     = 15
	warnPointsCriticalRunway = 25
	warnPointsLowRunway      = 15
	warnPointsOverdrafts     = 15
	warnPointsVolatility     = 10
	warnPointsChurn          = 10

	severityCriticalThreshold = 60
	severityHighThreshold     = 40
	severityMediumThreshold   = 20
)

// GenerateEarlyWarnings scores borrower deterioration from six triggers
// and buckets the result into a severity with a recommended action.
func (a *Analyzer) GenerateEarlyWarnings(app *domain.CreditApplication) *domain.EarlyWarning {
	warning := &domain.EarlyWarning{
		ApplicantID: app.ApplicantID,
	}

	fin := app.FinancialData
	banking := app.AlternativeData.BankingBehavior

	score := 0
	trigger := func(points int, description string) {
		score += points
		warning.Triggers = append(warning.Triggers, description)
	}

	if fin.RevenueGrowthRate < -0.10 {
		trigger(warnPointsRevenueDecline, "revenue declining more than 10%")
	}
	if fin.ProfitMargin < 0.05 {
		trigger(warnPointsThinMargin, "profit margin below 5%")
	}

	if fin.MonthlyExpenses > 0 {
		switch runway := fin.CashReserves / fin.MonthlyExpenses; {
		case runway < 2:
			trigger(warnPointsCriticalRunway, "under two months of cash runway")
		case runway < 3:
			trigger(warnPointsLowRunway, "under three months of cash runway")
		}
	}

	if banking.OverdraftCount > 3 {
		trigger(warnPointsOverdrafts, "more than three overdrafts in the last year")
	}
	if banking.CashFlowVolatility > 0.6 {
		trigger(warnPointsVolatility, "cash flow volatility above 0.6")
	}
	if app.AlternativeData.BusinessMetrics.CustomerChurnRate > 0.30 {
		trigger(warnPointsChurn, "customer churn above 30%")
	}

	warning.SeverityScore = score

	switch {
	case score >= severityCriticalThreshold:
		warning.Severity = domain.SeverityCritical
		warning.RecommendedAction = "escalate to the restructuring team immediately"
	case score >= severityHighThreshold:
		warning.Severity = domain.SeverityHigh
		warning.RecommendedAction = "schedule a portfolio review within two weeks"
	case score >= severityMediumThreshold:
		warning.Severity = domain.SeverityMedium
		warning.RecommendedAction = "increase monitoring frequency to monthly"
	default:
		warning.Severity = domain.SeverityLow
		warning.RecommendedAction = "continue routine monitoring"
	}

	return warning
}
