package risk

import (
	"github.com/opensource-finance/kestrel/internal/domain"
)

// OptimalCreditLimit sizes a revolving limit from monthly revenue, scaled
// by score quality, then adjusted for cash position, margin and tenure.
// The score must come from a prior scoring run: the limit depends on it.
func (a *Analyzer) OptimalCreditLimit(app *domain.CreditApplication, score *domain.CreditScoreResult) *domain.CreditLimitRecommendation {
	rec := &domain.CreditLimitRecommendation{
		ApplicantID: app.ApplicantID,
	}

	fin := app.FinancialData

	base := 2 * fin.MonthlyRevenue
	rec.BaseLimit = base

	scoreRatio := (score.OverallScore - domain.ScoreFloor) / domain.ScoreRange
	limit := base * (0.5 + 0.5*scoreRatio)

	if fin.MonthlyExpenses > 0 {
		switch runway := fin.CashReserves / fin.MonthlyExpenses; {
		case runway >= 3:
			limit *= 1.20
			rec.Adjustments = append(rec.Adjustments, "+20% for strong cash reserves")
		case runway < 1:
			limit *= 0.80
			rec.Adjustments = append(rec.Adjustments, "-20% for thin cash reserves")
		}
	}

	switch {
	case fin.ProfitMargin > 0.15:
		limit *= 1.10
		rec.Adjustments = append(rec.Adjustments, "+10% for healthy margin")
	case fin.ProfitMargin < 0.05:
		limit *= 0.90
		rec.Adjustments = append(rec.Adjustments, "-10% for thin margin")
	}

	switch years := app.BusinessInfo.YearsInBusiness; {
	case years >= 5:
		limit *= 1.15
		rec.Adjustments = append(rec.Adjustments, "+15% for established tenure")
	case years < 2:
		limit *= 0.85
		rec.Adjustments = append(rec.Adjustments, "-15% for short tenure")
	}

	rec.RecommendedLimit = limit

	switch score.Rating {
	case domain.RatingAPlus, domain.RatingA, domain.RatingBPlus:
		rec.ReviewPeriodMonths = 12
	default:
		rec.ReviewPeriodMonths = 6
	}

	return rec
}

// Pricing constants: premium scales with PD, the credit adjustment with
// distance from a perfect score.
const (
	pricingBaseRate       = 6.0
	pricingPDMultiplier   = 10.0
	pricingCreditSpread   = 3.0
	competitivenessMargin = 0.5
)

// OptimizeLoanPricing prices a loan from base rate, risk premium and
// credit adjustment, optionally shifted by a demand adjustment, and
// labels competitiveness against the mean competitor rate.
func (a *Analyzer) OptimizeLoanPricing(app *domain.CreditApplication, score *domain.CreditScoreResult, competitorRates []float64, demandAdjustment float64) *domain.LoanPricing {
	pricing := &domain.LoanPricing{
		ApplicantID:      app.ApplicantID,
		BaseRate:         pricingBaseRate,
		RiskPremium:      score.DefaultProbability * pricingPDMultiplier,
		CreditAdjustment: (domain.ScoreCeiling - score.OverallScore) / domain.ScoreCeiling * pricingCreditSpread,
		DemandAdjustment: demandAdjustment,
	}

	pricing.FinalRate = pricing.BaseRate + pricing.RiskPremium +
		pricing.CreditAdjustment + pricing.DemandAdjustment

	if len(competitorRates) == 0 {
		pricing.Competitiveness = "at_market"
		return pricing
	}

	var sum float64
	for _, r := range competitorRates {
		sum += r
	}
	pricing.CompetitorMean = sum / float64(len(competitorRates))

	switch {
	case pricing.FinalRate < pricing.CompetitorMean-competitivenessMargin:
		pricing.Competitiveness = "below_market"
	case pricing.FinalRate > pricing.CompetitorMean+competitivenessMargin:
		pricing.Competitiveness = "above_market"
	default:
		pricing.Competitiveness = "at_market"
	}

	return pricing
}
