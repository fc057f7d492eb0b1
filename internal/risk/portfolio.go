package risk

import (
	"fmt"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// AnalyzePortfolioRisk aggregates default risk across a loan book:
// exposure-weighted average PD, single-industry concentration and
// expected loss at the configured LGD.
func (a *Analyzer) AnalyzePortfolioRisk(loans []*domain.Loan) *domain.PortfolioRisk {
	result := &domain.PortfolioRisk{
		LoanCount:        len(loans),
		IndustryExposure: make(map[string]float64),
	}

	if len(loans) == 0 {
		result.Rating = domain.PortfolioHealthy
		return result
	}

	var weightedPD float64
	for _, loan := range loans {
		result.TotalExposure += loan.Amount
		weightedPD += loan.Amount * loan.DefaultProbability
		result.ExpectedLoss += loan.Amount * loan.DefaultProbability * a.cfg.LossGivenDefault

		industry := loan.Industry
		if industry == "" {
			industry = domain.IndustryDefault
		}
		result.IndustryExposure[industry] += loan.Amount
	}

	if result.TotalExposure > 0 {
		result.WeightedAvgPD = weightedPD / result.TotalExposure
		for industry, exposure := range result.IndustryExposure {
			share := exposure / result.TotalExposure
			if share > result.ConcentrationRisk {
				result.ConcentrationRisk = share
				result.TopIndustry = industry
			}
		}
	}

	result.Rating = portfolioRating(result.WeightedAvgPD, result.ConcentrationRisk)
	result.Recommendations = portfolioRecommendations(result)

	return result
}

func portfolioRating(avgPD, concentration float64) domain.PortfolioRating {
	switch {
	case avgPD < 0.08 && concentration < 0.30:
		return domain.PortfolioHealthy
	case avgPD < 0.15 && concentration < 0.40:
		return domain.PortfolioStable
	case avgPD < 0.25 || concentration < 0.60:
		return domain.PortfolioElevated
	default:
		return domain.PortfolioCritical
	}
}

func portfolioRecommendations(p *domain.PortfolioRisk) []string {
	var recs []string

	if p.ConcentrationRisk > 0.25 {
		recs = append(recs, fmt.Sprintf(
			"diversify away from %s: %.0f%% of exposure in a single industry",
			p.TopIndustry, p.ConcentrationRisk*100))
	}
	if p.WeightedAvgPD > 0.15 {
		recs = append(recs, "tighten underwriting: weighted average default probability exceeds 15%")
	}
	if p.TotalExposure > 0 && p.ExpectedLoss > 0.05*p.TotalExposure {
		recs = append(recs, "increase loss reserves: expected loss exceeds 5% of exposure")
	}

	return recs
}

// Stress multipliers per scenario. Industry collapse derives its factor
// from the target industry's exposure share.
const (
	stressFactorDownturn  = 1.5
	stressFactorRateShock = 1.3
)

// PerformStressTest multiplies each loan's baseline PD by the scenario
// factor, clamped to 1, and reports the loss delta. For an industry
// collapse the factor is 1 + the target industry's exposure share,
// applied portfolio-wide: the bigger the collapsing sector, the harder
// the whole book is hit.
func (a *Analyzer) PerformStressTest(loans []*domain.Loan, scenario domain.StressScenario, targetIndustry string) *domain.StressTestResult {
	result := &domain.StressTestResult{
		Scenario:       scenario,
		TargetIndustry: targetIndustry,
	}

	if len(loans) == 0 {
		return result
	}

	var totalExposure, industryExposure float64
	for _, loan := range loans {
		totalExposure += loan.Amount
		if loan.Industry == targetIndustry {
			industryExposure += loan.Amount
		}
	}

	factor := 1.0
	switch scenario {
	case domain.ScenarioEconomicDownturn:
		factor = stressFactorDownturn
	case domain.ScenarioRateShock:
		factor = stressFactorRateShock
	case domain.ScenarioIndustryCollapse:
		if totalExposure > 0 {
			factor = 1 + industryExposure/totalExposure
		}
	}

	var baselineWeighted, stressedWeighted float64
	for _, loan := range loans {
		stressedPD := clamp(loan.DefaultProbability*factor, 0, 1)

		baselineWeighted += loan.Amount * loan.DefaultProbability
		stressedWeighted += loan.Amount * stressedPD
		result.BaselineLoss += loan.Amount * loan.DefaultProbability * a.cfg.LossGivenDefault
		result.StressedLoss += loan.Amount * stressedPD * a.cfg.LossGivenDefault
	}

	if totalExposure > 0 {
		result.BaselineAvgPD = baselineWeighted / totalExposure
		result.StressedAvgPD = stressedWeighted / totalExposure
	}

	result.LossIncrease = result.StressedLoss - result.BaselineLoss
	if result.BaselineLoss > 0 {
		result.LossIncreasePct = result.LossIncrease / result.BaselineLoss * 100
	}

	return result
}
