package scoring

import (
	"fmt"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// industryScores is the fixed [0,100] industry risk lookup. Higher is safer.
// Unknown industries fall through to industryDefaultScore.
var industryScores = map[string]float64{
	domain.IndustryHealthcare:    90,
	domain.IndustryProfessional:  88,
	domain.IndustryTechnology:    85,
	domain.IndustryManufacturing: 75,
	domain.IndustryRealEstate:    62,
	domain.IndustryAgriculture:   60,
	domain.IndustryTransport:     58,
	domain.IndustryRetail:        55,
	domain.IndustryConstruction:  50,
	domain.IndustryHospitality:   45,
	domain.IndustryRestaurants:   40,
}

const industryDefaultScore = 65

// highRiskIndustryCutoff marks industries that reduce scoring confidence.
const highRiskIndustryCutoff = 55

// structureScores maps legal structure to a [0,100] stability score.
var structureScores = map[domain.BusinessStructure]float64{
	domain.StructureCorporation:    100,
	domain.StructureSCorp:          90,
	domain.StructureLLC:            80,
	domain.StructurePartnership:    60,
	domain.StructureSoleProprietor: 40,
}

const structureDefaultScore float64 = 50

// IndustryScore returns the industry lookup value, defaulting for unknowns.
func IndustryScore(industry string) float64 {
	if s, ok := industryScores[industry]; ok {
		return s
	}
	return industryDefaultScore
}

// IsHighRiskIndustry reports whether the industry sits in the risky band.
func IsHighRiskIndustry(industry string) bool {
	return IndustryScore(industry) < highRiskIndustryCutoff
}

// lateRatio returns the share of late payments. Empty history counts as 0.
func lateRatio(history []domain.PaymentRecord) float64 {
	if len(history) == 0 {
		return 0
	}
	late := 0
	for _, p := range history {
		if p.PaymentStatus == domain.PaymentLate {
			late++
		}
	}
	return float64(late) / float64(len(history))
}

// scoreTraditionalCredit computes the bureau-data component on the 300-850 scale.
func scoreTraditionalCredit(tc domain.TraditionalCredit) (float64, []string) {
	var factors []string

	personal := clamp(float64(tc.PersonalCreditScore), domain.ScoreFloor, domain.ScoreCeiling)
	score := domain.ScoreFloor
	score += personal / domain.ScoreCeiling * domain.ScoreRange * 0.30

	if tc.BusinessCreditScore > 0 {
		business := clamp(float64(tc.BusinessCreditScore), 0, 100)
		score += business / 100 * domain.ScoreRange * 0.25
	} else {
		factors = append(factors, "no business credit score reported")
	}

	late := lateRatio(tc.PaymentHistory)
	score += (1 - late) * domain.ScoreRange * 0.35
	if late == 0 && len(tc.PaymentHistory) > 0 {
		factors = append(factors, "clean payment history")
	} else if late > 0 {
		factors = append(factors, fmt.Sprintf("%.0f%% of payments late", late*100))
	}

	util := clamp(tc.CreditUtilization, 0, 100)
	score += (1 - util/100) * domain.ScoreRange * 0.10
	if util > 70 {
		factors = append(factors, "high credit utilization")
	}

	score -= 100 * float64(tc.Bankruptcies)
	score -= 75 * float64(tc.Foreclosures)
	score -= 25 * float64(tc.Collections)
	if tc.Bankruptcies > 0 {
		factors = append(factors, "bankruptcy on record")
	}
	if tc.Collections > 0 {
		factors = append(factors, fmt.Sprintf("%d accounts in collections", tc.Collections))
	}

	if tc.OldestAccountAge > 60 {
		score += 25
		factors = append(factors, "established credit history over five years")
	}

	return clamp(score, domain.ScoreFloor, domain.ScoreCeiling), factors
}

// scoreFinancialHealth blends revenue size, margin, runway, leverage and
// growth into a 0-100 raw score, then rescales to 300-850.
func scoreFinancialHealth(fin domain.FinancialData) (float64, []string) {
	var factors []string

	revenueScore := clamp(fin.AnnualRevenue/1_000_000, 0, 1) * 100

	marginScore := clamp(fin.ProfitMargin/0.20, 0, 1) * 100
	if fin.ProfitMargin < 0 {
		marginScore = 0
		factors = append(factors, "operating at a loss")
	}

	// Cash runway in months, capped at six. Zero expenses means no runway
	// can be computed, which scores as zero rather than dividing.
	runway := 0.0
	if fin.MonthlyExpenses > 0 {
		runway = clamp(fin.CashReserves/fin.MonthlyExpenses, 0, 6)
	}
	runwayScore := runway / 6 * 100
	if runway >= 6 {
		factors = append(factors, "six or more months of cash runway")
	} else if runway < 3 {
		factors = append(factors, "under three months of cash runway")
	}

	// Debt-to-equity, with non-positive equity treated as maximally
	// levered. A balance sheet with neither assets nor liabilities
	// reported is unknown rather than levered and scores neutral.
	equity := fin.Assets - fin.Liabilities
	ratio := 5.0
	switch {
	case fin.Assets == 0 && fin.Liabilities == 0:
		ratio = 2.5
	case equity > 0:
		ratio = clamp(fin.Liabilities/equity, 0, 5)
	default:
		factors = append(factors, "negative or zero equity")
	}
	leverageScore := (1 - ratio/5) * 100

	growthScore := clamp(fin.RevenueGrowthRate, 0, 1) * 100
	if fin.RevenueGrowthRate < 0 {
		factors = append(factors, "revenue contracting")
	}

	raw := 0.25*revenueScore + 0.30*marginScore + 0.20*runwayScore +
		0.15*leverageScore + 0.10*growthScore

	return rescale(raw), factors
}

// scoreBusinessStability blends tenure, structure, scale and ownership.
func scoreBusinessStability(info domain.BusinessInfo) (float64, []string) {
	var factors []string

	tenureScore := clamp(info.YearsInBusiness/10, 0, 1) * 100
	if info.YearsInBusiness >= 5 {
		factors = append(factors, "five or more years in business")
	} else if info.YearsInBusiness < 2 {
		factors = append(factors, "under two years in business")
	}

	structureScore := structureDefaultScore
	if s, ok := structureScores[info.BusinessStructure]; ok {
		structureScore = s
	}

	employeeScore := clamp(float64(info.NumberOfEmployees)/50, 0, 1) * 100
	locationScore := clamp(float64(info.Locations)/10, 0, 1) * 100
	scaleScore := (employeeScore + locationScore) / 2

	ownershipScore := clamp(info.OwnershipPercentage, 0, 100)

	raw := 0.40*tenureScore + 0.20*structureScore + 0.20*scaleScore + 0.20*ownershipScore

	return rescale(raw), factors
}

// signalNeutralScore is the raw score for an unreported signal group.
// Missing alternative data is no evidence either way, so it must not
// drag the component the way genuinely weak signals do.
const signalNeutralScore = 50.0

// scoreAlternativeData blends the five behavioral signal groups.
// Zero-valued groups count as unreported and score neutral.
func scoreAlternativeData(alt domain.AlternativeData) (float64, []string) {
	var factors []string

	bankingScore := signalNeutralScore
	if bb := alt.BankingBehavior; bb != (domain.BankingBehavior{}) {
		balanceScore := clamp(bb.AverageDailyBalance/50_000, 0, 1) * 100
		stabilityScore := (1 - clamp(bb.CashFlowVolatility, 0, 1)) * 100
		overdraftScore := clamp(1-float64(bb.OverdraftCount)/10, 0, 1) * 100
		bankingScore = 0.4*balanceScore + 0.3*stabilityScore + 0.3*overdraftScore
		if bb.OverdraftCount > 3 {
			factors = append(factors, "frequent overdrafts")
		}
	}

	metricsScore := signalNeutralScore
	if bm := alt.BusinessMetrics; bm != (domain.BusinessMetrics{}) {
		metricsScore = 0.6*clamp(bm.RepeatCustomerRate, 0, 1)*100 +
			0.4*(1-clamp(bm.CustomerChurnRate, 0, 1))*100
		if bm.RepeatCustomerRate > 0.6 {
			factors = append(factors, "strong repeat customer base")
		}
	}

	digitalScore := signalNeutralScore
	if df := alt.DigitalFootprint; df != (domain.DigitalFootprint{}) {
		reviewScore := clamp(df.OnlineReviewRating/5, 0, 1) * clamp(float64(df.ReviewCount)/50, 0, 1) * 100
		digitalScore = 0.6*reviewScore + 0.4*clamp(df.WebsiteTrafficRank, 0, 1)*100
	}

	supplierScore := signalNeutralScore
	if sr := alt.SupplierRelationships; sr != (domain.SupplierRelationships{}) {
		supplierScore = 0.5*clamp(sr.OnTimePaymentRate, 0, 1)*100 +
			0.5*clamp(sr.AverageRelationshipYears/5, 0, 1)*100
	}

	customerScore := signalNeutralScore
	if cb := alt.CustomerBehavior; cb != (domain.CustomerBehavior{}) {
		customerScore = 0.5*clamp(float64(cb.TransactionFrequency)/100, 0, 1)*100 +
			0.5*(1-clamp(cb.SeasonalityIndex, 0, 1))*100
	}

	raw := 0.35*bankingScore + 0.25*metricsScore + 0.20*digitalScore +
		0.10*supplierScore + 0.10*customerScore

	return rescale(raw), factors
}

// scoreIndustryRisk rescales the industry lookup into the 300-850 band.
func scoreIndustryRisk(industry string) (float64, []string) {
	raw := IndustryScore(industry)

	var factors []string
	if raw < highRiskIndustryCutoff {
		factors = append(factors, "high-risk industry")
	}

	return rescale(raw), factors
}

// rescale maps a 0-100 raw score onto the 300-850 band.
func rescale(raw float64) float64 {
	return domain.ScoreFloor + clamp(raw, 0, 100)/100*domain.ScoreRange
}
