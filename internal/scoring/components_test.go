package scoring

import (
	"math"
	"testing"

	"github.com/opensource-finance/kestrel/internal/domain"
)

func TestScoreTraditionalCredit(t *testing.T) {
	base := domain.TraditionalCredit{
		PersonalCreditScore: 720,
		BusinessCreditScore: 75,
		PaymentHistory: []domain.PaymentRecord{
			{PaymentStatus: domain.PaymentOnTime},
			{PaymentStatus: domain.PaymentOnTime},
			{PaymentStatus: domain.PaymentOnTime},
		},
		CreditUtilization: 25,
		OldestAccountAge:  84,
	}

	t.Run("HigherPersonalScoreNeverLowers", func(t *testing.T) {
		prev := 0.0
		for score := 300; score <= 850; score += 50 {
			tc := base
			tc.PersonalCreditScore = score
			got, _ := scoreTraditionalCredit(tc)
			if got < prev {
				t.Errorf("component dropped from %.2f to %.2f when credit rose to %d", prev, got, score)
			}
			prev = got
		}
	})

	t.Run("DerogatoryPenalties", func(t *testing.T) {
		clean, _ := scoreTraditionalCredit(base)

		withBankruptcy := base
		withBankruptcy.Bankruptcies = 1
		bk, _ := scoreTraditionalCredit(withBankruptcy)
		if clean-bk != 100 {
			t.Errorf("bankruptcy should cost exactly 100 points, cost %.2f", clean-bk)
		}

		withCollections := base
		withCollections.Collections = 2
		coll, _ := scoreTraditionalCredit(withCollections)
		if clean-coll != 50 {
			t.Errorf("two collections should cost exactly 50 points, cost %.2f", clean-coll)
		}
	})

	t.Run("LatePaymentsLowerScore", func(t *testing.T) {
		late := base
		late.PaymentHistory = []domain.PaymentRecord{
			{PaymentStatus: domain.PaymentLate},
			{PaymentStatus: domain.PaymentLate},
			{PaymentStatus: domain.PaymentOnTime},
		}

		cleanScore, _ := scoreTraditionalCredit(base)
		lateScore, lateFactors := scoreTraditionalCredit(late)

		if lateScore >= cleanScore {
			t.Errorf("late history scored %.2f, clean scored %.2f", lateScore, cleanScore)
		}
		if !containsFactor(lateFactors, "67% of payments late") {
			t.Errorf("expected late-payment factor, got %v", lateFactors)
		}
	})

	t.Run("MissingBusinessScoreFlagged", func(t *testing.T) {
		noBiz := base
		noBiz.BusinessCreditScore = 0

		withScore, _ := scoreTraditionalCredit(base)
		withoutScore, factors := scoreTraditionalCredit(noBiz)

		if withoutScore >= withScore {
			t.Errorf("missing business score gained points: %.2f vs %.2f", withoutScore, withScore)
		}
		if !containsFactor(factors, "no business credit score reported") {
			t.Errorf("expected missing-score factor, got %v", factors)
		}
	})

	t.Run("SeasonedAccountBonus", func(t *testing.T) {
		young := base
		young.OldestAccountAge = 36

		seasoned, _ := scoreTraditionalCredit(base)
		unseasoned, _ := scoreTraditionalCredit(young)

		if seasoned-unseasoned != 25 {
			t.Errorf("expected 25-point seasoning bonus, got %.2f", seasoned-unseasoned)
		}
	})

	t.Run("FloorAndCeiling", func(t *testing.T) {
		worst := domain.TraditionalCredit{
			PersonalCreditScore: 300,
			CreditUtilization:   100,
			Bankruptcies:        5,
			Foreclosures:        5,
			Collections:         10,
			PaymentHistory: []domain.PaymentRecord{
				{PaymentStatus: domain.PaymentLate},
			},
		}
		got, _ := scoreTraditionalCredit(worst)
		if got != domain.ScoreFloor {
			t.Errorf("expected floor 300, got %.2f", got)
		}
	})
}

func TestScoreFinancialHealth(t *testing.T) {
	healthy := domain.FinancialData{
		AnnualRevenue:     800000,
		MonthlyExpenses:   30000,
		NetIncome:         160000,
		ProfitMargin:      0.20,
		CashReserves:      200000,
		Assets:            500000,
		Liabilities:       100000,
		RevenueGrowthRate: 0.30,
	}

	t.Run("HealthyBeatsDistressed", func(t *testing.T) {
		distressed := healthy
		distressed.ProfitMargin = -0.10
		distressed.CashReserves = 10000
		distressed.Liabilities = 600000
		distressed.RevenueGrowthRate = -0.20

		h, _ := scoreFinancialHealth(healthy)
		d, factors := scoreFinancialHealth(distressed)

		if d >= h {
			t.Errorf("distressed scored %.2f, healthy %.2f", d, h)
		}
		if !containsFactor(factors, "operating at a loss") {
			t.Errorf("expected loss factor, got %v", factors)
		}
		if !containsFactor(factors, "negative or zero equity") {
			t.Errorf("expected equity factor, got %v", factors)
		}
	})

	t.Run("ZeroExpensesMeansNoRunway", func(t *testing.T) {
		noExpenses := healthy
		noExpenses.MonthlyExpenses = 0

		withRunway, _ := scoreFinancialHealth(healthy)
		withoutRunway, _ := scoreFinancialHealth(noExpenses)

		if withoutRunway >= withRunway {
			t.Errorf("zero expenses should forfeit runway points: %.2f vs %.2f", withoutRunway, withRunway)
		}
	})

	t.Run("RunwayCapsAtSixMonths", func(t *testing.T) {
		six := healthy
		six.CashReserves = 6 * six.MonthlyExpenses

		twelve := healthy
		twelve.CashReserves = 12 * twelve.MonthlyExpenses

		a, _ := scoreFinancialHealth(six)
		b, _ := scoreFinancialHealth(twelve)

		if a != b {
			t.Errorf("runway beyond six months changed the score: %.2f vs %.2f", a, b)
		}
	})
}

func TestScoreBusinessStability(t *testing.T) {
	t.Run("StructureOrdering", func(t *testing.T) {
		info := domain.BusinessInfo{
			YearsInBusiness:     5,
			NumberOfEmployees:   10,
			Locations:           2,
			OwnershipPercentage: 80,
		}

		structures := []domain.BusinessStructure{
			domain.StructureCorporation,
			domain.StructureSCorp,
			domain.StructureLLC,
			domain.StructurePartnership,
			domain.StructureSoleProprietor,
		}

		prev := domain.ScoreCeiling + 1
		for _, s := range structures {
			info.BusinessStructure = s
			got, _ := scoreBusinessStability(info)
			if got >= prev {
				t.Errorf("structure %s scored %.2f, not below %.2f", s, got, prev)
			}
			prev = got
		}
	})

	t.Run("UnknownStructureDefaults", func(t *testing.T) {
		info := domain.BusinessInfo{
			YearsInBusiness:     5,
			BusinessStructure:   "cooperative",
			OwnershipPercentage: 75,
		}

		got, _ := scoreBusinessStability(info)

		// 0.40*50 tenure + 0.20*50 default structure + 0.20*75 ownership
		// = raw 45, rescaled.
		want := rescale(45)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("default structure score = %.4f, want %.4f", got, want)
		}
	})

	t.Run("TenureCapsAtTenYears", func(t *testing.T) {
		info := domain.BusinessInfo{BusinessStructure: domain.StructureLLC, OwnershipPercentage: 100}

		info.YearsInBusiness = 10
		ten, _ := scoreBusinessStability(info)

		info.YearsInBusiness = 30
		thirty, _ := scoreBusinessStability(info)

		if ten != thirty {
			t.Errorf("tenure beyond ten years changed the score: %.2f vs %.2f", ten, thirty)
		}
	})

	t.Run("YoungBusinessFlagged", func(t *testing.T) {
		info := domain.BusinessInfo{YearsInBusiness: 1, BusinessStructure: domain.StructureLLC}
		_, factors := scoreBusinessStability(info)

		if !containsFactor(factors, "under two years in business") {
			t.Errorf("expected young-business factor, got %v", factors)
		}
	})
}

func TestScoreAlternativeData(t *testing.T) {
	strong := domain.AlternativeData{
		BankingBehavior: domain.BankingBehavior{
			AverageDailyBalance: 60000,
			CashFlowVolatility:  0.1,
		},
		BusinessMetrics: domain.BusinessMetrics{
			RepeatCustomerRate: 0.9,
			CustomerChurnRate:  0.05,
		},
		DigitalFootprint: domain.DigitalFootprint{
			OnlineReviewRating: 4.5,
			ReviewCount:        200,
			WebsiteTrafficRank: 0.8,
		},
		SupplierRelationships: domain.SupplierRelationships{
			AverageRelationshipYears: 8,
			OnTimePaymentRate:        0.95,
		},
		CustomerBehavior: domain.CustomerBehavior{
			TransactionFrequency: 150,
			SeasonalityIndex:     0.2,
		},
	}

	t.Run("StrongSignalsScoreHigh", func(t *testing.T) {
		got, factors := scoreAlternativeData(strong)
		if got < 700 {
			t.Errorf("strong alternative data scored only %.2f", got)
		}
		if !containsFactor(factors, "strong repeat customer base") {
			t.Errorf("expected repeat-customer factor, got %v", factors)
		}
	})

	t.Run("OverdraftsFlagged", func(t *testing.T) {
		noisy := strong
		noisy.BankingBehavior.OverdraftCount = 8
		noisy.BankingBehavior.CashFlowVolatility = 0.7

		strongScore, _ := scoreAlternativeData(strong)
		noisyScore, factors := scoreAlternativeData(noisy)

		if noisyScore >= strongScore {
			t.Errorf("noisy banking scored %.2f, strong %.2f", noisyScore, strongScore)
		}
		if !containsFactor(factors, "frequent overdrafts") {
			t.Errorf("expected overdraft factor, got %v", factors)
		}
	})

	t.Run("UnreportedGroupsScoreNeutral", func(t *testing.T) {
		got, factors := scoreAlternativeData(domain.AlternativeData{})
		// All five groups unreported: every term sits at the neutral 50.
		if want := rescale(signalNeutralScore); got != want {
			t.Errorf("empty alternative data scored %.2f, want neutral %.2f", got, want)
		}
		if len(factors) != 0 {
			t.Errorf("unreported data should not flag, got %v", factors)
		}
	})

	t.Run("PartialReportingMixesNeutral", func(t *testing.T) {
		partial := domain.AlternativeData{BankingBehavior: strong.BankingBehavior}
		got, _ := scoreAlternativeData(partial)

		allNeutral, _ := scoreAlternativeData(domain.AlternativeData{})
		full, _ := scoreAlternativeData(strong)

		if got <= allNeutral {
			t.Errorf("strong banking with neutral rest scored %.2f, not above neutral %.2f", got, allNeutral)
		}
		if got >= full {
			t.Errorf("partial reporting scored %.2f, not below fully strong %.2f", got, full)
		}
	})
}

func TestScoreIndustryRisk(t *testing.T) {
	t.Run("SafestToRiskiest", func(t *testing.T) {
		healthcare, _ := scoreIndustryRisk(domain.IndustryHealthcare)
		restaurants, restFactors := scoreIndustryRisk(domain.IndustryRestaurants)

		if healthcare <= restaurants {
			t.Errorf("healthcare %.2f should outscore restaurants %.2f", healthcare, restaurants)
		}
		if !containsFactor(restFactors, "high-risk industry") {
			t.Errorf("expected high-risk factor for restaurants, got %v", restFactors)
		}
	})

	t.Run("UnknownIndustryDefaults", func(t *testing.T) {
		unknown, factors := scoreIndustryRisk("quantum_llama_farming")
		want := rescale(65)

		if unknown != want {
			t.Errorf("unknown industry scored %.2f, want default %.2f", unknown, want)
		}
		if len(factors) != 0 {
			t.Errorf("default bucket should not flag, got %v", factors)
		}
	})
}

func TestIsHighRiskIndustry(t *testing.T) {
	if IsHighRiskIndustry(domain.IndustryTechnology) {
		t.Error("technology should not be high risk")
	}
	if !IsHighRiskIndustry(domain.IndustryRestaurants) {
		t.Error("restaurants should be high risk")
	}
	if !IsHighRiskIndustry(domain.IndustryHospitality) {
		t.Error("hospitality should be high risk")
	}
	if IsHighRiskIndustry("unknown") {
		t.Error("unknown industries land in the default bucket, not high risk")
	}
}

func TestRescale(t *testing.T) {
	cases := []struct {
		raw  float64
		want float64
	}{
		{0, 300},
		{50, 575},
		{100, 850},
		{-20, 300}, // clamped
		{150, 850}, // clamped
	}

	for _, tc := range cases {
		if got := rescale(tc.raw); got != tc.want {
			t.Errorf("rescale(%.0f) = %.2f, want %.2f", tc.raw, got, tc.want)
		}
	}
}

func TestLateRatio(t *testing.T) {
	if got := lateRatio(nil); got != 0 {
		t.Errorf("empty history should ratio 0, got %.2f", got)
	}

	history := []domain.PaymentRecord{
		{PaymentStatus: domain.PaymentLate},
		{PaymentStatus: domain.PaymentOnTime},
		{PaymentStatus: domain.PaymentOnTime},
		{PaymentStatus: domain.PaymentLate},
	}
	if got := lateRatio(history); got != 0.5 {
		t.Errorf("expected ratio 0.5, got %.2f", got)
	}
}

func containsFactor(factors []string, want string) bool {
	for _, f := range factors {
		if f == want {
			return true
		}
	}
	return false
}
