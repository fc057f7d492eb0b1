package scoring

import (
	"fmt"
	"sort"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// Loan sizing tiers as fractions of annual revenue.
const (
	maxLoanPctApprove    = 0.25
	maxLoanPctConditions = 0.20
	maxLoanPctReview     = 0.15
)

// Interest rate parameters: base plus a risk add-on proportional to the
// distance from a perfect score.
const (
	baseRatePct   = 6.0
	rateSpreadPct = 12.0
)

// recommend derives the lending recommendation from the threshold table
// on (score, probability).
func (e *Engine) recommend(app *domain.CreditApplication, score, pd float64) domain.Recommendation {
	rec := domain.Recommendation{
		SuggestedInterestRate: baseRatePct + (1-score/domain.ScoreCeiling)*rateSpreadPct,
		SuggestedTerm:         app.LoanRequest.Term,
	}

	revenue := app.FinancialData.AnnualRevenue

	switch {
	case score >= 750 && pd < 0.10:
		rec.Decision = domain.DecisionApprove
		rec.MaxLoanAmount = revenue * maxLoanPctApprove
		rec.Reasoning = fmt.Sprintf(
			"strong credit profile: score %.0f with %.1f%% default probability supports unconditional approval",
			score, pd*100)

	case score >= 650 && pd < 0.30:
		rec.Decision = domain.DecisionApproveWithConditions
		rec.MaxLoanAmount = revenue * maxLoanPctConditions
		rec.RequiredCollateral = pd >= 0.15
		rec.Conditions = []string{
			"quarterly financial statements for the life of the loan",
			"maintain minimum cash reserves of two months of expenses",
		}
		if rec.RequiredCollateral {
			rec.Conditions = append(rec.Conditions, "collateral covering at least 50% of the principal")
		}
		rec.Reasoning = fmt.Sprintf(
			"solid profile with moderate risk: score %.0f, %.1f%% default probability; conditions mitigate residual risk",
			score, pd*100)

	case score >= 550 && pd < 0.50:
		rec.Decision = domain.DecisionReview
		rec.MaxLoanAmount = revenue * maxLoanPctReview
		rec.RequiredCollateral = true
		rec.Conditions = []string{
			"manual underwriting review required",
			"personal guarantee from majority owner",
		}
		rec.Reasoning = fmt.Sprintf(
			"borderline profile: score %.0f, %.1f%% default probability requires underwriter judgment",
			score, pd*100)

	default:
		rec.Decision = domain.DecisionDecline
		rec.MaxLoanAmount = 0
		rec.Reasoning = fmt.Sprintf(
			"risk outside lending appetite: score %.0f, %.1f%% default probability",
			score, pd*100)
	}

	return rec
}

// keyFactors re-examines raw inputs against fixed thresholds and returns
// the ranked positive and negative drivers, at most five each.
func keyFactors(app *domain.CreditApplication) domain.KeyFactors {
	var positive, negative []domain.KeyFactor

	tc := app.TraditionalCredit
	fin := app.FinancialData

	if tc.PersonalCreditScore >= 750 {
		positive = append(positive, domain.KeyFactor{
			Factor: "personal_credit_score",
			Detail: fmt.Sprintf("personal credit score of %d is excellent", tc.PersonalCreditScore),
			Impact: 35,
		})
	} else if tc.PersonalCreditScore < 600 {
		negative = append(negative, domain.KeyFactor{
			Factor: "personal_credit_score",
			Detail: fmt.Sprintf("personal credit score of %d is weak", tc.PersonalCreditScore),
			Impact: 35,
		})
	}

	late := 0
	for _, p := range tc.PaymentHistory {
		if p.PaymentStatus == domain.PaymentLate {
			late++
		}
	}
	if late == 0 && len(tc.PaymentHistory) > 0 {
		positive = append(positive, domain.KeyFactor{
			Factor: "payment_history",
			Detail: "no late payments on record",
			Impact: 30,
		})
	} else if late > 3 {
		negative = append(negative, domain.KeyFactor{
			Factor: "payment_history",
			Detail: fmt.Sprintf("%d late payments on record", late),
			Impact: 30,
		})
	}

	if fin.ProfitMargin > 0.15 {
		positive = append(positive, domain.KeyFactor{
			Factor: "profit_margin",
			Detail: fmt.Sprintf("profit margin of %.0f%% is healthy", fin.ProfitMargin*100),
			Impact: 25,
		})
	} else if fin.ProfitMargin < 0.05 {
		negative = append(negative, domain.KeyFactor{
			Factor: "profit_margin",
			Detail: fmt.Sprintf("profit margin of %.0f%% is thin", fin.ProfitMargin*100),
			Impact: 25,
		})
	}

	if fin.RevenueGrowthRate > 0.20 {
		positive = append(positive, domain.KeyFactor{
			Factor: "revenue_growth",
			Detail: fmt.Sprintf("revenue growing %.0f%% year over year", fin.RevenueGrowthRate*100),
			Impact: 20,
		})
	} else if fin.RevenueGrowthRate < 0 {
		negative = append(negative, domain.KeyFactor{
			Factor: "revenue_growth",
			Detail: fmt.Sprintf("revenue shrinking %.0f%% year over year", -fin.RevenueGrowthRate*100),
			Impact: 20,
		})
	}

	runway := 0.0
	if fin.MonthlyExpenses > 0 {
		runway = fin.CashReserves / fin.MonthlyExpenses
	}
	if runway > 6 {
		positive = append(positive, domain.KeyFactor{
			Factor: "cash_runway",
			Detail: fmt.Sprintf("%.1f months of cash runway", runway),
			Impact: 15,
		})
	} else if runway < 3 {
		negative = append(negative, domain.KeyFactor{
			Factor: "cash_runway",
			Detail: fmt.Sprintf("only %.1f months of cash runway", runway),
			Impact: 15,
		})
	}

	if app.BusinessInfo.YearsInBusiness >= 5 {
		positive = append(positive, domain.KeyFactor{
			Factor: "business_tenure",
			Detail: fmt.Sprintf("%.0f years in business", app.BusinessInfo.YearsInBusiness),
			Impact: 10,
		})
	} else if app.BusinessInfo.YearsInBusiness < 2 {
		negative = append(negative, domain.KeyFactor{
			Factor: "business_tenure",
			Detail: fmt.Sprintf("only %.1f years in business", app.BusinessInfo.YearsInBusiness),
			Impact: 10,
		})
	}

	sortFactors := func(fs []domain.KeyFactor) []domain.KeyFactor {
		sort.SliceStable(fs, func(i, j int) bool { return fs[i].Impact > fs[j].Impact })
		if len(fs) > 5 {
			fs = fs[:5]
		}
		return fs
	}

	return domain.KeyFactors{
		Positive: sortFactors(positive),
		Negative: sortFactors(negative),
	}
}
