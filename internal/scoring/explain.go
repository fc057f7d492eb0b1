package scoring

import (
	"math"
	"sort"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// featureRange fixes the normalization bounds and attribution weight for
// one explainability feature. A raw value at the midpoint attributes
// zero; attribution scales linearly to +/- weight*50 at the bounds.
type featureRange struct {
	name   string
	min    float64
	max    float64
	weight float64
}

// The explainability features mirror the PD model's seven inputs, with
// the model's weight vector reused as attribution weights.
var explainFeatures = []featureRange{
	{"personal_credit_score", 300, 850, 0.25},
	{"profit_margin", -0.10, 0.30, 0.20},
	{"years_in_business", 0, 10, 0.15},
	{"credit_utilization", 100, 0, 0.10}, // inverted bounds: lower utilization is better
	{"revenue_growth", -0.25, 0.50, 0.10},
	{"cash_flow_volatility", 1, 0, 0.10}, // inverted bounds: lower volatility is better
	{"repeat_customer_rate", 0, 1, 0.10},
}

// rawFeatureValues extracts the raw inputs in explainFeatures order.
func rawFeatureValues(app *domain.CreditApplication) []float64 {
	return []float64{
		float64(app.TraditionalCredit.PersonalCreditScore),
		app.FinancialData.ProfitMargin,
		app.BusinessInfo.YearsInBusiness,
		app.TraditionalCredit.CreditUtilization,
		app.FinancialData.RevenueGrowthRate,
		app.AlternativeData.BankingBehavior.CashFlowVolatility,
		app.AlternativeData.BusinessMetrics.RepeatCustomerRate,
	}
}

// explain builds the full explainability block for a scored application.
func (e *Engine) explain(app *domain.CreditApplication, c core) domain.Explainability {
	values := rawFeatureValues(app)

	shap := make(map[string]float64, len(explainFeatures))
	var totalAbs float64
	for i, f := range explainFeatures {
		normalized := normalize(values[i], f.min, f.max)
		contribution := (normalized - 0.5) * f.weight * 100
		shap[f.name] = contribution
		totalAbs += math.Abs(contribution)
	}

	importance := make(map[string]float64, len(shap))
	for name, v := range shap {
		if totalAbs > 0 {
			importance[name] = math.Abs(v) / totalAbs
		} else {
			importance[name] = 1.0 / float64(len(shap))
		}
	}

	return domain.Explainability{
		ShapValues:        shap,
		FeatureImportance: importance,
		DecisionPath:      decisionPath(),
		WhatIfScenarios:   e.whatIfScenarios(app, c.overall),
	}
}

// normalize maps v into [0,1] against the bounds, supporting inverted
// ranges where min > max.
func normalize(v, min, max float64) float64 {
	if min == max {
		return 0.5
	}
	return clamp((v-min)/(max-min), 0, 1)
}

// decisionPath is the fixed narrative of scoring stages.
func decisionPath() []string {
	return []string{
		"validated application inputs and applied range clamps",
		"computed five weighted component scores",
		"combined component contributions into the overall score",
		"estimated default probability with the logistic risk model",
		"mapped score and probability to rating and risk category",
		"derived the lending recommendation from threshold tables",
	}
}

// whatIfMutation describes one candidate improvement to simulate.
type whatIfMutation struct {
	change    string
	current   func(*domain.CreditApplication) float64
	suggested float64
	apply     func(*domain.CreditApplication, float64)
	skip      func(*domain.CreditApplication) bool
}

var whatIfMutations = []whatIfMutation{
	{
		change:    "raise personal credit score to 750",
		current:   func(a *domain.CreditApplication) float64 { return float64(a.TraditionalCredit.PersonalCreditScore) },
		suggested: 750,
		apply:     func(a *domain.CreditApplication, v float64) { a.TraditionalCredit.PersonalCreditScore = int(v) },
		skip:      func(a *domain.CreditApplication) bool { return a.TraditionalCredit.PersonalCreditScore >= 750 },
	},
	{
		change:    "reduce credit utilization to 30%",
		current:   func(a *domain.CreditApplication) float64 { return a.TraditionalCredit.CreditUtilization },
		suggested: 30,
		apply:     func(a *domain.CreditApplication, v float64) { a.TraditionalCredit.CreditUtilization = v },
		skip:      func(a *domain.CreditApplication) bool { return a.TraditionalCredit.CreditUtilization <= 30 },
	},
	{
		change:    "improve profit margin to 15%",
		current:   func(a *domain.CreditApplication) float64 { return a.FinancialData.ProfitMargin },
		suggested: 0.15,
		apply:     func(a *domain.CreditApplication, v float64) { a.FinancialData.ProfitMargin = v },
		skip:      func(a *domain.CreditApplication) bool { return a.FinancialData.ProfitMargin >= 0.15 },
	},
	{
		change:    "build cash reserves to six months of expenses",
		current:   func(a *domain.CreditApplication) float64 { return a.FinancialData.CashReserves },
		suggested: 0, // computed from expenses at simulation time
		apply:     func(a *domain.CreditApplication, v float64) { a.FinancialData.CashReserves = v },
		skip: func(a *domain.CreditApplication) bool {
			return a.FinancialData.MonthlyExpenses <= 0 ||
				a.FinancialData.CashReserves >= 6*a.FinancialData.MonthlyExpenses
		},
	},
	{
		change:    "resolve accounts in collections",
		current:   func(a *domain.CreditApplication) float64 { return float64(a.TraditionalCredit.Collections) },
		suggested: 0,
		apply:     func(a *domain.CreditApplication, v float64) { a.TraditionalCredit.Collections = int(v) },
		skip:      func(a *domain.CreditApplication) bool { return a.TraditionalCredit.Collections == 0 },
	},
	{
		change:    "reduce cash flow volatility to 0.2",
		current:   func(a *domain.CreditApplication) float64 { return a.AlternativeData.BankingBehavior.CashFlowVolatility },
		suggested: 0.2,
		apply: func(a *domain.CreditApplication, v float64) {
			a.AlternativeData.BankingBehavior.CashFlowVolatility = v
		},
		skip: func(a *domain.CreditApplication) bool {
			return a.AlternativeData.BankingBehavior.CashFlowVolatility <= 0.2
		},
	},
	{
		change:    "increase repeat customer rate to 80%",
		current:   func(a *domain.CreditApplication) float64 { return a.AlternativeData.BusinessMetrics.RepeatCustomerRate },
		suggested: 0.8,
		apply: func(a *domain.CreditApplication, v float64) {
			a.AlternativeData.BusinessMetrics.RepeatCustomerRate = v
		},
		skip: func(a *domain.CreditApplication) bool {
			return a.AlternativeData.BusinessMetrics.RepeatCustomerRate >= 0.8
		},
	},
}

// whatIfScenarios simulates each applicable improvement against the
// current score and returns the top five by impact.
func (e *Engine) whatIfScenarios(app *domain.CreditApplication, baseline float64) []domain.WhatIfScenario {
	var scenarios []domain.WhatIfScenario

	for _, m := range whatIfMutations {
		if m.skip(app) {
			continue
		}

		modified := *app // shallow copy is safe: mutations set scalar fields only
		suggested := m.suggested
		if m.change == "build cash reserves to six months of expenses" {
			suggested = 6 * app.FinancialData.MonthlyExpenses
		}
		m.apply(&modified, suggested)

		impact := e.computeCore(&modified).overall - baseline
		if impact <= 0 {
			continue
		}

		scenarios = append(scenarios, domain.WhatIfScenario{
			Change:         m.change,
			CurrentValue:   m.current(app),
			SuggestedValue: suggested,
			ScoreImpact:    impact,
		})
	}

	sort.SliceStable(scenarios, func(i, j int) bool {
		return scenarios[i].ScoreImpact > scenarios[j].ScoreImpact
	})
	if len(scenarios) > 5 {
		scenarios = scenarios[:5]
	}

	return scenarios
}
