package scoring

import (
	"math"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// Features are the seven normalized inputs to the default-probability model.
// All values live in [0,1]. Every feature except CashFlowVolatility points
// in the "good" direction: higher means lower risk.
type Features struct {
	CreditRatio        float64 // personal score / 850
	ProfitMargin       float64 // margin / 0.20, capped
	TenureRatio        float64 // years in business / 10, capped
	InverseUtilization float64 // 1 - utilization/100
	RevenueGrowth      float64 // growth / 0.20, capped
	CashFlowVolatility float64 // as reported
	RepeatCustomerRate float64 // as reported
}

// Vector returns the features in model weight order.
func (f Features) Vector() [7]float64 {
	return [7]float64{
		f.CreditRatio,
		f.ProfitMargin,
		f.TenureRatio,
		f.InverseUtilization,
		f.RevenueGrowth,
		f.CashFlowVolatility,
		f.RepeatCustomerRate,
	}
}

// RiskModel estimates a default probability from normalized features.
// The default implementation is a fixed-weight logistic model; swapping
// the weight vector does not touch the scoring orchestration.
type RiskModel interface {
	DefaultProbability(f Features) float64
}

// LogisticModel is the standard linear-logit PD model.
//
// The logit accumulates weighted feature shortfalls (1 - value): a perfect
// applicant contributes nothing, a weak one the full weight. Volatility
// carries a negative weight, so stable cash flow pulls the logit down
// instead of a shortfall pushing it up.
type LogisticModel struct {
	Bias    float64
	Gain    float64
	Weights [7]float64
}

// NewLogisticModel returns the model with the standard calibration.
// The bias and gain anchor a clean profile well under the 10%
// auto-approve probability cap while a fully shortfallen one lands
// above 80%.
func NewLogisticModel() *LogisticModel {
	return &LogisticModel{
		Bias:    -3.0,
		Gain:    5.0,
		Weights: [7]float64{0.25, 0.20, 0.15, 0.10, 0.10, -0.10, 0.10},
	}
}

// DefaultProbability runs the logit through a sigmoid and clamps to [0.01, 0.99].
func (m *LogisticModel) DefaultProbability(f Features) float64 {
	v := f.Vector()

	var sum float64
	for i, w := range m.Weights {
		sum += w * (1 - clamp(v[i], 0, 1))
	}

	z := m.Bias + m.Gain*sum
	pd := 1.0 / (1.0 + math.Exp(-z))

	return clamp(pd, 0.01, 0.99)
}

// ExtractFeatures normalizes raw application data into model features.
func ExtractFeatures(app *domain.CreditApplication) Features {
	tc := app.TraditionalCredit
	fin := app.FinancialData

	return Features{
		CreditRatio:        clamp(float64(tc.PersonalCreditScore)/domain.ScoreCeiling, 0, 1),
		ProfitMargin:       clamp(fin.ProfitMargin/0.20, 0, 1),
		TenureRatio:        clamp(app.BusinessInfo.YearsInBusiness/10, 0, 1),
		InverseUtilization: clamp(1-tc.CreditUtilization/100, 0, 1),
		RevenueGrowth:      clamp(fin.RevenueGrowthRate/0.20, 0, 1),
		CashFlowVolatility: clamp(app.AlternativeData.BankingBehavior.CashFlowVolatility, 0, 1),
		RepeatCustomerRate: clamp(app.AlternativeData.BusinessMetrics.RepeatCustomerRate, 0, 1),
	}
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
