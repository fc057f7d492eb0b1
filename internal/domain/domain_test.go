package domain

import (
	"errors"
	"math"
	"testing"
)

func validApplication() *CreditApplication {
	return &CreditApplication{
		ApplicantID: "app-001",
		TraditionalCredit: TraditionalCredit{
			PersonalCreditScore: 700,
		},
		FinancialData: FinancialData{
			AnnualRevenue: 400000,
		},
		LoanRequest: LoanRequest{
			Amount: 50000,
			Term:   36,
		},
	}
}

func TestCreditApplicationValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		if err := validApplication().Validate(); err != nil {
			t.Errorf("valid application rejected: %v", err)
		}
	})

	t.Run("MonthlyRevenueAlone", func(t *testing.T) {
		app := validApplication()
		app.FinancialData.AnnualRevenue = 0
		app.FinancialData.MonthlyRevenue = 30000

		if err := app.Validate(); err != nil {
			t.Errorf("monthly revenue alone should satisfy the revenue check: %v", err)
		}
	})

	cases := []struct {
		name   string
		mutate func(*CreditApplication)
	}{
		{"MissingApplicantID", func(a *CreditApplication) { a.ApplicantID = "" }},
		{"MissingCreditScore", func(a *CreditApplication) { a.TraditionalCredit.PersonalCreditScore = 0 }},
		{"MissingRevenue", func(a *CreditApplication) {
			a.FinancialData.AnnualRevenue = 0
			a.FinancialData.MonthlyRevenue = 0
		}},
		{"ZeroAmount", func(a *CreditApplication) { a.LoanRequest.Amount = 0 }},
		{"NegativeAmount", func(a *CreditApplication) { a.LoanRequest.Amount = -1000 }},
		{"ZeroTerm", func(a *CreditApplication) { a.LoanRequest.Term = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := validApplication()
			tc.mutate(app)

			err := app.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrMalformedApplication) {
				t.Errorf("error should wrap ErrMalformedApplication: %v", err)
			}
		})
	}

	t.Run("OutOfRangeValuesAreNotErrors", func(t *testing.T) {
		app := validApplication()
		app.TraditionalCredit.PersonalCreditScore = 2000
		app.TraditionalCredit.CreditUtilization = 400

		if err := app.Validate(); err != nil {
			t.Errorf("range violations should pass validation and clamp during scoring: %v", err)
		}
	})
}

func TestScoringConfigValidate(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		if err := DefaultScoringConfig().Validate(); err != nil {
			t.Errorf("default config invalid: %v", err)
		}
	})

	cases := []struct {
		name   string
		mutate func(*ScoringConfig)
	}{
		{"WeightsDoNotSum", func(c *ScoringConfig) { c.TraditionalCreditWeight = 0.50 }},
		{"DeclineAboveApprove", func(c *ScoringConfig) { c.AutoDeclineScore = 800 }},
		{"ZeroLGD", func(c *ScoringConfig) { c.LossGivenDefault = 0 }},
		{"LGDAboveOne", func(c *ScoringConfig) { c.LossGivenDefault = 1.5 }},
		{"ZeroMaxAutoApprove", func(c *ScoringConfig) { c.MaxAutoApproveAmount = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultScoringConfig()
			tc.mutate(&cfg)

			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestComponentWeights(t *testing.T) {
	weights := DefaultScoringConfig().ComponentWeights()

	if len(weights) != 5 {
		t.Fatalf("expected 5 component weights, got %d", len(weights))
	}

	var sum float64
	for _, w := range weights {
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("weights sum to %.12f, want 1.0", sum)
	}

	if weights[ComponentTraditionalCredit] != 0.35 {
		t.Errorf("traditional credit weight = %.2f, want 0.35", weights[ComponentTraditionalCredit])
	}
}
