package policy

import (
	"context"
	"testing"

	"github.com/opensource-finance/kestrel/internal/domain"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	engine, err := NewEngine(5)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine
}

func testRule(id, expression string, effect domain.PolicyEffect) *domain.PolicyRule {
	return &domain.PolicyRule{
		ID:         id,
		TenantID:   "*",
		Name:       id,
		Expression: expression,
		Effect:     effect,
		Reason:     "matched " + id,
		Enabled:    true,
	}
}

func testApplication() *domain.CreditApplication {
	return &domain.CreditApplication{
		ApplicantID: "applicant-001",
		TraditionalCredit: domain.TraditionalCredit{
			PersonalCreditScore: 680,
			CreditUtilization:   45,
			TotalDebt:           120000,
			Inquiries:           4,
		},
		FinancialData: domain.FinancialData{
			AnnualRevenue: 400000,
			NetIncome:     40000,
			ProfitMargin:  0.10,
		},
		BusinessInfo: domain.BusinessInfo{
			Industry:          domain.IndustryRetail,
			YearsInBusiness:   3,
			NumberOfEmployees: 8,
		},
		LoanRequest: domain.LoanRequest{
			Amount: 150000,
			Term:   48,
		},
	}
}

func TestLoadRule(t *testing.T) {
	t.Run("ValidExpression", func(t *testing.T) {
		engine := newTestEngine(t)

		err := engine.LoadRule(testRule("r1", "loan_amount > 100000.0", domain.EffectReview))
		if err != nil {
			t.Fatalf("LoadRule failed: %v", err)
		}
		if engine.RulesCount() != 1 {
			t.Errorf("expected 1 rule, got %d", engine.RulesCount())
		}
	})

	t.Run("SyntaxError", func(t *testing.T) {
		engine := newTestEngine(t)

		err := engine.LoadRule(testRule("bad", "loan_amount >>> 1", domain.EffectFlag))
		if err == nil {
			t.Error("expected compile error for malformed expression")
		}
		if engine.RulesCount() != 0 {
			t.Error("failed rule must not be loaded")
		}
	})

	t.Run("NonBooleanExpression", func(t *testing.T) {
		engine := newTestEngine(t)

		err := engine.LoadRule(testRule("nonbool", "loan_amount + 1.0", domain.EffectFlag))
		if err == nil {
			t.Error("expected error for non-boolean expression")
		}
	})

	t.Run("UnknownVariable", func(t *testing.T) {
		engine := newTestEngine(t)

		err := engine.LoadRule(testRule("unknown", "favorite_color == 'blue'", domain.EffectFlag))
		if err == nil {
			t.Error("expected error for undeclared variable")
		}
	})

	t.Run("ReplacesById", func(t *testing.T) {
		engine := newTestEngine(t)

		if err := engine.LoadRule(testRule("r1", "loan_amount > 100000.0", domain.EffectFlag)); err != nil {
			t.Fatalf("LoadRule failed: %v", err)
		}
		if err := engine.LoadRule(testRule("r1", "loan_amount > 200000.0", domain.EffectFlag)); err != nil {
			t.Fatalf("LoadRule failed: %v", err)
		}
		if engine.RulesCount() != 1 {
			t.Errorf("expected replacement, got %d rules", engine.RulesCount())
		}
	})
}

func TestValidateRule(t *testing.T) {
	engine := newTestEngine(t)

	if err := engine.ValidateRule(testRule("v1", "credit_score < 600", domain.EffectKnockout)); err != nil {
		t.Errorf("valid rule rejected: %v", err)
	}
	if engine.RulesCount() != 0 {
		t.Error("ValidateRule must not load the rule")
	}

	if err := engine.ValidateRule(nil); err == nil {
		t.Error("expected error for nil rule")
	}
}

func TestLoadRules(t *testing.T) {
	engine := newTestEngine(t)

	disabled := testRule("off", "true", domain.EffectFlag)
	disabled.Enabled = false

	rules := []*domain.PolicyRule{
		testRule("a", "loan_amount > 100000.0", domain.EffectReview),
		testRule("b", "bankruptcies > 0", domain.EffectKnockout),
		disabled,
	}

	if err := engine.LoadRules(rules); err != nil {
		t.Fatalf("LoadRules failed: %v", err)
	}
	if engine.RulesCount() != 2 {
		t.Errorf("expected 2 enabled rules, got %d", engine.RulesCount())
	}
}

func TestReloadRules(t *testing.T) {
	engine := newTestEngine(t)

	if err := engine.LoadRule(testRule("old", "true", domain.EffectFlag)); err != nil {
		t.Fatalf("LoadRule failed: %v", err)
	}

	t.Run("SwapsRuleSet", func(t *testing.T) {
		err := engine.ReloadRules([]*domain.PolicyRule{
			testRule("new", "loan_amount > 0.0", domain.EffectFlag),
		})
		if err != nil {
			t.Fatalf("ReloadRules failed: %v", err)
		}

		if engine.RulesCount() != 1 {
			t.Fatalf("expected 1 rule after reload, got %d", engine.RulesCount())
		}
		loaded := engine.GetLoadedRules()
		if loaded[0].ID != "new" {
			t.Errorf("expected rule 'new', got %s", loaded[0].ID)
		}
	})

	t.Run("CompileFailureKeepsOldSet", func(t *testing.T) {
		err := engine.ReloadRules([]*domain.PolicyRule{
			testRule("broken", "not valid (((", domain.EffectFlag),
		})
		if err == nil {
			t.Fatal("expected compile error")
		}

		loaded := engine.GetLoadedRules()
		if len(loaded) != 1 || loaded[0].ID != "new" {
			t.Error("failed reload must keep the previous rule set")
		}
	})
}

func TestEvaluateAll(t *testing.T) {
	ctx := context.Background()

	t.Run("MatchingRulesReturnFindings", func(t *testing.T) {
		engine := newTestEngine(t)

		rules := []*domain.PolicyRule{
			testRule("large-loan", "loan_amount > 100000.0", domain.EffectReview),
			testRule("young-business", "years_in_business < 2.0", domain.EffectKnockout),
			testRule("retail", "industry == 'retail'", domain.EffectFlag),
		}
		if err := engine.LoadRules(rules); err != nil {
			t.Fatalf("LoadRules failed: %v", err)
		}

		findings := engine.EvaluateAll(ctx, testApplication())

		// 150k loan and retail match; 3 years in business does not.
		if len(findings) != 2 {
			t.Fatalf("expected 2 findings, got %d: %+v", len(findings), findings)
		}

		byID := make(map[string]domain.PolicyFinding)
		for _, f := range findings {
			byID[f.RuleID] = f
		}
		if f, ok := byID["large-loan"]; !ok || f.Effect != domain.EffectReview {
			t.Errorf("expected large-loan review finding, got %+v", byID)
		}
		if f, ok := byID["retail"]; !ok || f.Effect != domain.EffectFlag {
			t.Errorf("expected retail flag finding, got %+v", byID)
		}
	})

	t.Run("NoRulesNoFindings", func(t *testing.T) {
		engine := newTestEngine(t)

		if findings := engine.EvaluateAll(ctx, testApplication()); findings != nil {
			t.Errorf("expected nil findings, got %+v", findings)
		}
	})

	t.Run("CompoundExpression", func(t *testing.T) {
		engine := newTestEngine(t)

		rule := testRule("concentration",
			"industry == 'retail' && loan_amount > 100000.0 && profit_margin < 0.15",
			domain.EffectReview)
		if err := engine.LoadRule(rule); err != nil {
			t.Fatalf("LoadRule failed: %v", err)
		}

		findings := engine.EvaluateAll(ctx, testApplication())
		if len(findings) != 1 {
			t.Fatalf("expected compound rule to match, got %d findings", len(findings))
		}
		if findings[0].Reason != "matched concentration" {
			t.Errorf("unexpected reason %q", findings[0].Reason)
		}
	})

	t.Run("IntegerComparisons", func(t *testing.T) {
		engine := newTestEngine(t)

		if err := engine.LoadRule(testRule("inquiries", "inquiries > 3", domain.EffectFlag)); err != nil {
			t.Fatalf("LoadRule failed: %v", err)
		}

		findings := engine.EvaluateAll(ctx, testApplication())
		if len(findings) != 1 {
			t.Errorf("expected inquiries rule to match 4 > 3, got %d findings", len(findings))
		}
	})
}

func TestClose(t *testing.T) {
	engine := newTestEngine(t)

	if err := engine.LoadRule(testRule("r", "true", domain.EffectFlag)); err != nil {
		t.Fatalf("LoadRule failed: %v", err)
	}
	if err := engine.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if engine.RulesCount() != 0 {
		t.Error("expected no rules after Close")
	}
}
