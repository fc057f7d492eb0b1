package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
)

func TestSQLiteRepository(t *testing.T) {
	// Create temp database file
	tmpFile, err := os.CreateTemp("", "kestrel-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	cfg := domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	}

	repo, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	tenantID := "tenant-001"

	t.Run("Ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("SaveAndGetApplication", func(t *testing.T) {
		app := &domain.CreditApplication{
			ApplicantID: "app-001",
			BusinessInfo: domain.BusinessInfo{
				BusinessName: "Acme Logistics",
				Industry:     domain.IndustryTechnology,
			},
			FinancialData: domain.FinancialData{AnnualRevenue: 900000},
			LoanRequest:   domain.LoanRequest{Amount: 80000, Term: 36},
		}

		if err := repo.SaveApplication(ctx, tenantID, app); err != nil {
			t.Fatalf("SaveApplication failed: %v", err)
		}

		retrieved, err := repo.GetApplication(ctx, tenantID, app.ApplicantID)
		if err != nil {
			t.Fatalf("GetApplication failed: %v", err)
		}

		if retrieved.ApplicantID != app.ApplicantID {
			t.Errorf("expected ApplicantID %s, got %s", app.ApplicantID, retrieved.ApplicantID)
		}
		if retrieved.FinancialData.AnnualRevenue != 900000 {
			t.Errorf("expected AnnualRevenue 900000, got %.2f", retrieved.FinancialData.AnnualRevenue)
		}
	})

	t.Run("SaveApplicationUpserts", func(t *testing.T) {
		app := &domain.CreditApplication{
			ApplicantID: "app-001",
			BusinessInfo: domain.BusinessInfo{
				BusinessName: "Acme Logistics LLC",
				Industry:     domain.IndustryTechnology,
			},
			FinancialData: domain.FinancialData{AnnualRevenue: 950000},
			LoanRequest:   domain.LoanRequest{Amount: 80000, Term: 36},
		}

		if err := repo.SaveApplication(ctx, tenantID, app); err != nil {
			t.Fatalf("SaveApplication failed: %v", err)
		}

		retrieved, err := repo.GetApplication(ctx, tenantID, "app-001")
		if err != nil {
			t.Fatalf("GetApplication failed: %v", err)
		}
		if retrieved.BusinessInfo.BusinessName != "Acme Logistics LLC" {
			t.Errorf("expected updated business name, got %s", retrieved.BusinessInfo.BusinessName)
		}
	})

	t.Run("TenantIsolation", func(t *testing.T) {
		otherTenant := "tenant-002"

		_, err := repo.GetApplication(ctx, otherTenant, "app-001")
		if err != ErrNotFound {
			t.Errorf("expected ErrNotFound for different tenant, got: %v", err)
		}
	})

	t.Run("RequiresTenantID", func(t *testing.T) {
		app := &domain.CreditApplication{ApplicantID: "app-test"}

		err := repo.SaveApplication(ctx, "", app)
		if err == nil {
			t.Error("expected error for empty tenantID")
		}

		_, err = repo.GetApplication(ctx, "", "app-001")
		if err == nil {
			t.Error("expected error for empty tenantID")
		}
	})

	t.Run("SaveAndGetScoreResult", func(t *testing.T) {
		result := &domain.CreditScoreResult{
			ID:                 "score-001",
			ApplicantID:        "app-001",
			ScoredAt:           time.Now().UTC(),
			OverallScore:       720,
			Rating:             domain.RatingBPlus,
			DefaultProbability: 0.12,
			RiskCategory:       domain.RiskLow,
			ConfidenceLevel:    0.9,
		}

		if err := repo.SaveScoreResult(ctx, tenantID, result); err != nil {
			t.Fatalf("SaveScoreResult failed: %v", err)
		}

		retrieved, err := repo.GetScoreResult(ctx, tenantID, result.ID)
		if err != nil {
			t.Fatalf("GetScoreResult failed: %v", err)
		}

		if retrieved.ID != result.ID {
			t.Errorf("expected ID %s, got %s", result.ID, retrieved.ID)
		}
		if retrieved.OverallScore != result.OverallScore {
			t.Errorf("expected OverallScore %.0f, got %.0f", result.OverallScore, retrieved.OverallScore)
		}
		if retrieved.Rating != result.Rating {
			t.Errorf("expected Rating %s, got %s", result.Rating, retrieved.Rating)
		}
	})

	t.Run("ListScoreResultsByApplicant", func(t *testing.T) {
		second := &domain.CreditScoreResult{
			ID:           "score-002",
			ApplicantID:  "app-001",
			ScoredAt:     time.Now().UTC().Add(time.Minute),
			OverallScore: 735,
			Rating:       domain.RatingBPlus,
		}
		if err := repo.SaveScoreResult(ctx, tenantID, second); err != nil {
			t.Fatalf("SaveScoreResult failed: %v", err)
		}

		since := time.Now().UTC().Add(-1 * time.Hour)
		history, err := repo.ListScoreResultsByApplicant(ctx, tenantID, "app-001", since)
		if err != nil {
			t.Fatalf("ListScoreResultsByApplicant failed: %v", err)
		}

		if len(history) != 2 {
			t.Fatalf("expected 2 results, got %d", len(history))
		}
		// Newest first.
		if history[0].ID != "score-002" {
			t.Errorf("expected score-002 first, got %s", history[0].ID)
		}
	})

	t.Run("SaveAndGetDecision", func(t *testing.T) {
		decision := &domain.InstantDecisionResult{
			ID:                   "dec-001",
			ApplicantID:          "app-001",
			DecidedAt:            time.Now().UTC(),
			Decision:             domain.InstantReview,
			Reason:               "score in manual review band",
			RequiresManualReview: true,
			ReviewPriority:       domain.PriorityHigh,
		}

		if err := repo.SaveDecision(ctx, tenantID, decision); err != nil {
			t.Fatalf("SaveDecision failed: %v", err)
		}

		retrieved, err := repo.GetDecision(ctx, tenantID, decision.ID)
		if err != nil {
			t.Fatalf("GetDecision failed: %v", err)
		}

		if retrieved.Decision != decision.Decision {
			t.Errorf("expected Decision %s, got %s", decision.Decision, retrieved.Decision)
		}
		if !retrieved.RequiresManualReview {
			t.Error("expected RequiresManualReview to round-trip")
		}
	})

	t.Run("PolicyRuleLifecycle", func(t *testing.T) {
		rule := &domain.PolicyRule{
			ID:         "rule-001",
			Name:       "large loan knockout",
			Version:    "1",
			Expression: "loan_amount > 500000.0",
			Effect:     domain.EffectKnockout,
			Reason:     "loan amount above tenant ceiling",
			Enabled:    true,
		}

		if err := repo.SavePolicyRule(ctx, tenantID, rule); err != nil {
			t.Fatalf("SavePolicyRule failed: %v", err)
		}

		retrieved, err := repo.GetPolicyRule(ctx, tenantID, rule.ID)
		if err != nil {
			t.Fatalf("GetPolicyRule failed: %v", err)
		}
		if retrieved.Expression != rule.Expression {
			t.Errorf("expected Expression %q, got %q", rule.Expression, retrieved.Expression)
		}
		if retrieved.Effect != domain.EffectKnockout {
			t.Errorf("expected effect knockout, got %s", retrieved.Effect)
		}

		rules, err := repo.ListPolicyRules(ctx, tenantID)
		if err != nil {
			t.Fatalf("ListPolicyRules failed: %v", err)
		}
		if len(rules) != 1 {
			t.Fatalf("expected 1 rule, got %d", len(rules))
		}

		if err := repo.DeletePolicyRule(ctx, tenantID, rule.ID); err != nil {
			t.Fatalf("DeletePolicyRule failed: %v", err)
		}

		// Soft delete hides the rule from reads.
		if _, err := repo.GetPolicyRule(ctx, tenantID, rule.ID); err != ErrNotFound {
			t.Errorf("expected ErrNotFound after delete, got: %v", err)
		}

		if err := repo.DeletePolicyRule(ctx, tenantID, "nonexistent"); err != ErrNotFound {
			t.Errorf("expected ErrNotFound deleting missing rule, got: %v", err)
		}
	})

	t.Run("SaveAndListLoans", func(t *testing.T) {
		loans := []*domain.Loan{
			{
				ID: "loan-001", ApplicantID: "app-001", Amount: 80000, Term: 36,
				Rate: 8.5, Industry: domain.IndustryTechnology,
				DefaultProbability: 0.12, OriginalScore: 720,
				OriginatedAt: time.Now().UTC().Add(-48 * time.Hour),
			},
			{
				ID: "loan-002", ApplicantID: "app-002", Amount: 50000, Term: 24,
				Rate: 7.2, Industry: domain.IndustryHealthcare,
				DefaultProbability: 0.08, OriginalScore: 770,
				OriginatedAt: time.Now().UTC(),
			},
		}
		for _, loan := range loans {
			if err := repo.SaveLoan(ctx, tenantID, loan); err != nil {
				t.Fatalf("SaveLoan failed: %v", err)
			}
		}

		retrieved, err := repo.GetLoan(ctx, tenantID, "loan-001")
		if err != nil {
			t.Fatalf("GetLoan failed: %v", err)
		}
		if retrieved.OriginalScore != 720 {
			t.Errorf("expected OriginalScore 720, got %.0f", retrieved.OriginalScore)
		}
		if retrieved.TenantID != tenantID {
			t.Errorf("expected TenantID %s, got %s", tenantID, retrieved.TenantID)
		}

		book, err := repo.ListLoans(ctx, tenantID)
		if err != nil {
			t.Fatalf("ListLoans failed: %v", err)
		}
		if len(book) != 2 {
			t.Fatalf("expected 2 loans, got %d", len(book))
		}
		// Newest origination first.
		if book[0].ID != "loan-002" {
			t.Errorf("expected loan-002 first, got %s", book[0].ID)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.GetApplication(ctx, tenantID, "nonexistent")
		if err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}

		_, err = repo.GetDecision(ctx, tenantID, "nonexistent")
		if err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}

		_, err = repo.GetLoan(ctx, tenantID, "nonexistent")
		if err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
	})
}

func TestUnsupportedDriver(t *testing.T) {
	cfg := domain.RepositoryConfig{
		Driver: "mysql",
	}

	_, err := New(cfg)
	if err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	repo := &SQLRepository{driver: "postgres"}

	tests := []struct {
		input    string
		expected string
	}{
		{"SELECT * FROM t WHERE id = ?", "SELECT * FROM t WHERE id = $1"},
		{"INSERT INTO t (a, b) VALUES (?, ?)", "INSERT INTO t (a, b) VALUES ($1, $2)"},
		{"SELECT * FROM t", "SELECT * FROM t"},
	}

	for _, tt := range tests {
		result := repo.rebind(tt.input)
		if result != tt.expected {
			t.Errorf("rebind(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}
