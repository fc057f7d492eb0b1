// Package policy provides the CEL-Go based lender policy overlay engine.
package policy

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/opensource-finance/kestrel/internal/domain"
)

// Engine compiles and evaluates tenant-defined policy rules against
// credit applications. Rules run after built-in pre-qualification and
// before or alongside scoring, depending on their effect.
type Engine struct {
	mu            sync.RWMutex
	env           *cel.Env
	compiledRules map[string]*CompiledRule
	maxWorkers    int
}

// CompiledRule holds a pre-compiled CEL program.
type CompiledRule struct {
	Config  *domain.PolicyRule
	Program cel.Program
}

// NewEngine creates a policy engine with an environment exposing the
// application's feature variables.
func NewEngine(maxWorkers int) (*Engine, error) {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	env, err := cel.NewEnv(
		cel.Variable("applicant_id", cel.StringType),
		cel.Variable("credit_score", cel.IntType),
		cel.Variable("business_credit_score", cel.IntType),
		cel.Variable("annual_revenue", cel.DoubleType),
		cel.Variable("monthly_revenue", cel.DoubleType),
		cel.Variable("net_income", cel.DoubleType),
		cel.Variable("profit_margin", cel.DoubleType),
		cel.Variable("total_debt", cel.DoubleType),
		cel.Variable("utilization", cel.DoubleType),
		cel.Variable("years_in_business", cel.DoubleType),
		cel.Variable("industry", cel.StringType),
		cel.Variable("employees", cel.IntType),
		cel.Variable("bankruptcies", cel.IntType),
		cel.Variable("collections", cel.IntType),
		cel.Variable("inquiries", cel.IntType),
		cel.Variable("loan_amount", cel.DoubleType),
		cel.Variable("loan_term", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:           env,
		compiledRules: make(map[string]*CompiledRule),
		maxWorkers:    maxWorkers,
	}, nil
}

// ValidateRule compiles a rule without mutating loaded engine rules.
func (e *Engine) ValidateRule(cfg *domain.PolicyRule) error {
	if cfg == nil {
		return fmt.Errorf("policy rule is required")
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	_, err := e.compileRule(cfg)
	return err
}

// LoadRule compiles and loads a rule into the engine.
func (e *Engine) LoadRule(cfg *domain.PolicyRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	compiled, err := e.compileRule(cfg)
	if err != nil {
		return err
	}

	e.compiledRules[cfg.ID] = compiled
	return nil
}

// LoadRules compiles and loads multiple enabled rules.
func (e *Engine) LoadRules(configs []*domain.PolicyRule) error {
	for _, cfg := range configs {
		if cfg.Enabled {
			if err := e.LoadRule(cfg); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReloadRules clears all existing rules and loads new ones.
// This enables hot-reloading of policy rules from the database.
func (e *Engine) ReloadRules(configs []*domain.PolicyRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	newRules := make(map[string]*CompiledRule)
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}

		compiled, err := e.compileRule(cfg)
		if err != nil {
			return err
		}
		newRules[cfg.ID] = compiled
	}

	e.compiledRules = newRules
	return nil
}

// RulesCount returns the number of loaded rules.
func (e *Engine) RulesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiledRules)
}

// GetLoadedRules returns the currently loaded rule configurations.
func (e *Engine) GetLoadedRules() []*domain.PolicyRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rules := make([]*domain.PolicyRule, 0, len(e.compiledRules))
	for _, compiled := range e.compiledRules {
		rules = append(rules, compiled.Config)
	}
	return rules
}

// activation builds the CEL variable bindings for an application.
func activation(app *domain.CreditApplication) map[string]any {
	return map[string]any{
		"applicant_id":          app.ApplicantID,
		"credit_score":          app.TraditionalCredit.PersonalCreditScore,
		"business_credit_score": app.TraditionalCredit.BusinessCreditScore,
		"annual_revenue":        app.FinancialData.AnnualRevenue,
		"monthly_revenue":       app.FinancialData.MonthlyRevenue,
		"net_income":            app.FinancialData.NetIncome,
		"profit_margin":         app.FinancialData.ProfitMargin,
		"total_debt":            app.TraditionalCredit.TotalDebt,
		"utilization":           app.TraditionalCredit.CreditUtilization,
		"years_in_business":     app.BusinessInfo.YearsInBusiness,
		"industry":              app.BusinessInfo.Industry,
		"employees":             app.BusinessInfo.NumberOfEmployees,
		"bankruptcies":          app.TraditionalCredit.Bankruptcies,
		"collections":           app.TraditionalCredit.Collections,
		"inquiries":             app.TraditionalCredit.Inquiries,
		"loan_amount":           app.LoanRequest.Amount,
		"loan_term":             app.LoanRequest.Term,
	}
}

// EvaluateAll evaluates every loaded rule against the application in
// parallel and returns the findings for rules that matched. A rule that
// errors at evaluation time is skipped; policy overlays must never make
// the decision pipeline fail.
func (e *Engine) EvaluateAll(ctx context.Context, app *domain.CreditApplication) []domain.PolicyFinding {
	e.mu.RLock()
	rules := make([]*CompiledRule, 0, len(e.compiledRules))
	for _, rule := range e.compiledRules {
		rules = append(rules, rule)
	}
	e.mu.RUnlock()

	if len(rules) == 0 {
		return nil
	}

	vars := activation(app)

	matched := make([]bool, len(rules))
	var wg sync.WaitGroup
	sem := make(chan struct{}, e.maxWorkers)

	for i, rule := range rules {
		wg.Add(1)
		go func(idx int, r *CompiledRule) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			out, _, err := r.Program.Eval(vars)
			if err != nil {
				return
			}
			if b, ok := out.(types.Bool); ok && bool(b) {
				matched[idx] = true
			}
		}(i, rule)
	}

	wg.Wait()

	var findings []domain.PolicyFinding
	for i, rule := range rules {
		if matched[i] {
			findings = append(findings, domain.PolicyFinding{
				RuleID: rule.Config.ID,
				Name:   rule.Config.Name,
				Effect: rule.Config.Effect,
				Reason: rule.Config.Reason,
			})
		}
	}

	return findings
}

// Close cleans up the engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiledRules = make(map[string]*CompiledRule)
	return nil
}

func (e *Engine) compileRule(cfg *domain.PolicyRule) (*CompiledRule, error) {
	ast, issues := e.env.Compile(cfg.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile policy rule %s: %w", cfg.ID, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("policy rule %s: expression must return bool, got %s", cfg.ID, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for policy rule %s: %w", cfg.ID, err)
	}

	return &CompiledRule{
		Config:  cfg,
		Program: program,
	}, nil
}
