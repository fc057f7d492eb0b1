// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveApplication stores an application with tenant isolation. The full
// application rides along as a JSON payload; the indexed columns exist
// for querying only.
func (r *SQLRepository) SaveApplication(ctx context.Context, tenantID string, app *domain.CreditApplication) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	payload, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("failed to marshal application: %w", err)
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO applications (
			applicant_id, tenant_id, business_name, industry, payload, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(applicant_id, tenant_id) DO UPDATE SET
			business_name = excluded.business_name,
			industry = excluded.industry,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		app.ApplicantID, tenantID,
		app.BusinessInfo.BusinessName, app.BusinessInfo.Industry,
		string(payload), now, now,
	)
	return err
}

// GetApplication retrieves an application by applicant ID with tenant isolation.
func (r *SQLRepository) GetApplication(ctx context.Context, tenantID string, applicantID string) (*domain.CreditApplication, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT payload FROM applications
		WHERE tenant_id = ? AND applicant_id = ?
	`

	var payload string
	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, applicantID).Scan(&payload)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var app domain.CreditApplication
	if err := json.Unmarshal([]byte(payload), &app); err != nil {
		return nil, fmt.Errorf("failed to parse application payload: %w", err)
	}

	return &app, nil
}

// SaveScoreResult stores a score result with tenant isolation.
func (r *SQLRepository) SaveScoreResult(ctx context.Context, tenantID string, result *domain.CreditScoreResult) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	detail, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal score result: %w", err)
	}

	query := `
		INSERT INTO score_results (
			id, tenant_id, applicant_id, overall_score, rating,
			default_probability, risk_category, confidence_level, scored_at, detail
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		result.ID, tenantID, result.ApplicantID,
		result.OverallScore, string(result.Rating),
		result.DefaultProbability, string(result.RiskCategory),
		result.ConfidenceLevel, result.ScoredAt, string(detail),
	)
	return err
}

// GetScoreResult retrieves a score result by ID with tenant isolation.
func (r *SQLRepository) GetScoreResult(ctx context.Context, tenantID string, resultID string) (*domain.CreditScoreResult, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT detail FROM score_results
		WHERE tenant_id = ? AND id = ?
	`

	var detail string
	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, resultID).Scan(&detail)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var result domain.CreditScoreResult
	if err := json.Unmarshal([]byte(detail), &result); err != nil {
		return nil, fmt.Errorf("failed to parse score result: %w", err)
	}

	return &result, nil
}

// ListScoreResultsByApplicant retrieves an applicant's score history.
func (r *SQLRepository) ListScoreResultsByApplicant(ctx context.Context, tenantID string, applicantID string, since time.Time) ([]*domain.CreditScoreResult, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT detail FROM score_results
		WHERE tenant_id = ? AND applicant_id = ? AND scored_at >= ?
		ORDER BY scored_at DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID, applicantID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.CreditScoreResult
	for rows.Next() {
		var detail string
		if err := rows.Scan(&detail); err != nil {
			return nil, err
		}

		var result domain.CreditScoreResult
		if err := json.Unmarshal([]byte(detail), &result); err != nil {
			return nil, fmt.Errorf("failed to parse score result: %w", err)
		}
		results = append(results, &result)
	}

	return results, rows.Err()
}

// SaveDecision stores an instant decision with tenant isolation.
func (r *SQLRepository) SaveDecision(ctx context.Context, tenantID string, decision *domain.InstantDecisionResult) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	detail, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}

	requiresReview := 0
	if decision.RequiresManualReview {
		requiresReview = 1
	}

	query := `
		INSERT INTO decisions (
			id, tenant_id, applicant_id, decision, reason, requires_review, decided_at, detail
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		decision.ID, tenantID, decision.ApplicantID,
		string(decision.Decision), decision.Reason, requiresReview,
		decision.DecidedAt, string(detail),
	)
	return err
}

// GetDecision retrieves an instant decision by ID with tenant isolation.
func (r *SQLRepository) GetDecision(ctx context.Context, tenantID string, decisionID string) (*domain.InstantDecisionResult, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT detail FROM decisions
		WHERE tenant_id = ? AND id = ?
	`

	var detail string
	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, decisionID).Scan(&detail)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var decision domain.InstantDecisionResult
	if err := json.Unmarshal([]byte(detail), &decision); err != nil {
		return nil, fmt.Errorf("failed to parse decision: %w", err)
	}

	return &decision, nil
}

// SavePolicyRule stores a policy rule with tenant isolation.
func (r *SQLRepository) SavePolicyRule(ctx context.Context, tenantID string, rule *domain.PolicyRule) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	enabled := 0
	if rule.Enabled {
		enabled = 1
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO policy_rules (
			id, tenant_id, name, description, version, expression, effect, reason, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, tenant_id, version) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			expression = excluded.expression,
			effect = excluded.effect,
			reason = excluded.reason,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		rule.ID, tenantID, rule.Name, rule.Description,
		rule.Version, rule.Expression, string(rule.Effect), rule.Reason, enabled,
		now, now,
	)
	return err
}

// GetPolicyRule retrieves a policy rule with tenant isolation.
func (r *SQLRepository) GetPolicyRule(ctx context.Context, tenantID string, ruleID string) (*domain.PolicyRule, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, name, description, version, expression, effect, reason, enabled, created_at, updated_at
		FROM policy_rules
		WHERE tenant_id = ? AND id = ? AND enabled = 1
		ORDER BY version DESC
		LIMIT 1
	`

	var rule domain.PolicyRule
	var effect string
	var enabled int

	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, ruleID).Scan(
		&rule.ID, &rule.TenantID, &rule.Name, &rule.Description,
		&rule.Version, &rule.Expression, &effect, &rule.Reason, &enabled,
		&rule.CreatedAt, &rule.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rule.Effect = domain.PolicyEffect(effect)
	rule.Enabled = enabled == 1

	return &rule, nil
}

// ListPolicyRules retrieves all active policy rules for a tenant.
func (r *SQLRepository) ListPolicyRules(ctx context.Context, tenantID string) ([]*domain.PolicyRule, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, name, description, version, expression, effect, reason, enabled, created_at, updated_at
		FROM policy_rules
		WHERE tenant_id = ? AND enabled = 1
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*domain.PolicyRule
	for rows.Next() {
		var rule domain.PolicyRule
		var effect string
		var enabled int

		if err := rows.Scan(
			&rule.ID, &rule.TenantID, &rule.Name, &rule.Description,
			&rule.Version, &rule.Expression, &effect, &rule.Reason, &enabled,
			&rule.CreatedAt, &rule.UpdatedAt,
		); err != nil {
			return nil, err
		}

		rule.Effect = domain.PolicyEffect(effect)
		rule.Enabled = enabled == 1
		rules = append(rules, &rule)
	}

	return rules, rows.Err()
}

// DeletePolicyRule soft-deletes a policy rule by setting enabled = 0.
func (r *SQLRepository) DeletePolicyRule(ctx context.Context, tenantID string, ruleID string) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		UPDATE policy_rules
		SET enabled = 0, updated_at = ?
		WHERE tenant_id = ? AND id = ?
	`

	result, err := r.db.ExecContext(ctx, r.rebind(query), time.Now().UTC(), tenantID, ruleID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// SaveLoan stores an originated loan with tenant isolation.
func (r *SQLRepository) SaveLoan(ctx context.Context, tenantID string, loan *domain.Loan) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO loans (
			id, tenant_id, applicant_id, amount, term, rate, industry,
			default_probability, original_score, originated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			amount = excluded.amount,
			term = excluded.term,
			rate = excluded.rate,
			default_probability = excluded.default_probability
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		loan.ID, tenantID, loan.ApplicantID,
		loan.Amount, loan.Term, loan.Rate, loan.Industry,
		loan.DefaultProbability, loan.OriginalScore, loan.OriginatedAt,
	)
	return err
}

// GetLoan retrieves a loan by ID with tenant isolation.
func (r *SQLRepository) GetLoan(ctx context.Context, tenantID string, loanID string) (*domain.Loan, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, applicant_id, amount, term, rate, industry,
			   default_probability, original_score, originated_at
		FROM loans
		WHERE tenant_id = ? AND id = ?
	`

	var loan domain.Loan
	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, loanID).Scan(
		&loan.ID, &loan.TenantID, &loan.ApplicantID,
		&loan.Amount, &loan.Term, &loan.Rate, &loan.Industry,
		&loan.DefaultProbability, &loan.OriginalScore, &loan.OriginatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &loan, nil
}

// ListLoans retrieves all loans for a tenant.
func (r *SQLRepository) ListLoans(ctx context.Context, tenantID string) ([]*domain.Loan, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, applicant_id, amount, term, rate, industry,
			   default_probability, original_score, originated_at
		FROM loans
		WHERE tenant_id = ?
		ORDER BY originated_at DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []*domain.Loan
	for rows.Next() {
		var loan domain.Loan
		if err := rows.Scan(
			&loan.ID, &loan.TenantID, &loan.ApplicantID,
			&loan.Amount, &loan.Term, &loan.Rate, &loan.Industry,
			&loan.DefaultProbability, &loan.OriginalScore, &loan.OriginatedAt,
		); err != nil {
			return nil, err
		}
		loans = append(loans, &loan)
	}

	return loans, rows.Err()
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
