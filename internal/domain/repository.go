package domain

import (
	"context"
	"time"
)

// Repository defines the interface for data persistence.
// All methods require tenantID for strict multi-tenancy isolation.
type Repository interface {
	// Application operations
	SaveApplication(ctx context.Context, tenantID string, app *CreditApplication) error
	GetApplication(ctx context.Context, tenantID string, applicantID string) (*CreditApplication, error)

	// Score results
	SaveScoreResult(ctx context.Context, tenantID string, result *CreditScoreResult) error
	GetScoreResult(ctx context.Context, tenantID string, resultID string) (*CreditScoreResult, error)
	ListScoreResultsByApplicant(ctx context.Context, tenantID string, applicantID string, since time.Time) ([]*CreditScoreResult, error)

	// Instant decisions
	SaveDecision(ctx context.Context, tenantID string, decision *InstantDecisionResult) error
	GetDecision(ctx context.Context, tenantID string, decisionID string) (*InstantDecisionResult, error)

	// Policy rule operations
	SavePolicyRule(ctx context.Context, tenantID string, rule *PolicyRule) error
	GetPolicyRule(ctx context.Context, tenantID string, ruleID string) (*PolicyRule, error)
	ListPolicyRules(ctx context.Context, tenantID string) ([]*PolicyRule, error)
	DeletePolicyRule(ctx context.Context, tenantID string, ruleID string) error

	// Monitored loans
	SaveLoan(ctx context.Context, tenantID string, loan *Loan) error
	GetLoan(ctx context.Context, tenantID string, loanID string) (*Loan, error)
	ListLoans(ctx context.Context, tenantID string) ([]*Loan, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
