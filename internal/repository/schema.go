package repository

// Schema definitions for the Kestrel database.
// Compatible with both SQLite and PostgreSQL.

const schemaApplications = `
CREATE TABLE IF NOT EXISTS applications (
    applicant_id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    business_name TEXT,
    industry TEXT,
    payload TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (applicant_id, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_applications_tenant ON applications(tenant_id);
CREATE INDEX IF NOT EXISTS idx_applications_industry ON applications(tenant_id, industry);
`

const schemaScoreResults = `
CREATE TABLE IF NOT EXISTS score_results (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    applicant_id TEXT NOT NULL,
    overall_score REAL NOT NULL,
    rating TEXT NOT NULL,
    default_probability REAL NOT NULL,
    risk_category TEXT NOT NULL,
    confidence_level REAL NOT NULL,
    scored_at TIMESTAMP NOT NULL,
    detail TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_score_results_tenant ON score_results(tenant_id);
CREATE INDEX IF NOT EXISTS idx_score_results_applicant ON score_results(tenant_id, applicant_id);
CREATE INDEX IF NOT EXISTS idx_score_results_scored_at ON score_results(tenant_id, scored_at);
`

const schemaDecisions = `
CREATE TABLE IF NOT EXISTS decisions (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    applicant_id TEXT NOT NULL,
    decision TEXT NOT NULL,
    reason TEXT,
    requires_review INTEGER NOT NULL DEFAULT 0,
    decided_at TIMESTAMP NOT NULL,
    detail TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_tenant ON decisions(tenant_id);
CREATE INDEX IF NOT EXISTS idx_decisions_applicant ON decisions(tenant_id, applicant_id);
CREATE INDEX IF NOT EXISTS idx_decisions_decision ON decisions(tenant_id, decision);
`

const schemaPolicyRules = `
CREATE TABLE IF NOT EXISTS policy_rules (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    version TEXT NOT NULL,
    expression TEXT NOT NULL,
    effect TEXT NOT NULL,
    reason TEXT,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, tenant_id, version)
);

CREATE INDEX IF NOT EXISTS idx_policy_rules_tenant ON policy_rules(tenant_id);
CREATE INDEX IF NOT EXISTS idx_policy_rules_enabled ON policy_rules(tenant_id, enabled);
`

const schemaLoans = `
CREATE TABLE IF NOT EXISTS loans (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    applicant_id TEXT NOT NULL,
    amount REAL NOT NULL,
    term INTEGER NOT NULL,
    rate REAL NOT NULL,
    industry TEXT,
    default_probability REAL NOT NULL,
    original_score REAL,
    originated_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_loans_tenant ON loans(tenant_id);
CREATE INDEX IF NOT EXISTS idx_loans_applicant ON loans(tenant_id, applicant_id);
CREATE INDEX IF NOT EXISTS idx_loans_industry ON loans(tenant_id, industry);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaApplications,
		schemaScoreResults,
		schemaDecisions,
		schemaPolicyRules,
		schemaLoans,
	}
}
