package domain

import "time"

// PolicyRule is a lender-defined overlay rule evaluated after built-in
// pre-qualification. Expressions are CEL over application features and
// must return bool; a true result applies the rule's effect.
type PolicyRule struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenantId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`

	// CEL expression, e.g. "annual_revenue < 250000.0 && loan_amount > 100000.0"
	Expression string `json:"expression"`

	// Effect applied when the expression matches.
	Effect PolicyEffect `json:"effect"`

	// Reason reported to the caller when the rule matches.
	Reason string `json:"reason"`

	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// PolicyEffect is the action a matching policy rule applies.
type PolicyEffect string

const (
	// EffectKnockout declines the application before scoring.
	EffectKnockout PolicyEffect = "knockout"

	// EffectReview forces manual review regardless of score.
	EffectReview PolicyEffect = "review"

	// EffectFlag annotates the decision without changing it.
	EffectFlag PolicyEffect = "flag"
)

// PolicyFinding records one matched policy rule on a decision.
type PolicyFinding struct {
	RuleID string       `json:"ruleId"`
	Name   string       `json:"name"`
	Effect PolicyEffect `json:"effect"`
	Reason string       `json:"reason"`
}
