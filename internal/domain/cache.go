package domain

import (
	"context"
	"time"
)

// Cache defines the interface for caching operations.
// Supports two-phase caching: local LRU (Community) + Redis (Pro).
// All methods require tenantID for strict multi-tenancy isolation.
// Caching happens at the API boundary only; the scoring core stays pure.
type Cache interface {
	// Get retrieves a value from cache.
	// Returns nil, nil if key not found.
	Get(ctx context.Context, tenantID string, key string) ([]byte, error)

	// Set stores a value in cache with expiration.
	Set(ctx context.Context, tenantID string, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache.
	Delete(ctx context.Context, tenantID string, key string) error

	// GetScore retrieves a cached score summary by applicant.
	GetScore(ctx context.Context, tenantID string, applicantID string) (*ScoreCache, error)

	// SetScore caches a score summary for fast reads.
	SetScore(ctx context.Context, tenantID string, applicantID string, data *ScoreCache, ttl time.Duration) error

	// IncrementCounter atomically increments a counter and returns new value.
	// Used for per-tenant request accounting in a time window.
	IncrementCounter(ctx context.Context, tenantID string, key string, window time.Duration) (int64, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// ScoreCache is the compact score summary kept at the API boundary.
type ScoreCache struct {
	ResultID           string  `json:"resultId"`
	ApplicantID        string  `json:"applicantId"`
	OverallScore       float64 `json:"overallScore"`
	Rating             string  `json:"rating"`
	DefaultProbability float64 `json:"defaultProbability"`
	RiskCategory       string  `json:"riskCategory"`
	ScoredAt           string  `json:"scoredAt"`
}

// CacheConfig holds configuration for cache initialization.
type CacheConfig struct {
	// Type is the cache type: "memory" or "redis"
	Type string

	// Local LRU cache settings (Community tier)
	LocalMaxSize int
	LocalTTL     time.Duration

	// Redis settings (Pro tier)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Two-phase settings
	EnableTwoPhase bool // If true, check local first, then Redis
}
