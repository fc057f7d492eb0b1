package domain

import (
	"fmt"
	"math"
)

// Config holds the complete Kestrel configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Tier determines feature availability
	Tier Tier `json:"tier"`

	// Scoring holds the overridable engine parameters.
	Scoring ScoringConfig `json:"scoring"`

	// Component configurations
	Repository RepositoryConfig `json:"repository"`
	Cache      CacheConfig      `json:"cache"`
	EventBus   EventBusConfig   `json:"eventBus"`

	// Observability
	Logging LoggingConfig `json:"logging"`
	Tracing TracingConfig `json:"tracing"`
}

// ScoringConfig carries the overridable scoring and decision parameters.
type ScoringConfig struct {
	// Component weights, must sum to exactly 1.0.
	TraditionalCreditWeight float64 `json:"traditionalCreditWeight"`
	FinancialHealthWeight   float64 `json:"financialHealthWeight"`
	BusinessStabilityWeight float64 `json:"businessStabilityWeight"`
	AlternativeDataWeight   float64 `json:"alternativeDataWeight"`
	IndustryRiskWeight      float64 `json:"industryRiskWeight"`

	// Instant-decision thresholds.
	AutoApproveScore     float64 `json:"autoApproveScore"`     // default 750
	AutoDeclineScore     float64 `json:"autoDeclineScore"`     // default 500
	AutoApproveMaxPD     float64 `json:"autoApproveMaxPd"`     // default 0.10
	AutoDeclineMinPD     float64 `json:"autoDeclineMinPd"`     // default 0.50
	MaxAutoApproveAmount float64 `json:"maxAutoApproveAmount"` // default 100000

	// LossGivenDefault is the fraction of exposure lost on default.
	LossGivenDefault float64 `json:"lossGivenDefault"` // default 0.45
}

// DefaultScoringConfig returns the standard engine parameters.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		TraditionalCreditWeight: 0.35,
		FinancialHealthWeight:   0.30,
		BusinessStabilityWeight: 0.20,
		AlternativeDataWeight:   0.10,
		IndustryRiskWeight:      0.05,
		AutoApproveScore:        750,
		AutoDeclineScore:        500,
		AutoApproveMaxPD:        0.10,
		AutoDeclineMinPD:        0.50,
		MaxAutoApproveAmount:    100000,
		LossGivenDefault:        0.45,
	}
}

// Validate checks the weight invariant and threshold ordering.
func (c ScoringConfig) Validate() error {
	sum := c.TraditionalCreditWeight + c.FinancialHealthWeight +
		c.BusinessStabilityWeight + c.AlternativeDataWeight + c.IndustryRiskWeight
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("component weights must sum to 1.0, got %.12f", sum)
	}
	if c.AutoDeclineScore >= c.AutoApproveScore {
		return fmt.Errorf("autoDeclineScore %.0f must be below autoApproveScore %.0f",
			c.AutoDeclineScore, c.AutoApproveScore)
	}
	if c.LossGivenDefault <= 0 || c.LossGivenDefault > 1 {
		return fmt.Errorf("lossGivenDefault must be in (0,1], got %.2f", c.LossGivenDefault)
	}
	if c.MaxAutoApproveAmount <= 0 {
		return fmt.Errorf("maxAutoApproveAmount must be positive")
	}
	return nil
}

// ComponentWeights returns the five weights keyed by component name.
func (c ScoringConfig) ComponentWeights() map[string]float64 {
	return map[string]float64{
		ComponentTraditionalCredit: c.TraditionalCreditWeight,
		ComponentFinancialHealth:   c.FinancialHealthWeight,
		ComponentBusinessStability: c.BusinessStabilityWeight,
		ComponentAlternativeData:   c.AlternativeDataWeight,
		ComponentIndustryRisk:      c.IndustryRiskWeight,
	}
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled      bool   `json:"enabled"`
	ServiceName  string `json:"serviceName"`
	ExporterType string `json:"exporterType"` // stdout, otlp, jaeger
	Endpoint     string `json:"endpoint"`
}

// Tier represents the product tier.
type Tier string

const (
	// TierCommunity is the free tier with SQLite + channels
	TierCommunity Tier = "community"

	// TierPro is the paid tier with PostgreSQL + NATS + Redis
	TierPro Tier = "pro"

	// TierEnterprise includes multi-node, SSO, etc.
	TierEnterprise Tier = "enterprise"
)

// DefaultConfig returns a default configuration for Community tier.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Tier:    TierCommunity,
		Scoring: DefaultScoringConfig(),
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./kestrel.db",
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 10000,
			LocalTTL:     300, // 5 minutes
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "kestrel",
		},
	}
}

// ProConfig returns a configuration for Pro tier.
func ProConfig() *Config {
	cfg := DefaultConfig()
	cfg.Tier = TierPro
	cfg.Repository = RepositoryConfig{
		Driver:       "postgres",
		PostgresHost: "localhost",
		PostgresPort: 5432,
		PostgresDB:   "kestrel",
	}
	cfg.Cache = CacheConfig{
		Type:           "redis",
		RedisAddr:      "localhost:6379",
		EnableTwoPhase: true,
		LocalMaxSize:   1000,
	}
	cfg.EventBus = EventBusConfig{
		Type:              "nats",
		NATSUrl:           "nats://localhost:4222",
		NATSMaxReconnects: 10,
		NATSReconnectWait: 5,
	}
	cfg.Tracing.Enabled = true
	return cfg
}
