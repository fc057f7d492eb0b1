package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// ApplicationEnvelope is the wire payload carried on the
// application.received topic. The async worker decodes it back into
// a CreditApplication for the instant decision pipeline.
type ApplicationEnvelope struct {
	TenantID    string                   `json:"tenantId"`
	TraceID     string                   `json:"traceId"`
	Application domain.CreditApplication `json:"application"`
}

// Publisher owns the JSON encoding and topic routing for decision
// pipeline events. API handlers and workers hand it domain structs
// instead of marshaling payloads at every call site, so the shape of
// each topic's payload is defined in exactly one place.
type Publisher struct {
	bus domain.EventBus
}

// NewPublisher wraps an event bus with typed publish helpers.
// Returns nil if the bus is nil so callers can keep a single nil check.
func NewPublisher(b domain.EventBus) *Publisher {
	if b == nil {
		return nil
	}
	return &Publisher{bus: b}
}

// ApplicationReceived enqueues an application for async decisioning.
func (p *Publisher) ApplicationReceived(ctx context.Context, tenantID, traceID string, app *domain.CreditApplication) error {
	payload, err := json.Marshal(ApplicationEnvelope{
		TenantID:    tenantID,
		TraceID:     traceID,
		Application: *app,
	})
	if err != nil {
		return fmt.Errorf("encode application envelope: %w", err)
	}
	return p.bus.Publish(ctx, tenantID, domain.TopicApplicationReceived, payload)
}

// ApplicationScored announces a completed credit score.
func (p *Publisher) ApplicationScored(ctx context.Context, tenantID string, result *domain.CreditScoreResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode score result: %w", err)
	}
	return p.bus.Publish(ctx, tenantID, domain.TopicApplicationScored, payload)
}

// DecisionMade announces an instant decision. Declines and decisions
// flagged for manual review are additionally raised on the alert
// topic so review queues can pick them up without replaying the full
// decision stream.
func (p *Publisher) DecisionMade(ctx context.Context, tenantID string, result *domain.InstantDecisionResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode decision: %w", err)
	}
	if err := p.bus.Publish(ctx, tenantID, domain.TopicDecisionMade, payload); err != nil {
		return err
	}
	if result.Decision == domain.InstantDecline || result.RequiresManualReview {
		return p.bus.Publish(ctx, tenantID, domain.TopicDecisionAlert, payload)
	}
	return nil
}
