// Package worker provides async application processing for the Pro tier.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/opensource-finance/kestrel/internal/bus"
	"github.com/opensource-finance/kestrel/internal/decision"
	"github.com/opensource-finance/kestrel/internal/domain"
)

// Worker processes credit applications asynchronously from the EventBus.
type Worker struct {
	bus     domain.EventBus
	events  *bus.Publisher
	repo    domain.Repository
	decider *decision.Engine

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// Config holds worker configuration.
type Config struct {
	// TenantIDs is the list of tenants to process (empty = all via wildcard if supported)
	TenantIDs []string

	// WorkerCount is the number of concurrent workers per tenant
	WorkerCount int
}

// NewWorker creates a new async worker.
func NewWorker(eventBus domain.EventBus, repo domain.Repository, decider *decision.Engine) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:     eventBus,
		events:  bus.NewPublisher(eventBus),
		repo:    repo,
		decider: decider,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins processing messages for the given tenants.
func (w *Worker) Start(cfg Config) error {
	if len(cfg.TenantIDs) == 0 {
		return w.startGlobalWorker()
	}

	for _, tenantID := range cfg.TenantIDs {
		if err := w.startTenantWorker(tenantID); err != nil {
			slog.Error("failed to start worker for tenant",
				"tenant_id", tenantID,
				"error", err,
			)
			continue
		}
	}

	slog.Info("workers started",
		"tenant_count", len(cfg.TenantIDs),
	)

	return nil
}

// startGlobalWorker starts a worker that processes all tenants (for testing/dev).
func (w *Worker) startGlobalWorker() error {
	// Subscribe using a special "global" tenant ID
	// In production, you'd want to subscribe with wildcards or JetStream
	sub, err := w.bus.Subscribe(w.ctx, "_global", domain.TopicApplicationReceived, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("global worker started")
	return nil
}

// startTenantWorker starts workers for a specific tenant.
func (w *Worker) startTenantWorker(tenantID string) error {
	sub, err := w.bus.Subscribe(w.ctx, tenantID, domain.TopicApplicationReceived, func(ctx context.Context, msg *domain.Message) error {
		return w.processApplication(ctx, tenantID, msg)
	})
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("tenant worker started",
		"tenant_id", tenantID,
		"topic", domain.TopicApplicationReceived,
	)

	return nil
}

// handleMessage handles messages from global subscription.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	return w.processApplication(ctx, msg.TenantID, msg)
}

// processApplication runs an application through the instant decision pipeline.
func (w *Worker) processApplication(ctx context.Context, tenantID string, msg *domain.Message) error {
	start := time.Now()

	var appMsg bus.ApplicationEnvelope
	if err := json.Unmarshal(msg.Payload, &appMsg); err != nil {
		slog.Error("failed to parse application message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	// Use message tenant if provided
	if appMsg.TenantID != "" {
		tenantID = appMsg.TenantID
	}
	app := &appMsg.Application
	if app.TenantID == "" {
		app.TenantID = tenantID
	}

	traceID := appMsg.TraceID
	if traceID == "" {
		traceID = msg.ID
	}

	slog.Debug("processing application",
		"applicant_id", app.ApplicantID,
		"tenant_id", tenantID,
		"trace_id", traceID,
	)

	// 1. Run the full instant decision pipeline
	result, err := w.decider.InstantDecision(ctx, app)
	if err != nil {
		slog.Error("instant decision failed",
			"applicant_id", app.ApplicantID,
			"error", err,
		)
		return err
	}
	result.TenantID = tenantID

	// 2. Persist application, score and decision
	if w.repo != nil {
		if err := w.repo.SaveApplication(ctx, tenantID, app); err != nil {
			slog.Error("failed to save application",
				"applicant_id", app.ApplicantID,
				"error", err,
			)
		}
		if result.Score != nil {
			if err := w.repo.SaveScoreResult(ctx, tenantID, result.Score); err != nil {
				slog.Error("failed to save score result",
					"applicant_id", app.ApplicantID,
					"error", err,
				)
			}
		}
		if err := w.repo.SaveDecision(ctx, tenantID, result); err != nil {
			slog.Error("failed to save decision",
				"applicant_id", app.ApplicantID,
				"error", err,
			)
		}
	}

	// 3. Publish the score and decision. DecisionMade raises the
	// alert topic for declines and manual review cases.
	if result.Score != nil {
		if err := w.events.ApplicationScored(ctx, tenantID, result.Score); err != nil {
			slog.Error("failed to publish score",
				"applicant_id", app.ApplicantID,
				"error", err,
			)
		}
	}
	if err := w.events.DecisionMade(ctx, tenantID, result); err != nil {
		slog.Error("failed to publish decision",
			"applicant_id", app.ApplicantID,
			"error", err,
		)
	}

	slog.Info("application processed",
		"applicant_id", app.ApplicantID,
		"tenant_id", tenantID,
		"decision", result.Decision,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops all workers.
func (w *Worker) Stop() error {
	w.cancel()

	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("workers stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
