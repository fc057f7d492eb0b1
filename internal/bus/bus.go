package bus

import (
	"fmt"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// DeliveryStats reports transport-level counters. Both transports
// expose the same shape so ops tooling does not care which tier is
// running.
type DeliveryStats struct {
	Published  uint64 `json:"published"`
	Dropped    uint64 `json:"dropped"`
	Reconnects uint64 `json:"reconnects"`
}

// New creates the event bus for the configured tier: Go channels for
// Community, NATS for Pro.
func New(cfg domain.EventBusConfig) (domain.EventBus, error) {
	switch cfg.Type {
	case "channel":
		return NewChannelBus(cfg.ChannelBufferSize), nil

	case "nats":
		return NewNATSBus(cfg)

	default:
		return nil, fmt.Errorf("unsupported event bus type: %s", cfg.Type)
	}
}
