package storage

import (
	"context"
	"time"

	"github.com/renovalink/escrow-ledger/pkg/models"
)

// DeliveryStore records every inbound webhook delivery and its outcome.
// FAILED deliveries (acknowledged to the provider but not applied) are the
// reconciliation job's work queue.
type DeliveryStore interface {
	// RecordDelivery persists the delivery record with its final outcome.
	RecordDelivery(ctx context.Context, delivery *models.WebhookDelivery) error

	// ListFailedDeliveries retrieves deliveries in the FAILED outcome that
	// were received more than maxAge ago.
	ListFailedDeliveries(ctx context.Context, maxAge time.Duration) ([]models.WebhookDelivery, error)

	// UpdateDeliveryOutcome rewrites the outcome of a delivery after a replay.
	UpdateDeliveryOutcome(ctx context.Context, deliveryID string, outcome models.DeliveryOutcome) error
}
