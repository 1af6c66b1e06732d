// Package webhooks ingests external payment-provider notifications. Delivery
// is at-least-once, so every path through the ingestor must be idempotent:
// deduplication by the provider's transaction id is the only replay defense.
package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/renovalink/escrow-ledger/pkg/api"
	"github.com/renovalink/escrow-ledger/pkg/models"
	"github.com/renovalink/escrow-ledger/pkg/storage"
)

// State is a stage of the per-delivery state machine. A delivery moves
// RECEIVED -> SIGNATURE_VERIFIED -> DEDUPLICATED -> APPLIED, or short-circuits
// to REJECTED (bad signature or shape), IGNORED (valid but non-terminal
// provider status) or FAILED (internal error after validation; acknowledged
// and left for the reconciliation job).
type State string

const (
	StateReceived          State = "RECEIVED"
	StateSignatureVerified State = "SIGNATURE_VERIFIED"
	StateDeduplicated      State = "DEDUPLICATED"
	StateApplied           State = "APPLIED"
	StateRejected          State = "REJECTED"
	StateIgnored           State = "IGNORED"
	StateFailed            State = "FAILED"
)

// ErrInvalidSignature is returned when the delivery's signature cannot be
// verified against the provider's shared secret.
var ErrInvalidSignature = errors.New("webhook signature verification failed")

// ErrMissingFields is returned when a delivery lacks a positive amount, a
// transaction id, or both project and wallet identifiers.
var ErrMissingFields = errors.New("webhook payload is missing required fields")

// terminalStatuses are the provider statuses that credit the escrow wallet.
// Anything else acknowledges without processing.
var terminalStatuses = map[string]bool{
	"success":   true,
	"completed": true,
	"credited":  true,
}

// DepositLedger is the slice of the ledger service the ingestor drives.
type DepositLedger interface {
	CreateWallet(ctx context.Context, projectID, currency, provider string) (*models.Wallet, error)
	Deposit(ctx context.Context, projectID string, amount int64, externalTxnID string) (*models.Wallet, error)
}

// Result is the outcome of ingesting one delivery.
type Result struct {
	State  State
	Wallet *models.Wallet
	Err    error
}

// Ingestor validates, deduplicates and applies inbound deposit notifications.
type Ingestor struct {
	ledger          DepositLedger
	deliveries      storage.DeliveryStore
	secrets         map[string]string
	bypassSignature bool
	logger          *slog.Logger
}

// NewIngestor creates a new Ingestor. secrets maps provider name to its
// shared signing secret. bypassSignature skips verification entirely and must
// only ever be set from non-production configuration; the entry point is
// responsible for refusing it in production.
func NewIngestor(ledger DepositLedger, deliveries storage.DeliveryStore, secrets map[string]string, bypassSignature bool, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		ledger:          ledger,
		deliveries:      deliveries,
		secrets:         secrets,
		bypassSignature: bypassSignature,
		logger:          logger,
	}
}

// IngestDeposit runs one raw delivery through the state machine. The HTTP
// handler maps StateRejected to 400/401 and everything else to an
// acknowledgment, including StateFailed: once a delivery is structurally
// valid we own it, and bouncing it back only buys a retry storm.
func (i *Ingestor) IngestDeposit(ctx context.Context, provider string, body []byte, signature string) Result {
	if !i.bypassSignature {
		secret, ok := i.secrets[provider]
		if !ok || !VerifySignature(secret, body, signature) {
			i.recordDelivery(ctx, provider, body, nil, models.DeliveryRejected, ErrInvalidSignature)
			return Result{State: StateRejected, Err: ErrInvalidSignature}
		}
	}

	var payload api.DepositWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		i.recordDelivery(ctx, provider, body, nil, models.DeliveryRejected, err)
		return Result{State: StateRejected, Err: fmt.Errorf("malformed webhook payload: %w", err)}
	}

	if err := validateDeposit(&payload); err != nil {
		i.recordDelivery(ctx, provider, body, &payload, models.DeliveryRejected, err)
		return Result{State: StateRejected, Err: err}
	}

	if !terminalStatuses[payload.Status] {
		i.recordDelivery(ctx, provider, body, &payload, models.DeliveryIgnored, nil)
		return Result{State: StateIgnored}
	}

	wallet, err := i.apply(ctx, provider, &payload)
	if err != nil {
		i.logger.Error("webhook deposit failed after validation; acknowledged for reconciliation",
			"provider", provider,
			"transactionId", payload.TransactionID,
			"error", err,
		)
		i.recordDelivery(ctx, provider, body, &payload, models.DeliveryFailed, err)
		return Result{State: StateFailed, Err: err}
	}

	i.recordDelivery(ctx, provider, body, &payload, models.DeliveryApplied, nil)
	return Result{State: StateApplied, Wallet: wallet}
}

// Replay re-drives a previously FAILED delivery from its recorded snapshot.
// Signature verification is skipped: it passed (or was bypassed) on first
// receipt. Deposit idempotency makes replaying an already-applied delivery a
// no-op.
func (i *Ingestor) Replay(ctx context.Context, delivery models.WebhookDelivery) error {
	var payload api.DepositWebhook
	if err := json.Unmarshal([]byte(delivery.Payload), &payload); err != nil {
		return fmt.Errorf("delivery %s has an unparseable payload snapshot: %w", delivery.DeliveryID, err)
	}
	if err := validateDeposit(&payload); err != nil {
		return fmt.Errorf("delivery %s: %w", delivery.DeliveryID, err)
	}

	if !terminalStatuses[payload.Status] {
		return i.deliveries.UpdateDeliveryOutcome(ctx, delivery.DeliveryID, models.DeliveryIgnored)
	}

	if _, err := i.apply(ctx, delivery.Provider, &payload); err != nil {
		return fmt.Errorf("replay of delivery %s failed: %w", delivery.DeliveryID, err)
	}

	return i.deliveries.UpdateDeliveryOutcome(ctx, delivery.DeliveryID, models.DeliveryApplied)
}

// apply ensures the project wallet exists and credits it. Wallet creation is
// idempotent, so a deposit arriving before the project's wallet was
// provisioned simply creates it in passing.
func (i *Ingestor) apply(ctx context.Context, provider string, payload *api.DepositWebhook) (*models.Wallet, error) {
	projectID := resolveProjectID(payload)

	currency := ""
	if payload.Currency != nil {
		currency = *payload.Currency
	}
	if _, err := i.ledger.CreateWallet(ctx, projectID, currency, provider); err != nil {
		return nil, fmt.Errorf("failed to ensure wallet for project %s: %w", projectID, err)
	}

	return i.ledger.Deposit(ctx, projectID, payload.Amount, payload.TransactionID)
}

func validateDeposit(payload *api.DepositWebhook) error {
	if payload.Amount <= 0 {
		return fmt.Errorf("%w: positive amount", ErrMissingFields)
	}
	if payload.TransactionID == "" {
		return fmt.Errorf("%w: transactionId", ErrMissingFields)
	}
	if resolveProjectID(payload) == "" {
		return fmt.Errorf("%w: projectId or walletId", ErrMissingFields)
	}
	if payload.Status == "" {
		return fmt.Errorf("%w: status", ErrMissingFields)
	}
	return nil
}

// resolveProjectID prefers the explicit project reference; walletId is an
// alias for it since wallets are keyed one-per-project.
func resolveProjectID(payload *api.DepositWebhook) string {
	if payload.ProjectID != nil && *payload.ProjectID != "" {
		return *payload.ProjectID
	}
	if payload.WalletID != nil && *payload.WalletID != "" {
		return *payload.WalletID
	}
	return ""
}

// recordDelivery persists the delivery record, best-effort. Losing the record
// loses reconciliation coverage, not money, so a failure here is logged and
// swallowed.
func (i *Ingestor) recordDelivery(ctx context.Context, provider string, body []byte, payload *api.DepositWebhook, outcome models.DeliveryOutcome, cause error) {
	delivery := &models.WebhookDelivery{
		DeliveryID: uuid.New().String(),
		Provider:   provider,
		Payload:    string(body),
		Outcome:    outcome,
		ReceivedAt: time.Now().UTC(),
	}
	if payload != nil {
		delivery.TransactionID = payload.TransactionID
		delivery.ProjectID = resolveProjectID(payload)
		delivery.Amount = payload.Amount
		delivery.Status = payload.Status
	}
	if cause != nil {
		delivery.Error = cause.Error()
	}

	if err := i.deliveries.RecordDelivery(ctx, delivery); err != nil {
		i.logger.Error("failed to record webhook delivery", "provider", provider, "outcome", string(outcome), "error", err)
	}
}
