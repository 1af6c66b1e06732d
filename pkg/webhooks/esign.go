package webhooks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/renovalink/escrow-ledger/pkg/api"
	"github.com/renovalink/escrow-ledger/pkg/reconcile"
)

// E-signature vendor event names.
const (
	EsignDocumentSigned    = "document.signed"
	EsignInviteeSigned     = "invitee.signed"
	EsignDocumentCompleted = "document.completed"
	EsignDocumentRejected  = "document.rejected"
)

// ErrUnknownEsignEvent is returned for events outside the vendor's contract.
var ErrUnknownEsignEvent = errors.New("unknown e-signature event")

// ContractUpdater is the contract subsystem's write surface. Contracts are an
// external collaborator; this service only forwards status transitions.
type ContractUpdater interface {
	UpdateContractStatus(ctx context.Context, documentID, status string) error
}

// SigningGate evaluates whether contract finalization is currently blocked by
// quote-revision solvency.
type SigningGate interface {
	CheckContractSigningBlock(ctx context.Context, quoteID string) (reconcile.GateResult, error)
}

// EsignProcessor maps e-signature vendor callbacks onto contract status
// transitions, consulting the signing gate before finalization. It never
// touches wallet state.
type EsignProcessor struct {
	contracts ContractUpdater
	gate      SigningGate
	logger    *slog.Logger
}

// NewEsignProcessor creates a new EsignProcessor.
func NewEsignProcessor(contracts ContractUpdater, gate SigningGate, logger *slog.Logger) *EsignProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &EsignProcessor{contracts: contracts, gate: gate, logger: logger}
}

// Process handles one callback and returns a short result tag for the
// acknowledgment body.
func (p *EsignProcessor) Process(ctx context.Context, payload api.EsignCallback) (string, error) {
	if payload.DocumentID == "" {
		return "", errors.New("documentId is required")
	}

	switch payload.Event {
	case EsignDocumentSigned, EsignInviteeSigned:
		return p.transition(ctx, payload.DocumentID, "signed")
	case EsignDocumentRejected:
		return p.transition(ctx, payload.DocumentID, "rejected")
	case EsignDocumentCompleted:
		return p.finalize(ctx, payload)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEsignEvent, payload.Event)
	}
}

// finalize moves the contract to completed, unless the signing gate blocks
// it. A gate evaluation error fails open per the reconciler's contract; it is
// logged here so the skipped check is visible.
func (p *EsignProcessor) finalize(ctx context.Context, payload api.EsignCallback) (string, error) {
	quoteID := payload.Metadata["quote_id"]
	if quoteID != "" {
		gate, err := p.gate.CheckContractSigningBlock(ctx, quoteID)
		if err != nil {
			p.logger.Error("signing gate evaluation failed open", "quoteId", quoteID, "documentId", payload.DocumentID, "error", err)
		}
		if !gate.Allowed {
			p.logger.Warn("contract finalization blocked by signing gate",
				"quoteId", quoteID,
				"documentId", payload.DocumentID,
				"reason", string(gate.Reason),
			)
			return "finalization_blocked:" + string(gate.Reason), nil
		}
	}

	return p.transition(ctx, payload.DocumentID, "completed")
}

func (p *EsignProcessor) transition(ctx context.Context, documentID, status string) (string, error) {
	if err := p.contracts.UpdateContractStatus(ctx, documentID, status); err != nil {
		return "", fmt.Errorf("failed to update contract for document %s: %w", documentID, err)
	}
	return "contract_" + status, nil
}

// LogContractUpdater is a ContractUpdater that only logs. Wired when the
// contract subsystem is not deployed alongside this service.
type LogContractUpdater struct {
	Logger *slog.Logger
}

// UpdateContractStatus logs the transition and succeeds.
func (u *LogContractUpdater) UpdateContractStatus(ctx context.Context, documentID, status string) error {
	logger := u.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("contract status transition", "documentId", documentID, "status", status)
	return nil
}
