package mapping

import (
	"fmt"

	"github.com/renovalink/escrow-ledger/pkg/api"
	"github.com/renovalink/escrow-ledger/pkg/models"
	"github.com/renovalink/escrow-ledger/pkg/reconcile"
	"github.com/shopspring/decimal"
)

// ToApiWallet converts a domain Wallet to an API Wallet.
func ToApiWallet(wallet *models.Wallet) *api.Wallet {
	return &api.Wallet{
		ProjectID:        wallet.ProjectID,
		Balance:          wallet.Balance,
		Reserved:         wallet.Reserved,
		AvailableBalance: wallet.Available(),
		Status:           string(wallet.Status),
		Currency:         wallet.Currency,
		Provider:         wallet.Provider,
		TotalDeposited:   wallet.TotalDeposited,
		TotalWithdrawn:   wallet.TotalWithdrawn,
		DepositCount:     wallet.DepositCount,
		WithdrawalCount:  wallet.WithdrawalCount,
		Version:          wallet.Version,
	}
}

// ToApiLedgerEvent converts a domain LedgerEvent to an API LedgerEvent.
func ToApiLedgerEvent(event *models.LedgerEvent) *api.LedgerEvent {
	return &api.LedgerEvent{
		EventID:       event.EventID,
		WalletID:      event.WalletID,
		Type:          string(event.Type),
		Amount:        event.Amount,
		ExternalTxnID: event.ExternalTxnID,
		ActorID:       event.ActorID,
		Reason:        event.Reason,
		CreatedAt:     event.CreatedAt,
	}
}

// ToApiAuditEntry converts a domain AuditEntry to an API AuditEntry.
func ToApiAuditEntry(entry *models.AuditEntry) *api.AuditEntry {
	return &api.AuditEntry{
		EntryID:    entry.EntryID,
		EventType:  entry.EventType,
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		Amount:     entry.Amount,
		Metadata:   entry.Metadata,
		CreatedAt:  entry.CreatedAt,
	}
}

// ToRevisionInput parses an API NewRevision into the reconciler's input.
// Money fields arrive as decimal strings and are validated here.
func ToRevisionInput(newRevision *api.NewRevision) (reconcile.RevisionInput, error) {
	input := reconcile.RevisionInput{QuoteAmount: decimal.Zero}

	if newRevision.QuoteAmount != "" {
		amount, err := decimal.NewFromString(newRevision.QuoteAmount)
		if err != nil {
			return input, fmt.Errorf("invalid quote_amount %q: %w", newRevision.QuoteAmount, err)
		}
		input.QuoteAmount = amount
	}

	for idx, line := range newRevision.Summary {
		amount, err := decimal.NewFromString(line.Amount)
		if err != nil {
			return input, fmt.Errorf("invalid summary[%d].amount %q: %w", idx, line.Amount, err)
		}
		tax := decimal.Zero
		if line.Tax != "" {
			tax, err = decimal.NewFromString(line.Tax)
			if err != nil {
				return input, fmt.Errorf("invalid summary[%d].tax %q: %w", idx, line.Tax, err)
			}
		}
		input.Summary = append(input.Summary, models.QuoteLineItem{Amount: amount, Tax: tax})
	}

	return input, nil
}

// ToApiRevision converts a reconciler result to the API representation.
func ToApiRevision(result *reconcile.RevisionResult) *api.Revision {
	quote := result.Quote
	return &api.Revision{
		QuoteID:             quote.QuoteID,
		ParentQuoteID:       quote.ParentQuoteID,
		ProjectID:           quote.ProjectID,
		RevisionNumber:      quote.RevisionNumber,
		Total:               reconcile.TotalOf(quote).String(),
		RequiresTopUp:       quote.RequiresTopUp,
		TopUpAmount:         quote.TopUpAmount.String(),
		RequiresAdminReview: quote.RequiresAdminReview,
		Shortfall:           quote.Shortfall.String(),
		CanSignContract:     result.CanSignContract,
	}
}

// ToApiSigningGate converts a gate result to the API representation.
func ToApiSigningGate(gate reconcile.GateResult) *api.SigningGate {
	out := &api.SigningGate{
		Allowed: gate.Allowed,
		Reason:  string(gate.Reason),
	}
	if !gate.TopUpAmount.IsZero() {
		out.TopUpAmount = gate.TopUpAmount.String()
	}
	if !gate.Shortfall.IsZero() {
		out.Shortfall = gate.Shortfall.String()
	}
	return out
}
