package storage

import (
	"context"

	"github.com/renovalink/escrow-ledger/pkg/models"
)

// LedgerReader defines the interface for reading a wallet's event history.
type LedgerReader interface {
	// ListLedgerEvents retrieves the most recent events for a wallet,
	// newest first.
	ListLedgerEvents(ctx context.Context, walletID string, limit int32) ([]models.LedgerEvent, error)
}
