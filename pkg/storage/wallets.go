package storage

import (
	"context"

	"github.com/renovalink/escrow-ledger/pkg/models"
)

// WalletReader defines the read-only view of wallet state. Components that
// must not mutate balances (reconciler, audit) depend on this interface.
type WalletReader interface {
	// GetWallet retrieves the wallet for a project.
	GetWallet(ctx context.Context, projectID string) (*models.Wallet, error)

	// ListWallets retrieves all wallets.
	ListWallets(ctx context.Context) ([]models.Wallet, error)
}

// WalletStore defines the full wallet persistence contract. Only the ledger
// service routes writes through it.
type WalletStore interface {
	WalletReader

	// CreateWallet persists a new wallet. If a wallet already exists for the
	// project, the existing wallet is returned unchanged (upsert-by-uniqueness).
	CreateWallet(ctx context.Context, wallet *models.Wallet) (*models.Wallet, error)

	// PersistWalletEvent atomically writes the updated wallet state and
	// appends the ledger event, conditioned on the wallet still being at
	// expectedVersion. Returns ErrVersionConflict when the wallet moved, and
	// ErrDuplicateTransaction when the event's external transaction id was
	// already recorded for this wallet.
	PersistWalletEvent(ctx context.Context, wallet *models.Wallet, expectedVersion int64, event *models.LedgerEvent) error

	// PersistWalletStatus writes a status-only wallet update under the same
	// version discipline. Used for freeze, unfreeze and close.
	PersistWalletStatus(ctx context.Context, wallet *models.Wallet, expectedVersion int64) error
}
