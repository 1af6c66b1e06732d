// Package ledger implements the escrow ledger service: the sole authority for
// wallet balance mutation. Every balance- or reservation-changing operation is
// a read-modify-write guarded by the wallet's version field; conflicting
// writers retry, so no update is ever lost under concurrency.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/renovalink/escrow-ledger/pkg/audit"
	"github.com/renovalink/escrow-ledger/pkg/models"
	"github.com/renovalink/escrow-ledger/pkg/storage"
)

// maxMutationAttempts bounds the optimistic-retry loop. Conflicts are
// transient; a wallet hot enough to exhaust this is an operational problem.
const maxMutationAttempts = 5

// API is the operation surface of the ledger service.
type API interface {
	CreateWallet(ctx context.Context, projectID, currency, provider string) (*models.Wallet, error)
	GetWallet(ctx context.Context, projectID string) (*models.Wallet, error)
	ListWallets(ctx context.Context) ([]models.Wallet, error)

	Deposit(ctx context.Context, projectID string, amount int64, externalTxnID string) (*models.Wallet, error)
	Withdraw(ctx context.Context, projectID string, amount int64, externalTxnID, actorID, reason string) (*models.Wallet, error)
	Reserve(ctx context.Context, projectID string, amount int64, reason string) (*models.Wallet, error)
	ReleaseReserved(ctx context.Context, projectID string, amount int64) (*models.Wallet, error)
	AdjustBalance(ctx context.Context, projectID string, amount int64, reason, actorID string) (*models.Wallet, error)

	Freeze(ctx context.Context, projectID, actorID string) (*models.Wallet, error)
	Unfreeze(ctx context.Context, projectID, actorID string) (*models.Wallet, error)
	Close(ctx context.Context, projectID, actorID string) (*models.Wallet, error)
}

// Service implements API on top of a WalletStore.
type Service struct {
	store    storage.WalletStore
	recorder audit.Recorder
	logger   *slog.Logger
}

// NewService creates a new ledger service. recorder may be nil to disable
// audit emission (tests).
func NewService(store storage.WalletStore, recorder audit.Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, recorder: recorder, logger: logger}
}

// Make sure we conform to the interface
var _ API = (*Service)(nil)

// CreateWallet creates the escrow wallet for a project. Idempotent: if the
// project already has a wallet, the existing one is returned.
func (s *Service) CreateWallet(ctx context.Context, projectID, currency, provider string) (*models.Wallet, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project id is required")
	}
	if currency == "" {
		currency = "INR"
	}

	now := time.Now().UTC()
	wallet := &models.Wallet{
		ProjectID: projectID,
		Status:    models.WalletPending,
		Currency:  currency,
		Provider:  provider,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return s.store.CreateWallet(ctx, wallet)
}

// GetWallet retrieves the wallet for a project.
func (s *Service) GetWallet(ctx context.Context, projectID string) (*models.Wallet, error) {
	return s.store.GetWallet(ctx, projectID)
}

// ListWallets retrieves all wallets.
func (s *Service) ListWallets(ctx context.Context) ([]models.Wallet, error) {
	return s.store.ListWallets(ctx)
}

// Deposit credits the wallet. A replayed externalTxnID is not an error: the
// current wallet state is returned without re-applying the credit. The first
// successful deposit activates a pending wallet. Deposits are accepted on
// frozen wallets; freezing only blocks money moving out.
func (s *Service) Deposit(ctx context.Context, projectID string, amount int64, externalTxnID string) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, storage.ErrInvalidAmount
	}
	if externalTxnID == "" {
		return nil, fmt.Errorf("external transaction id is required for deposits")
	}

	wallet, applied, err := s.mutate(ctx, projectID, func(w *models.Wallet, now time.Time) (*models.LedgerEvent, error) {
		if w.Status == models.WalletClosed {
			return nil, storage.ErrWalletClosed
		}
		w.Balance += amount
		w.TotalDeposited += amount
		w.DepositCount++
		w.LastDepositAt = &now
		if w.Status == models.WalletPending {
			w.Status = models.WalletActive
		}
		return &models.LedgerEvent{
			WalletID:      projectID,
			EventKey:      eventKey(externalTxnID),
			EventID:       uuid.New().String(),
			Type:          models.EventDeposit,
			Amount:        amount,
			ExternalTxnID: externalTxnID,
			CreatedAt:     now,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	// An idempotent replay mutated nothing; auditing it again would
	// double-count the deposit in compliance queries.
	if applied {
		s.recordAudit(ctx, audit.Event{
			Type:       audit.EventWalletDeposited,
			TargetType: "wallet",
			TargetID:   projectID,
			Amount:     amount,
			Metadata:   map[string]string{"external_txn_id": externalTxnID},
		})
	}
	return wallet, nil
}

// Withdraw disburses funds from the wallet's available balance,
// i.e. balance - reserved. When actorID is supplied, an audit entry records
// the release; audit failure never rolls back the withdrawal.
func (s *Service) Withdraw(ctx context.Context, projectID string, amount int64, externalTxnID, actorID, reason string) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, storage.ErrInvalidAmount
	}

	wallet, applied, err := s.mutate(ctx, projectID, func(w *models.Wallet, now time.Time) (*models.LedgerEvent, error) {
		if w.Status == models.WalletClosed {
			return nil, storage.ErrWalletClosed
		}
		if w.Status == models.WalletFrozen {
			return nil, storage.ErrWalletFrozen
		}
		if w.Available() < amount {
			return nil, storage.ErrInsufficientAvailableBalance
		}
		w.Balance -= amount
		w.TotalWithdrawn += amount
		w.WithdrawalCount++
		w.LastWithdrawalAt = &now
		return &models.LedgerEvent{
			WalletID:      projectID,
			EventKey:      eventKey(externalTxnID),
			EventID:       uuid.New().String(),
			Type:          models.EventWithdrawal,
			Amount:        amount,
			ExternalTxnID: externalTxnID,
			ActorID:       actorID,
			Reason:        reason,
			CreatedAt:     now,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if applied && actorID != "" {
		s.recordAudit(ctx, audit.Event{
			Type:       audit.EventWalletWithdrawn,
			ActorID:    actorID,
			TargetType: "wallet",
			TargetID:   projectID,
			Amount:     amount,
			Metadata:   map[string]string{"reason": reason},
		})
	}
	return wallet, nil
}

// Reserve earmarks funds for a pending obligation without removing them from
// the balance. Rejected, never clamped, when it would push available below zero.
func (s *Service) Reserve(ctx context.Context, projectID string, amount int64, reason string) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, storage.ErrInvalidAmount
	}

	wallet, applied, err := s.mutate(ctx, projectID, func(w *models.Wallet, now time.Time) (*models.LedgerEvent, error) {
		if w.Status == models.WalletClosed {
			return nil, storage.ErrWalletClosed
		}
		if w.Status == models.WalletFrozen {
			return nil, storage.ErrWalletFrozen
		}
		if w.Available() < amount {
			return nil, storage.ErrInsufficientAvailableBalance
		}
		w.Reserved += amount
		return &models.LedgerEvent{
			WalletID:  projectID,
			EventKey:  eventKey(""),
			EventID:   uuid.New().String(),
			Type:      models.EventReserve,
			Amount:    amount,
			Reason:    reason,
			CreatedAt: now,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if applied {
		s.recordAudit(ctx, audit.Event{
			Type:       audit.EventFundsReserved,
			TargetType: "wallet",
			TargetID:   projectID,
			Amount:     amount,
			Metadata:   map[string]string{"reason": reason},
		})
	}
	return wallet, nil
}

// ReleaseReserved returns earmarked funds to the withdrawable window. A
// release larger than the reserved amount is rejected outright.
func (s *Service) ReleaseReserved(ctx context.Context, projectID string, amount int64) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, storage.ErrInvalidAmount
	}

	wallet, applied, err := s.mutate(ctx, projectID, func(w *models.Wallet, now time.Time) (*models.LedgerEvent, error) {
		if w.Status == models.WalletClosed {
			return nil, storage.ErrWalletClosed
		}
		if amount > w.Reserved {
			return nil, storage.ErrOverRelease
		}
		w.Reserved -= amount
		return &models.LedgerEvent{
			WalletID:  projectID,
			EventKey:  eventKey(""),
			EventID:   uuid.New().String(),
			Type:      models.EventReleaseReserve,
			Amount:    amount,
			CreatedAt: now,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if applied {
		s.recordAudit(ctx, audit.Event{
			Type:       audit.EventReservationReleased,
			TargetType: "wallet",
			TargetID:   projectID,
			Amount:     amount,
		})
	}
	return wallet, nil
}

// AdjustBalance is the admin correction path. A positive amount is credited
// through the deposit path, a negative one debited through the withdrawal
// path. The reason is mandatory and lands in both the ledger event and the
// audit entry.
func (s *Service) AdjustBalance(ctx context.Context, projectID string, amount int64, reason, actorID string) (*models.Wallet, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, storage.ErrReasonRequired
	}
	if amount == 0 {
		return nil, storage.ErrInvalidAmount
	}

	adjustmentID := "adj_" + uuid.New().String()

	var wallet *models.Wallet
	var err error
	if amount > 0 {
		wallet, err = s.Deposit(ctx, projectID, amount, adjustmentID)
	} else {
		wallet, err = s.Withdraw(ctx, projectID, -amount, adjustmentID, "", reason)
	}
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, audit.Event{
		Type:       audit.EventBalanceAdjusted,
		ActorID:    actorID,
		TargetType: "wallet",
		TargetID:   projectID,
		Amount:     amount,
		Metadata:   map[string]string{"reason": reason, "adjustment_id": adjustmentID},
	})
	return wallet, nil
}

// Freeze blocks withdrawals and reservations. Deposits still land, so client
// money is never bounced back at the provider. Freezing a frozen wallet is a
// no-op.
func (s *Service) Freeze(ctx context.Context, projectID, actorID string) (*models.Wallet, error) {
	wallet, applied, err := s.mutateStatus(ctx, projectID, func(w *models.Wallet) (bool, error) {
		if w.Status == models.WalletClosed {
			return false, storage.ErrWalletClosed
		}
		if w.Status == models.WalletFrozen {
			return false, nil
		}
		w.Status = models.WalletFrozen
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if applied {
		s.recordAudit(ctx, audit.Event{
			Type:       audit.EventWalletFrozen,
			ActorID:    actorID,
			TargetType: "wallet",
			TargetID:   projectID,
		})
	}
	return wallet, nil
}

// Unfreeze returns a frozen wallet to active. It only acts from frozen; any
// other status is returned unchanged.
func (s *Service) Unfreeze(ctx context.Context, projectID, actorID string) (*models.Wallet, error) {
	wallet, applied, err := s.mutateStatus(ctx, projectID, func(w *models.Wallet) (bool, error) {
		if w.Status != models.WalletFrozen {
			return false, nil
		}
		w.Status = models.WalletActive
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if applied {
		s.recordAudit(ctx, audit.Event{
			Type:       audit.EventWalletUnfrozen,
			ActorID:    actorID,
			TargetType: "wallet",
			TargetID:   projectID,
		})
	}
	return wallet, nil
}

// Close terminates the wallet. Only permitted at zero balance; closed is
// permanent. Closing a closed wallet is a no-op.
func (s *Service) Close(ctx context.Context, projectID, actorID string) (*models.Wallet, error) {
	wallet, applied, err := s.mutateStatus(ctx, projectID, func(w *models.Wallet) (bool, error) {
		if w.Status == models.WalletClosed {
			return false, nil
		}
		if w.Balance != 0 {
			return false, storage.ErrNonZeroBalance
		}
		w.Status = models.WalletClosed
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if applied {
		s.recordAudit(ctx, audit.Event{
			Type:       audit.EventWalletClosed,
			ActorID:    actorID,
			TargetType: "wallet",
			TargetID:   projectID,
		})
	}
	return wallet, nil
}

// mutate runs one read-modify-write against the wallet under optimistic
// concurrency control. apply receives a copy of the current wallet, validates
// the operation, mutates the copy and returns the ledger event to append.
// ErrVersionConflict restarts the whole loop with a fresh read; a duplicate
// external transaction resolves as a successful no-op returning the current
// state with applied=false, so callers can skip side effects such as auditing.
func (s *Service) mutate(ctx context.Context, projectID string, apply func(w *models.Wallet, now time.Time) (*models.LedgerEvent, error)) (*models.Wallet, bool, error) {
	for attempt := 0; attempt < maxMutationAttempts; attempt++ {
		current, err := s.store.GetWallet(ctx, projectID)
		if err != nil {
			return nil, false, err
		}

		now := time.Now().UTC()
		updated := *current
		event, err := apply(&updated, now)
		if err != nil {
			return nil, false, err
		}
		updated.Version = current.Version + 1
		updated.UpdatedAt = now

		err = s.store.PersistWalletEvent(ctx, &updated, current.Version, event)
		switch {
		case err == nil:
			return &updated, true, nil
		case errors.Is(err, storage.ErrDuplicateTransaction):
			return current, false, nil
		case errors.Is(err, storage.ErrVersionConflict):
			continue
		default:
			return nil, false, err
		}
	}
	return nil, false, fmt.Errorf("wallet %s: too many concurrent updates: %w", projectID, storage.ErrVersionConflict)
}

// mutateStatus is mutate for lifecycle transitions that append no ledger
// event. apply returns false when the transition is a no-op; no-ops report
// applied=false.
func (s *Service) mutateStatus(ctx context.Context, projectID string, apply func(w *models.Wallet) (bool, error)) (*models.Wallet, bool, error) {
	for attempt := 0; attempt < maxMutationAttempts; attempt++ {
		current, err := s.store.GetWallet(ctx, projectID)
		if err != nil {
			return nil, false, err
		}

		updated := *current
		changed, err := apply(&updated)
		if err != nil {
			return nil, false, err
		}
		if !changed {
			return current, false, nil
		}
		updated.Version = current.Version + 1
		updated.UpdatedAt = time.Now().UTC()

		err = s.store.PersistWalletStatus(ctx, &updated, current.Version)
		switch {
		case err == nil:
			return &updated, true, nil
		case errors.Is(err, storage.ErrVersionConflict):
			continue
		default:
			return nil, false, err
		}
	}
	return nil, false, fmt.Errorf("wallet %s: too many concurrent updates: %w", projectID, storage.ErrVersionConflict)
}

// recordAudit forwards to the recorder, best-effort. A failed audit write is
// logged and swallowed; it must never abort the financial operation it
// documents.
func (s *Service) recordAudit(ctx context.Context, event audit.Event) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, event); err != nil {
		s.logger.Error("audit record failed",
			"eventType", string(event.Type),
			"targetId", event.TargetID,
			"error", err,
		)
	}
}

// eventKey derives the ledger event's sort key. Provider-sourced events are
// keyed by their external transaction id, which is what makes replays
// collide; internal events get a fresh key.
func eventKey(externalTxnID string) string {
	if externalTxnID != "" {
		return "txn#" + externalTxnID
	}
	return "evt#" + uuid.New().String()
}
