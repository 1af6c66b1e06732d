package storage

import "errors"

// ErrWalletNotFound is returned when no wallet exists for the given project.
var ErrWalletNotFound = errors.New("wallet not found")

// ErrQuoteNotFound is returned when a quote id cannot be resolved.
var ErrQuoteNotFound = errors.New("quote not found")

// ErrInvalidAmount is returned for zero or negative amounts.
var ErrInvalidAmount = errors.New("amount must be positive")

// ErrInsufficientAvailableBalance is returned when an operation would push
// balance - reserved below zero. The operation is rejected, never clamped.
var ErrInsufficientAvailableBalance = errors.New("insufficient available balance")

// ErrOverRelease is returned when a release exceeds the reserved amount.
var ErrOverRelease = errors.New("release exceeds reserved amount")

// ErrNonZeroBalance is returned when closing a wallet that still holds funds.
var ErrNonZeroBalance = errors.New("wallet balance must be zero to close")

// ErrWalletFrozen is returned when a frozen wallet blocks the operation.
// Freezing blocks withdrawals and reservations, not deposits.
var ErrWalletFrozen = errors.New("wallet is frozen")

// ErrWalletClosed is returned for any mutation against a closed wallet.
var ErrWalletClosed = errors.New("wallet is closed")

// ErrReasonRequired is returned when a mandatory justification is missing.
var ErrReasonRequired = errors.New("a non-empty reason is required")

// ErrVersionConflict is returned when the wallet's version changed between
// read and write. Callers retry the whole read-modify-write.
var ErrVersionConflict = errors.New("wallet version conflict")

// ErrDuplicateTransaction is returned when a ledger event with the same
// external transaction id already exists for the wallet. Callers treat this
// as a successful no-op and return the current wallet state.
var ErrDuplicateTransaction = errors.New("duplicate external transaction")
